package auth

import (
	"time"

	"github.com/okian/peereval/pkg/logger"
)

// Defaults for the provider.
const (
	DefaultIssuer    = "peereval"
	DefaultTTL       = 8 * time.Hour
	DefaultLoginRate = 1.0
	DefaultBurst     = 5
)

// Option applies a configuration option to the Provider.
type Option func(*Provider)

// WithIssuer sets the token issuer claim.
func WithIssuer(iss string) Option {
	return func(p *Provider) {
		if iss != "" {
			p.signer.issuer = iss
		}
	}
}

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.signer.ttl = ttl
		}
	}
}

// WithClock overrides the time source for issuing, verifying and throttling.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLoginRate sets the per-account login rate and burst. A rate <= 0
// disables throttling.
func WithLoginRate(perSec float64, burst int) Option {
	return func(p *Provider) {
		p.loginRate = perSec
		if burst > 0 {
			p.loginBurst = burst
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}
