// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/scoring"
)

// DevTokenSecret is the signing secret used when none is configured. Servers
// warn at start-up when it is in effect.
const DevTokenSecret = "peereval-dev-secret-change-me"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`
	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds" validate:"min=1"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path" validate:"required"`
	// BusyTimeoutMS is how long SQLite waits on a locked database.
	BusyTimeoutMS int `koanf:"busy_timeout_ms" validate:"min=0"`

	UsersPath       string `koanf:"users_path" validate:"required"`
	AssignmentsPath string `koanf:"assignments_path" validate:"required"`
	CatalogPath     string `koanf:"catalog_path" validate:"required"`
	// BcryptCost hashes plaintext passwords found in the users file.
	BcryptCost int `koanf:"bcrypt_cost" validate:"min=4,max=31"`

	TokenSecret     string  `koanf:"token_secret" validate:"min=16"`
	TokenIssuer     string  `koanf:"token_issuer" validate:"required"`
	TokenTTLMinutes int     `koanf:"token_ttl_minutes" validate:"min=1"`
	LoginRatePerSec float64 `koanf:"login_rate_per_sec" validate:"gt=0"`
	LoginBurst      int     `koanf:"login_burst" validate:"min=1"`

	WeightTeacher   float64 `koanf:"weight_teacher" validate:"min=0"`
	WeightSelf      float64 `koanf:"weight_self" validate:"min=0"`
	WeightPeer      float64 `koanf:"weight_peer" validate:"min=0"`
	MinPeerReceived int     `koanf:"min_peer_received" validate:"min=1"`

	DefaultTopK      int    `koanf:"default_top_k" validate:"min=1,ltefield=MaxTopK"`
	MaxTopK          int    `koanf:"max_top_k" validate:"min=1,max=20"`
	DefaultMethod    string `koanf:"default_method" validate:"oneof=euclidean manhattan"`
	OfficialURLBase  string `koanf:"official_url_base" validate:"required,url"`
	ReferenceURLBase string `koanf:"reference_url_base" validate:"required,url"`

	RequiredPeerGiven    int `koanf:"required_peer_given" validate:"min=1"`
	RequiredPeerReceived int `koanf:"required_peer_received" validate:"min=1"`
	RequiredTeacher      int `koanf:"required_teacher" validate:"min=1"`

	// IdempotencySize bounds remembered Idempotency-Key values.
	IdempotencySize int `koanf:"idempotency_size" validate:"min=1"`
	// IdempotencyTTLMinutes expires keys; zero keeps them until evicted.
	IdempotencyTTLMinutes int `koanf:"idempotency_ttl_minutes" validate:"min=0"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	w := scoring.DefaultWeights()
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8080",
		ShutdownTimeoutSeconds: 10,
		DBPath:                 "data/peereval.db",
		BusyTimeoutMS:          5000,
		UsersPath:              "data/users.csv",
		AssignmentsPath:        "data/peer_assignments.csv",
		CatalogPath:            "data/poke.csv",
		BcryptCost:             10,
		TokenSecret:            DevTokenSecret,
		TokenIssuer:            "peereval",
		TokenTTLMinutes:        480,
		LoginRatePerSec:        1,
		LoginBurst:             5,
		WeightTeacher:          w.Teacher,
		WeightSelf:             w.Self,
		WeightPeer:             w.Peer,
		MinPeerReceived:        scoring.DefaultMinPeerReceived,
		DefaultTopK:            matching.DefaultTopK,
		MaxTopK:                matching.DefaultMaxTopK,
		DefaultMethod:          string(matching.DefaultMethod),
		OfficialURLBase:        matching.DefaultOfficialURLBase,
		ReferenceURLBase:       matching.DefaultReferenceURLBase,
		RequiredPeerGiven:      completion.DefaultPeerGiven,
		RequiredPeerReceived:   completion.DefaultPeerReceived,
		RequiredTeacher:        completion.DefaultTeacher,
		IdempotencySize:        10_000,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and that the weights form a valid mix.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Weights returns the configured composite weights.
func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{Teacher: c.WeightTeacher, Self: c.WeightSelf, Peer: c.WeightPeer}
}

// Requirements returns the configured completion thresholds.
func (c *Config) Requirements() completion.Requirements {
	return completion.Requirements{
		PeerGiven:    c.RequiredPeerGiven,
		PeerReceived: c.RequiredPeerReceived,
		Teacher:      c.RequiredTeacher,
	}
}

func (c *Config) TokenTTL() time.Duration    { return time.Duration(c.TokenTTLMinutes) * time.Minute }
func (c *Config) BusyTimeout() time.Duration { return time.Duration(c.BusyTimeoutMS) * time.Millisecond }
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLMinutes) * time.Minute
}

// UsingDevSecret reports whether the built-in signing secret is in effect.
func (c *Config) UsingDevSecret() bool { return c.TokenSecret == DevTokenSecret }
