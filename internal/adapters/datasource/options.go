package datasource

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/peereval/pkg/logger"
)

// Option applies a configuration option to Load.
type Option func(*loadConfig)

type loadConfig struct {
	log        logger.Logger
	bcryptCost int
}

func defaultLoadConfig() loadConfig {
	return loadConfig{bcryptCost: bcrypt.DefaultCost}
}

// WithLogger sets the logger used for data warnings.
func WithLogger(l logger.Logger) Option {
	return func(c *loadConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBcryptCost sets the cost used to hash plain passwords at load.
func WithBcryptCost(cost int) Option {
	return func(c *loadConfig) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			c.bcryptCost = cost
		}
	}
}
