package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"
)

// cachingConf configures the redis cache for authenticated actors. Without
// redis_addr no cache is used.
type cachingConf struct {
	RedisAddr   string                  `yaml:"redis_addr"`
	Username    string                  `yaml:"username"`
	Password    string                  `yaml:"password"`
	RedisDB     int                     `yaml:"redis_db"`
	Disabled    bool                    `yaml:"disabled"`
	MaxLifetime duration.DurationOption `yaml:"max_lifetime"`
}

// Enabled reports whether the actor cache should be used
func (c *cachingConf) Enabled() bool {
	return !c.Disabled && c.RedisAddr != ""
}

func (c *cachingConf) validate() error {
	if c.MaxLifetime.Duration() <= 0 {
		return errors.New("max_lifetime must be positive")
	}
	return nil
}

var defaultCachingConf = cachingConf{
	MaxLifetime: duration.DurationOption(5 * time.Minute),
}
