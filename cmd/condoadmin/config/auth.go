package config

import (
	"crypto/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"
)

const minTokenSecretLen = 32

// authConf configures the bearer tokens issued by /auth/token
type authConf struct {
	TokenSecret   string                  `yaml:"token_secret"`
	TokenLifetime duration.DurationOption `yaml:"token_lifetime"`
	Issuer        string                  `yaml:"issuer"`

	secret []byte
}

// Secret returns the HS256 key for bearer tokens
func (c *authConf) Secret() []byte {
	return c.secret
}

func (c *authConf) validate() error {
	if c.TokenSecret == "" {
		c.secret = make([]byte, minTokenSecretLen)
		if _, err := rand.Read(c.secret); err != nil {
			return errors.Wrap(err, "could not generate token secret")
		}
		log.Warn("no auth.token_secret configured; using a random secret, issued tokens do not survive a restart")
	} else {
		if len(c.TokenSecret) < minTokenSecretLen {
			return errors.Errorf("token_secret must have at least %d characters", minTokenSecretLen)
		}
		c.secret = []byte(c.TokenSecret)
	}
	if c.TokenLifetime.Duration() <= 0 {
		return errors.New("token_lifetime must be positive")
	}
	return nil
}

var defaultAuthConf = authConf{
	TokenLifetime: duration.DurationOption(time.Hour),
	Issuer:        "medicaodigitalx",
}
