package adminapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTokenLifetime = time.Hour
	defaultTokenIssuer   = "medicaodigitalx"
)

type tokenIssuer struct {
	key      []byte
	lifetime time.Duration
	issuer   string
}

func newTokenIssuer(key []byte, lifetime time.Duration, issuer string) *tokenIssuer {
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	if issuer == "" {
		issuer = defaultTokenIssuer
	}
	return &tokenIssuer{
		key:      key,
		lifetime: lifetime,
		issuer:   issuer,
	}
}

// issue returns a signed HS256 JWT for username and its expiration time.
func (t *tokenIssuer) issue(username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.lifetime)
	tok, err := jwt.NewBuilder().
		Issuer(t.issuer).
		Subject(username).
		IssuedAt(now).
		Expiration(exp).
		Build()
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "could not build token")
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), t.key))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "could not sign token")
	}
	return string(signed), exp, nil
}

// verify checks signature, issuer and lifetime of raw and returns the subject.
func (t *tokenIssuer) verify(raw string) (string, error) {
	tok, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), t.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(t.issuer),
	)
	if err != nil {
		return "", errors.Wrap(err, "invalid token")
	}
	sub, ok := tok.Subject()
	if !ok || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// issueToken exchanges HTTP Basic credentials for a bearer token.
func (a *api) issueToken(c *fiber.Ctx) error {
	username, password, ok := parseBasicAuth(c)
	if !ok {
		return unauthenticated(c, "missing credentials")
	}
	u, err := a.storages.Users.Authenticate(username, password)
	if err != nil {
		log.WithField("username", username).Info("token request with invalid credentials")
		return unauthenticated(c, "invalid credentials")
	}
	signed, exp, err := a.tokens.issue(u.Username)
	if err != nil {
		log.WithError(err).Error("could not issue token")
		return c.Status(fiber.StatusInternalServerError).JSON(
			fiber.Map{
				"error":             "server_error",
				"error_description": "could not issue token",
			},
		)
	}
	return c.JSON(
		tokenResponse{
			AccessToken: signed,
			TokenType:   "Bearer",
			ExpiresIn:   int64(time.Until(exp).Seconds()),
		},
	)
}
