package adminapi

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx/internal/actorcache"
	"github.com/brito101/medicaodigitalx/service"
	"github.com/brito101/medicaodigitalx/storage/model"
)

const localsActor = "actor"

// authMiddleware requires HTTP Basic credentials or a bearer token issued by
// /auth/token and stores the resulting service.Actor in the request locals.
func (a *api) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var username string
		if raw, ok := parseBearer(c); ok {
			sub, err := a.tokens.verify(raw)
			if err != nil {
				return unauthenticated(c, "invalid token")
			}
			username = sub
		} else {
			user, password, ok := parseBasicAuth(c)
			if !ok {
				return unauthenticated(c, "missing credentials")
			}
			if _, err := a.storages.Users.Authenticate(user, password); err != nil {
				return unauthenticated(c, "invalid credentials")
			}
			username = user
		}
		actor, err := a.loadActor(c, username)
		if err != nil {
			return unauthenticated(c, "unknown user")
		}
		c.Locals(localsActor, actor)
		return c.Next()
	}
}

// loadActor returns the actor for username, preferring the actor cache.
func (a *api) loadActor(c *fiber.Ctx, username string) (service.Actor, error) {
	ctx := c.UserContext()
	entry, found, err := a.actors.Get(ctx, username)
	if err != nil {
		log.WithError(err).Warn("actor cache lookup failed")
	}
	if found {
		caps := model.CapabilitySet{}
		for _, s := range entry.Capabilities {
			if cp, err := model.ParseCapability(s); err == nil {
				caps[cp] = struct{}{}
			}
		}
		return service.Actor{
			ID:          entry.ID,
			Username:    entry.Username,
			Permissions: caps,
		}, nil
	}
	u, err := a.storages.Users.Get(username)
	if err != nil {
		return service.Actor{}, err
	}
	if u.Disabled {
		return service.Actor{}, model.NotFoundError("user is disabled")
	}
	actor := service.NewActor(*u, nil)
	if err = a.actors.Set(
		ctx, actorcache.Entry{
			ID:           actor.ID,
			Username:     actor.Username,
			Capabilities: actor.Permissions.Strings(),
		},
	); err != nil {
		log.WithError(err).Warn("could not cache actor")
	}
	return actor, nil
}

func actorFrom(c *fiber.Ctx) service.Actor {
	actor, _ := c.Locals(localsActor).(service.Actor)
	return actor
}

func unauthenticated(c *fiber.Ctx, description string) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="admin", Bearer`)
	return c.Status(fiber.StatusUnauthorized).JSON(
		fiber.Map{
			"error":             "invalid_client",
			"error_description": description,
		},
	)
}

func parseBearer(c *fiber.Ctx) (string, bool) {
	auth := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(auth[len(prefix):])
	return raw, raw != ""
}

// parseBasicAuth extracts Basic auth credentials from request headers
func parseBasicAuth(c *fiber.Ctx) (username, password string, ok bool) {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return "", "", false
	}
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", false
	}
	b, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(b)
	i := strings.IndexByte(creds, ':')
	if i < 0 {
		return "", "", false
	}
	return creds[:i], creds[i+1:], true
}

// requireCapability rejects requests whose actor lacks c.
func requireCapability(c model.Capability) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !actorFrom(ctx).Can(c) {
			return ctx.Status(fiber.StatusForbidden).JSON(
				Outcome{
					Status:  statusError,
					Message: msgUnauthorized,
				},
			)
		}
		return ctx.Next()
	}
}
