package adminapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx/internal/actorcache"
)

// actorCacheInvalidationMiddleware clears the cached actor of the user named
// by the :username parameter for requests that successfully modify it.
// It should be attached only to non-GET routes.
func actorCacheInvalidationMiddleware(actors actorcache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		status := c.Response().StatusCode()
		if status >= 200 && status < 400 {
			if username := c.Params("username"); username != "" {
				if err := actors.Delete(c.UserContext(), username); err != nil {
					log.WithError(err).WithField("username", username).Warn("could not invalidate cached actor")
				}
			}
		}
		return nil
	}
}
