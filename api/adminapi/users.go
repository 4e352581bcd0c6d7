package adminapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// errorResponse is the error body of the user management routes.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func errorInvalidRequest(description string) errorResponse {
	return errorResponse{
		Error:            "invalid_request",
		ErrorDescription: description,
	}
}

func errorNotFound(description string) errorResponse {
	return errorResponse{
		Error:            "not_found",
		ErrorDescription: description,
	}
}

func errorServerError(description string) errorResponse {
	return errorResponse{
		Error:            "server_error",
		ErrorDescription: description,
	}
}

// registerUsers wires the user management handlers; all of them require
// the users.manage capability.
func registerUsers(r fiber.Router, a *api) {
	users := a.storages.Users
	g := r.Group("/users", requireCapability(model.CapUsersManage))

	g.Get(
		"/", func(c *fiber.Ctx) error {
			list, err := users.List()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(errorServerError(err.Error()))
			}
			return c.JSON(list)
		},
	)

	type createReq struct {
		Username    string             `json:"username"`
		Password    string             `json:"password"`
		DisplayName string             `json:"display_name"`
		Email       string             `json:"email"`
		Permissions []model.Capability `json:"permissions"`
	}
	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req createReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(errorInvalidRequest("invalid body"))
			}
			req.Username = strings.TrimSpace(req.Username)
			if req.Username == "" || req.Password == "" {
				return c.Status(fiber.StatusBadRequest).JSON(errorInvalidRequest("username and password are required"))
			}
			u, err := users.Create(req.Username, req.Password, req.DisplayName, req.Email)
			if err != nil {
				var exists model.AlreadyExistsError
				if errors.As(err, &exists) {
					return c.Status(fiber.StatusConflict).JSON(errorInvalidRequest("user already exists"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(errorServerError(err.Error()))
			}
			if len(req.Permissions) > 0 {
				if u, err = users.SetPermissions(u.Username, req.Permissions); err != nil {
					return c.Status(fiber.StatusInternalServerError).JSON(errorServerError(err.Error()))
				}
			}
			log.WithFields(
				log.Fields{
					"actor":    actorFrom(c).Username,
					"username": u.Username,
				},
			).Info("created user")
			return c.Status(fiber.StatusCreated).JSON(u)
		},
	)

	g.Get(
		"/:username", func(c *fiber.Ctx) error {
			u, err := users.Get(c.Params("username"))
			if err != nil {
				return userError(c, err)
			}
			return c.JSON(u)
		},
	)

	invalidate := actorCacheInvalidationMiddleware(a.actors)

	type updateReq struct {
		DisplayName *string `json:"display_name"`
		Email       *string `json:"email"`
		Password    *string `json:"password"`
		Disabled    *bool   `json:"disabled"`
	}
	g.Put(
		"/:username", invalidate, func(c *fiber.Ctx) error {
			var req updateReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(errorInvalidRequest("invalid body"))
			}
			u, err := users.Update(
				c.Params("username"), model.UserUpdate{
					DisplayName: req.DisplayName,
					Email:       req.Email,
					Password:    req.Password,
					Disabled:    req.Disabled,
				},
			)
			if err != nil {
				return userError(c, err)
			}
			return c.JSON(u)
		},
	)

	type permissionsReq struct {
		Capabilities []string `json:"capabilities"`
	}
	g.Put(
		"/:username/permissions", invalidate, func(c *fiber.Ctx) error {
			var req permissionsReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(errorInvalidRequest("invalid body"))
			}
			known := make([]string, 0)
			for _, cp := range model.AllCapabilities() {
				known = append(known, string(cp))
			}
			if unknown := slices.Subtract(req.Capabilities, known); len(unknown) > 0 {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(
					errorInvalidRequest("unknown capabilities: " + strings.Join(unknown, ", ")),
				)
			}
			caps := make([]model.Capability, len(req.Capabilities))
			for i, s := range req.Capabilities {
				caps[i] = model.Capability(s)
			}
			u, err := users.SetPermissions(c.Params("username"), caps)
			if err != nil {
				return userError(c, err)
			}
			log.WithFields(
				log.Fields{
					"actor":        actorFrom(c).Username,
					"username":     u.Username,
					"capabilities": req.Capabilities,
				},
			).Info("replaced user permissions")
			return c.JSON(u)
		},
	)

	g.Delete(
		"/:username", invalidate, func(c *fiber.Ctx) error {
			if err := users.Delete(c.Params("username")); err != nil {
				return userError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}

func userError(c *fiber.Ctx, err error) error {
	var notFound model.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(errorNotFound("user not found"))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(errorServerError(err.Error()))
}
