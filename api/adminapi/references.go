package adminapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx/service"
	"github.com/brito101/medicaodigitalx/storage/model"
)

func registerReferences(r fiber.Router, a *api) {
	complexes := r.Group("/complexes", requireCapability(model.CapSettingsManage))
	complexes.Get(
		"/", func(c *fiber.Ctx) error {
			list, err := a.storages.Complexes.List(c.UserContext())
			if err != nil {
				return a.failure(c, service.PersistenceError{Op: "list complexes", Err: err}, msgLoadFailed, "", nil)
			}
			return c.JSON(list)
		},
	)
	complexes.Post(
		"/", func(c *fiber.Ctx) error {
			var req model.AddComplex
			if err := c.BodyParser(&req); err != nil {
				return badBody(c)
			}
			req.AliasName = strings.TrimSpace(req.AliasName)
			if req.AliasName == "" {
				return a.failure(
					c, service.InvalidInputError{Fields: map[string]string{"alias_name": "must not be empty"}},
					msgCreateFailed, "/admin/complexes", req,
				)
			}
			cx, err := a.storages.Complexes.Create(c.UserContext(), req)
			if err != nil {
				return a.failure(c, service.PersistenceError{Op: "create complex", Err: err}, msgCreateFailed, "/admin/complexes", req)
			}
			log.WithFields(
				log.Fields{
					"actor": actorFrom(c).Username,
					"id":    cx.ID,
				},
			).Info("created complex")
			return success(c, fiber.StatusCreated, msgCreated, "/admin/complexes", cx)
		},
	)

	dealerships := r.Group("/dealerships", requireCapability(model.CapSettingsManage))
	dealerships.Get(
		"/", func(c *fiber.Ctx) error {
			var (
				list []model.Dealership
				err  error
			)
			if svc := c.Query("service"); svc != "" {
				list, err = a.storages.Dealerships.ListByService(c.UserContext(), svc)
			} else {
				list, err = a.storages.Dealerships.List(c.UserContext())
			}
			if err != nil {
				return a.failure(c, service.PersistenceError{Op: "list dealerships", Err: err}, msgLoadFailed, "", nil)
			}
			return c.JSON(list)
		},
	)
	dealerships.Post(
		"/", func(c *fiber.Ctx) error {
			var req model.AddDealership
			if err := c.BodyParser(&req); err != nil {
				return badBody(c)
			}
			req.Name = strings.TrimSpace(req.Name)
			req.Service = strings.TrimSpace(req.Service)
			fields := map[string]string{}
			if req.Name == "" {
				fields["name"] = "must not be empty"
			}
			if req.Service == "" {
				fields["service"] = "must not be empty"
			}
			if len(fields) > 0 {
				return a.failure(c, service.InvalidInputError{Fields: fields}, msgCreateFailed, "/admin/dealerships", req)
			}
			dealership, err := a.storages.Dealerships.Create(c.UserContext(), req)
			if err != nil {
				return a.failure(
					c, service.PersistenceError{Op: "create dealership", Err: err}, msgCreateFailed, "/admin/dealerships",
					req,
				)
			}
			log.WithFields(
				log.Fields{
					"actor": actorFrom(c).Username,
					"id":    dealership.ID,
				},
			).Info("created dealership")
			return success(c, fiber.StatusCreated, msgCreated, "/admin/dealerships", dealership)
		},
	)
}

func registerCapabilities(r fiber.Router) {
	r.Get(
		"/capabilities", func(c *fiber.Ctx) error {
			return c.JSON(model.CapabilityInfos())
		},
	)
}
