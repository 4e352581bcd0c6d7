package adminapi

import (
	"embed"
	"net"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/brito101/medicaodigitalx/internal/actorcache"
	"github.com/brito101/medicaodigitalx/service"
	"github.com/brito101/medicaodigitalx/storage/model"
)

//go:embed swagger.html openapi.yaml
var assets embed.FS

// Options controls optional features of the admin API registration.
type Options struct {
	// HideNotFound reports missing records with the same 403 response as
	// missing permissions
	HideNotFound bool
	// Port, when > 0, is used to adapt the serverURL to the admin API port for docs.
	Port int
	// TokenSecret is the HS256 key for bearer tokens
	TokenSecret []byte
	// TokenLifetime is the lifetime of issued bearer tokens
	TokenLifetime time.Duration
	// Issuer is the iss claim of issued bearer tokens
	Issuer string
}

// Services groups the service layer the admin API delegates to.
type Services struct {
	Readings  *service.ReadingService
	Schedules *service.ScheduleService
}

type api struct {
	readings  *service.ReadingService
	schedules *service.ScheduleService
	storages  model.Backends
	actors    actorcache.Cache
	tokens    *tokenIssuer
	opts      Options
}

// Register mounts the token endpoint and all admin API routes under the
// provided router. Admin routes live below /admin and require an
// authenticated actor.
func Register(
	r fiber.Router, serverURL string, storages model.Backends, services Services,
	actors actorcache.Cache, opts *Options,
) error {
	if opts == nil {
		opts = &Options{}
	}
	if len(opts.TokenSecret) == 0 {
		return errors.New("adminapi: no token secret configured")
	}
	if actors == nil {
		actors = actorcache.Noop{}
	}
	// If an admin port is provided in options, adapt the serverURL to include/override the port
	if opts.Port > 0 {
		serverURL = adaptServerURLPort(serverURL, opts.Port)
	}

	openapiRaw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "adminapi: failed to read openapi.yaml")
	}
	// Update servers section to point to this instance
	openapiData := updateOpenAPIServers(openapiRaw, serverURL)
	openapiData = ensureAuthSecurity(openapiData)
	swaggerHTML, err := assets.ReadFile("swagger.html")
	if err != nil {
		return errors.Wrap(err, "adminapi: failed to read swagger.html")
	}

	a := &api{
		readings:  services.Readings,
		schedules: services.Schedules,
		storages:  storages,
		actors:    actors,
		tokens:    newTokenIssuer(opts.TokenSecret, opts.TokenLifetime, opts.Issuer),
		opts:      *opts,
	}

	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)
	r.Get(
		"/docs", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
			return c.Send(swaggerHTML)
		},
	)

	r.Post("/auth/token", a.issueToken)

	admin := r.Group("/admin", a.authMiddleware())
	registerReadings(admin, a)
	registerSchedules(admin, a)
	registerReferences(admin, a)
	registerUsers(admin, a)
	registerCapabilities(admin)
	return nil
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if len(serverURL) == 0 {
		return doc
	}
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	full["servers"] = []map[string]any{
		{
			"url":         serverURL,
			"description": "This instance",
		},
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}

// adaptServerURLPort updates or adds the port to the provided serverURL.
// If the input is invalid, it returns the original serverURL.
func adaptServerURLPort(serverURL string, port int) string {
	if len(serverURL) == 0 || port <= 0 {
		return serverURL
	}
	u, err := neturl.Parse(serverURL)
	if err != nil {
		return serverURL
	}
	host := u.Host
	if host == "" {
		return serverURL
	}
	name, _, err := net.SplitHostPort(host)
	if err != nil {
		// no port present, just append
		u.Host = net.JoinHostPort(host, strconv.Itoa(port))
		return u.String()
	}
	u.Host = net.JoinHostPort(name, strconv.Itoa(port))
	return u.String()
}

// ensureAuthSecurity injects the HTTP Basic and Bearer security schemes and a
// global security requirement into the OpenAPI document, if not already
// present.
func ensureAuthSecurity(doc []byte) []byte {
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	components, _ := full["components"].(map[string]any)
	if components == nil {
		components = map[string]any{}
		full["components"] = components
	}
	securitySchemes, _ := components["securitySchemes"].(map[string]any)
	if securitySchemes == nil {
		securitySchemes = map[string]any{}
		components["securitySchemes"] = securitySchemes
	}
	if _, exists := securitySchemes["basicAuth"]; !exists {
		securitySchemes["basicAuth"] = map[string]any{
			"type":   "http",
			"scheme": "basic",
		}
	}
	if _, exists := securitySchemes["bearerAuth"]; !exists {
		securitySchemes["bearerAuth"] = map[string]any{
			"type":         "http",
			"scheme":       "bearer",
			"bearerFormat": "JWT",
		}
	}
	if _, exists := full["security"]; !exists {
		full["security"] = []map[string]any{
			{"basicAuth": []any{}},
			{"bearerAuth": []any{}},
		}
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}
