package medicaodigitalx

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx/api/adminapi"
	"github.com/brito101/medicaodigitalx/internal/actorcache"
	"github.com/brito101/medicaodigitalx/internal/version"
	"github.com/brito101/medicaodigitalx/storage/model"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
	AppName:        "medicaodigitalx " + version.VERSION,
}

// Server serves the admin API and the site pages.
type Server struct {
	server     *fiber.App
	serverConf ServerConf
}

// Params holds everything NewServer wires together
type Params struct {
	Server    ServerConf
	Site      SiteConf
	Storages  model.Backends
	Services  adminapi.Services
	Actors    actorcache.Cache
	AdminAPI  *adminapi.Options
	AccessLog io.Writer
}

// NewServer creates a new Server
func NewServer(p Params) (*Server, error) {
	fiberConf := FiberServerConfig
	if tps := p.Server.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = tps
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = p.Server.ForwardedIPHeader
	server := fiber.New(fiberConf)
	server.Use(recover.New())
	server.Use(compress.New())
	loggerConf := logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}
	if p.AccessLog != nil {
		loggerConf.Output = p.AccessLog
	}
	server.Use(
		requestid.New(
			requestid.Config{
				Generator: uuid.NewString,
			},
		),
	)
	server.Use(logger.New(loggerConf))

	NewPages(p.Storages.KV, p.Site).register(server)

	serverURL := p.Site.AppURL
	if serverURL == "" {
		serverURL = fmt.Sprintf("http://localhost:%d", p.Server.Port)
	}
	if err := adminapi.Register(server, serverURL, p.Storages, p.Services, p.Actors, p.AdminAPI); err != nil {
		return nil, err
	}
	return &Server{
		server:     server,
		serverConf: p.Server,
	}, nil
}

// App returns the underlying fiber.App
func (s Server) App() *fiber.App {
	return s.server
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (s Server) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(s.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (s Server) Listen(addr string) error {
	return s.server.Listen(addr)
}

// Start starts the server as configured and blocks
func (s Server) Start() {
	conf := s.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(s.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(s.server.ListenTLS(fmt.Sprintf("%s:443", conf.IPListen), conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
