package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx"
	"github.com/brito101/medicaodigitalx/api/adminapi"
	"github.com/brito101/medicaodigitalx/cmd/condoadmin/config"
	"github.com/brito101/medicaodigitalx/internal/actorcache"
	"github.com/brito101/medicaodigitalx/internal/logger"
	"github.com/brito101/medicaodigitalx/internal/version"
	"github.com/brito101/medicaodigitalx/service"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	logger.Init()
	log.WithField("version", version.VERSION).Info("Loaded Config")
	c := config.Get()

	var actors actorcache.Cache = actorcache.Noop{}
	if c.Caching.Enabled() {
		redisCache, err := actorcache.NewRedisCache(
			context.Background(), &redis.Options{
				Addr:     c.Caching.RedisAddr,
				Username: c.Caching.Username,
				Password: c.Caching.Password,
				DB:       c.Caching.RedisDB,
			}, c.Caching.MaxLifetime.Duration(),
		)
		if err != nil {
			log.WithError(err).Fatal("could not init redis cache")
		}
		defer redisCache.Close()
		actors = redisCache
		log.Info("Loaded Redis Cache")
	}

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}
	if n, err := backs.Users.Count(); err != nil {
		log.Fatal(err)
	} else if n == 0 {
		log.Warn("there are no users yet; create one with condocli users create")
	}

	svcOpts := service.Options{
		Cascade: c.API.Admin.Cascade,
		Batch:   c.API.Admin.Batch,
	}
	server, err := medicaodigitalx.NewServer(
		medicaodigitalx.Params{
			Server:   c.Server,
			Site:     c.Site,
			Storages: backs,
			Services: adminapi.Services{
				Readings:  service.NewReadingService(backs, svcOpts),
				Schedules: service.NewScheduleService(backs, svcOpts),
			},
			Actors: actors,
			AdminAPI: &adminapi.Options{
				HideNotFound:  c.API.Admin.HideNotFound,
				Port:          c.API.Admin.Port,
				TokenSecret:   c.Auth.Secret(),
				TokenLifetime: c.Auth.TokenLifetime.Duration(),
				Issuer:        c.Auth.Issuer,
			},
			AccessLog: logger.AccessWriter(),
		},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Initialized Server")
	server.Start()
}
