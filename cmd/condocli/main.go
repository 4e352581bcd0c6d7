package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brito101/medicaodigitalx/cmd/condoadmin/config"
	"github.com/brito101/medicaodigitalx/internal/actorcache"
	"github.com/brito101/medicaodigitalx/storage/model"
)

// cli holds the state shared by all commands
type cli struct {
	configFile string
	backends   model.Backends
	actors     actorcache.Cache
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "condocli",
		Short:         "condocli can help you manage your medicaodigitalx instance",
		Long:          "condocli manages users, their capabilities and the reference data of a medicaodigitalx instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "config.yaml", "the config file to use")
	root.AddCommand(
		usersCmd(c),
		grantCmd(c),
		revokeCmd(c),
		capabilitiesCmd(),
		complexesCmd(c),
		dealershipsCmd(c),
	)
	return root
}

// load reads the config and opens storage and actor cache, unless they were
// set up already
func (c *cli) load() error {
	if c.backends.Users != nil {
		return nil
	}
	config.Load(c.configFile)
	conf := config.Get()
	backs, err := config.LoadStorageBackends(conf.Storage)
	if err != nil {
		return err
	}
	c.backends = backs
	c.actors = actorcache.Noop{}
	if conf.Caching.Enabled() {
		redisCache, err := actorcache.NewRedisCache(
			context.Background(), &redis.Options{
				Addr:     conf.Caching.RedisAddr,
				Username: conf.Caching.Username,
				Password: conf.Caching.Password,
				DB:       conf.Caching.RedisDB,
			}, conf.Caching.MaxLifetime.Duration(),
		)
		if err != nil {
			log.WithError(err).Warn("actor cache unavailable; cached permissions expire on their own")
			return nil
		}
		c.actors = redisCache
	}
	return nil
}

// forget drops the cached actor so that permission changes apply at once
func (c *cli) forget(username string) {
	if c.actors == nil {
		return
	}
	if err := c.actors.Delete(context.Background(), username); err != nil {
		log.WithError(err).WithField("username", username).Warn("could not invalidate cached actor")
	}
}

func parseCapabilities(args []string) ([]model.Capability, error) {
	caps := make([]model.Capability, len(args))
	for i, a := range args {
		cp, err := model.ParseCapability(a)
		if err != nil {
			return nil, errors.Wrap(err, "see 'condocli capabilities' for valid values")
		}
		caps[i] = cp
	}
	return caps, nil
}

func main() {
	if err := newRootCmd(&cli{}).Execute(); err != nil {
		log.Fatal(err)
	}
}
