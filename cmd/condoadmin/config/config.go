package config

import (
	"os"
	"reflect"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/brito101/medicaodigitalx"
)

// Config holds the application configuration
type Config struct {
	Server  medicaodigitalx.ServerConf `yaml:"server"`
	Logging loggingConf                `yaml:"logging"`
	Storage storageConf                `yaml:"storage"`
	Caching cachingConf                `yaml:"caching"`
	API     apiConf                    `yaml:"api"`
	Auth    authConf                   `yaml:"auth"`
	Site    medicaodigitalx.SiteConf   `yaml:"site"`
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

var possibleConfigLocations = []string{
	"config.yaml",
	"/config",
	"/medicaodigitalx/config",
	"/etc/medicaodigitalx",
}

type configValidator interface {
	validate() error
}

func defaultConfig() *Config {
	return &Config{
		Server:  defaultServerConf,
		Logging: defaultLoggingConf,
		Storage: defaultStorageConf,
		Caching: defaultCachingConf,
		API:     defaultAPIConf,
		Auth:    defaultAuthConf,
	}
}

func (c *Config) validate() error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fieldVal := v.Field(i)
		if !fieldVal.CanAddr() {
			continue
		}
		if validator, ok := fieldVal.Addr().Interface().(configValidator); ok {
			if err := validator.validate(); err != nil {
				return errors.Errorf("validation failed for '%s': %s", t.Field(i).Tag.Get("yaml"), err.Error())
			}
		}
	}
	return nil
}

// Parse decodes and validates a yaml config on top of the defaults
func Parse(data []byte) (*Config, error) {
	c := defaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func findConfigFile(filename string) (string, error) {
	if filename != "" {
		if !fileutils.FileExists(filename) {
			return "", errors.Errorf("config file '%s' does not exist", filename)
		}
		return filename, nil
	}
	for _, l := range possibleConfigLocations {
		for _, f := range []string{l, l + "/config.yaml"} {
			if fileutils.FileExists(f) {
				if info, err := os.Stat(f); err == nil && !info.IsDir() {
					return f, nil
				}
			}
		}
	}
	return "", errors.New("could not find config file in any of the possible locations")
}

// Load loads the config from filename, or from the first of the default
// locations if filename is empty, and sets it as the current Config
func Load(filename string) {
	if err := load(filename); err != nil {
		log.WithError(err).Fatal("could not load config")
	}
}

func load(filename string) error {
	f, err := findConfigFile(filename)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(f)
	if err != nil {
		return errors.WithStack(err)
	}
	c, err := Parse(data)
	if err != nil {
		return err
	}
	conf = c
	return nil
}
