package config

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/medicaodigitalx
//	    stderr: false
//	  internal:
//	    dir: /var/log/medicaodigitalx
//	    stderr: false
//	    level: INFO
//	    format: text
//	    smart:
//	      enabled: false
//	      dir: /var/log/medicaodigitalx/smart
type loggingConf struct {
	Access   LoggerConf         `yaml:"access"`
	Internal internalLoggerConf `yaml:"internal"`
}

// internalLoggerConf configures application-internal logging.
// When Smart logging is enabled, errors are duplicated to a dedicated directory.
type internalLoggerConf struct {
	LoggerConf `yaml:",inline"`
	Level      string `yaml:"level"`
	// Format is either text or json
	Format string          `yaml:"format"`
	Smart  smartLoggerConf `yaml:"smart"`
}

// LoggerConf holds configuration related to logging
type LoggerConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// smartLoggerConf enables and configures 'smart' logging.
// If Enabled, error logs are also written to `Dir`. If `Dir` is empty, it
// falls back to the internal logger's `Dir`.
type smartLoggerConf struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (c *loggingConf) validate() error {
	if err := checkLoggingDirExists(c.Access.Dir); err != nil {
		return err
	}
	if err := checkLoggingDirExists(c.Internal.Dir); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Internal.Level); err != nil {
		return errors.Wrap(err, "internal")
	}
	switch strings.ToLower(c.Internal.Format) {
	case "", "text", "json":
	default:
		return errors.Errorf("unknown log format '%s'", c.Internal.Format)
	}
	if c.Internal.Smart.Enabled {
		if c.Internal.Smart.Dir == "" {
			c.Internal.Smart.Dir = c.Internal.Dir
		}
		if c.Internal.Smart.Dir == "" {
			return errors.New("smart logging needs a directory")
		}
		if err := checkLoggingDirExists(c.Internal.Smart.Dir); err != nil {
			return err
		}
	}
	return nil
}

var defaultLoggingConf = loggingConf{
	Internal: internalLoggerConf{
		Level:  "INFO",
		Format: "text",
	},
}
