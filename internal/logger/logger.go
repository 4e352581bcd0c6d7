// Package logger sets up the internal and the access logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/brito101/medicaodigitalx/cmd/condoadmin/config"
)

const (
	internalLogFile = "medicaodigitalx.log"
	accessLogFile   = "access.log"
	errorLogFile    = "errors.log"
)

// Init initializes the internal logger from the loaded config
func Init() {
	c := config.Get().Logging.Internal
	log.SetOutput(getOutput(c.Dir, c.StdErr, internalLogFile))
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		log.WithError(err).Fatal("unknown log level")
	}
	log.SetLevel(level)
	if c.Smart.Enabled {
		f, err := openLogFile(c.Smart.Dir, errorLogFile)
		if err != nil {
			log.WithError(err).Fatal("could not open error log")
		}
		log.AddHook(NewErrorHook(f))
	}
}

// AccessWriter returns the writer the access log is written to
func AccessWriter() io.Writer {
	c := config.Get().Logging.Access
	return getOutput(c.Dir, c.StdErr, accessLogFile)
}

// getOutput returns the file in dir, also copied to stderr if requested;
// without a dir it returns stderr
func getOutput(dir string, alsoStderr bool, name string) io.Writer {
	if dir == "" {
		return os.Stderr
	}
	f, err := openLogFile(dir, name)
	if err != nil {
		log.WithError(err).Fatal("could not open log file")
	}
	if alsoStderr {
		return io.MultiWriter(f, os.Stderr)
	}
	return f
}

func openLogFile(dir, name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
}

// ErrorHook duplicates entries of level error and above to a writer.
type ErrorHook struct {
	w         io.Writer
	formatter log.Formatter
}

// NewErrorHook creates an ErrorHook writing to w
func NewErrorHook(w io.Writer) *ErrorHook {
	return &ErrorHook{
		w:         w,
		formatter: &log.JSONFormatter{},
	}
}

// Levels implements the logrus.Hook interface
func (h *ErrorHook) Levels() []log.Level {
	return []log.Level{
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
	}
}

// Fire implements the logrus.Hook interface
func (h *ErrorHook) Fire(e *log.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
