package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// SetupLogger applies LOG_LEVEL and opens LOG_FILE for the access log. The
// returned writer must be closed by the caller.
func SetupLogger() (io.WriteCloser, error) {
	log.SetLevel(parseLevel(GetConfig("LOG_LEVEL")))

	path := GetConfig("LOG_FILE")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
