package utils

import (
	"io"

	"github.com/MrSnakeDoc/readbot/internal/logger"
)

// Close closes c and ignores any error.
// Use for response bodies and other best-effort cleanup in defer.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and reports a failure on log under name.
func CloseLogged(c io.Closer, log logger.Logger, name string) bool {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", name), logger.Error(err))
		return false
	}
	return true
}
