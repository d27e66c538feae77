package common

import (
	"io"

	"github.com/basilisk-nexus/eventnexus/log"
)

// CloseOrLog closes c and logs, rather than returns, any error.
func CloseOrLog(c io.Closer, logger *log.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close", "err", err)
	}
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
