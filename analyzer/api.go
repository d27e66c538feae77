// Package analyzer defines the long-running workers of eventnexus.
package analyzer

import (
	"context"
	"errors"
)

// ErrHalted is returned when a worker stops on an event it could not
// process under the halt error policy.
var ErrHalted = errors.New("analysis halted")

// Analyzer is a worker that processes a range of blocks.
type Analyzer interface {
	// Start runs the analyzer until its range is done or ctx is canceled.
	Start(ctx context.Context)

	// Name returns the name of the analyzer.
	Name() string
}
