package normalizer

import (
	"errors"
	"fmt"

	"github.com/basilisk-nexus/eventnexus/common"
)

// ErrNotImplemented is returned for schema versions that decode but have no
// mapping to a canonical record.
var ErrNotImplemented = errors.New("normalizer: version not implemented")

type NotImplementedError struct {
	Kind    common.EventKind
	Version string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("normalizer: %s version %s not implemented", e.Kind, e.Version)
}

func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}
