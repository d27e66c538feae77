package catalog

import (
	"errors"
	"fmt"

	"github.com/basilisk-nexus/eventnexus/common"
)

var (
	// ErrUnknownEventKind is returned when no bucket exists for a (pallet, event) pair.
	ErrUnknownEventKind = errors.New("catalog: unknown event kind")
	// ErrUnknownSchemaVersion is returned when no version of a known kind
	// has the requested fingerprint or tag.
	ErrUnknownSchemaVersion = errors.New("catalog: unknown schema version")
)

type UnknownEventKindError struct {
	Kind common.EventKind
}

func (e *UnknownEventKindError) Error() string {
	return fmt.Sprintf("catalog: unknown event kind %s", e.Kind)
}

func (e *UnknownEventKindError) Is(target error) bool {
	return target == ErrUnknownEventKind
}

type UnknownSchemaVersionError struct {
	Kind        common.EventKind
	Fingerprint common.Fingerprint
	// Tag is set instead of Fingerprint on lookups by tag.
	Tag string
}

func (e *UnknownSchemaVersionError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("catalog: %s has no version %s", e.Kind, e.Tag)
	}
	return fmt.Sprintf("catalog: %s has no version with fingerprint %s", e.Kind, e.Fingerprint)
}

func (e *UnknownSchemaVersionError) Is(target error) bool {
	return target == ErrUnknownSchemaVersion
}
