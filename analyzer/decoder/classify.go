package decoder

import (
	"errors"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/codec/scale"
	"github.com/basilisk-nexus/eventnexus/normalizer"
	"github.com/basilisk-nexus/eventnexus/schema"
)

// Failure classes, used as metric labels and in quarantine rows.
const (
	ClassUnknownEventKind     = "unknown_event_kind"
	ClassUnknownSchemaVersion = "unknown_schema_version"
	ClassTruncated            = "truncated"
	ClassTrailingBytes        = "trailing_bytes"
	ClassMalformed            = "malformed"
	ClassShapeMismatch        = "shape_mismatch"
	ClassNotImplemented       = "not_implemented"
	ClassOther                = "other"
)

// Classify maps a resolve, decode or normalize error to its failure class.
func Classify(err error) string {
	switch {
	case errors.Is(err, catalog.ErrUnknownEventKind):
		return ClassUnknownEventKind
	case errors.Is(err, catalog.ErrUnknownSchemaVersion):
		return ClassUnknownSchemaVersion
	case errors.Is(err, scale.ErrTruncated):
		return ClassTruncated
	case errors.Is(err, schema.ErrTrailingBytes):
		return ClassTrailingBytes
	case errors.Is(err, scale.ErrNonCanonical),
		errors.Is(err, scale.ErrOverflow),
		errors.Is(err, scale.ErrInvalidBool),
		errors.Is(err, scale.ErrInvalidOption),
		errors.Is(err, schema.ErrUnknownVariant):
		return ClassMalformed
	case errors.Is(err, schema.ErrShapeMismatch):
		return ClassShapeMismatch
	case errors.Is(err, normalizer.ErrNotImplemented):
		return ClassNotImplemented
	default:
		return ClassOther
	}
}

// corrupt reports classes that mean the payload does not match the layout
// it was resolved to. These are logged loudly whatever the policy.
func corrupt(class string) bool {
	switch class {
	case ClassTruncated, ClassTrailingBytes, ClassMalformed:
		return true
	default:
		return false
	}
}
