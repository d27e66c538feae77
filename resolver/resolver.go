// Package resolver matches raw events to the schema version they were
// encoded with and decodes them.
package resolver

import (
	"errors"
	"fmt"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/schema"
)

type Options struct {
	// AllowTrailingBytes accepts payloads that are longer than their
	// layout. The unconsumed byte count is kept on the DecodedEvent.
	AllowTrailingBytes bool
}

// Resolver is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	opts    Options
}

func New(c *catalog.Catalog, opts Options) *Resolver {
	return &Resolver{catalog: c, opts: opts}
}

// Catalog is the catalog versions are resolved against.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Resolve picks the version of kind whose fingerprint equals fp. Versions are
// scanned oldest first and the first exact match wins.
func (r *Resolver) Resolve(kind common.EventKind, fp common.Fingerprint) (catalog.SchemaVersion, error) {
	return r.catalog.Lookup(kind, fp)
}

// Decode resolves ev's schema version and decodes its payload with it.
func (r *Resolver) Decode(ev *common.RawEvent) (*DecodedEvent, error) {
	version, err := r.Resolve(ev.Kind(), ev.Fingerprint)
	if err != nil {
		return nil, err
	}
	return r.DecodeAs(ev, version)
}

// DecodeAs decodes ev's payload with a version already resolved for it.
func (r *Resolver) DecodeAs(ev *common.RawEvent, version catalog.SchemaVersion) (*DecodedEvent, error) {
	if version.Kind != ev.Kind() || version.Fingerprint != ev.Fingerprint {
		return nil, fmt.Errorf("%s does not match event %s with fingerprint %s", version, ev.Kind(), ev.Fingerprint)
	}
	value, err := schema.DecodePayload(version.Layout, ev.Payload)
	var trailing *schema.TrailingBytesError
	switch {
	case err == nil:
	case errors.As(err, &trailing) && r.opts.AllowTrailingBytes:
	default:
		return nil, fmt.Errorf("%s: %w", version, err)
	}

	d := &DecodedEvent{
		raw:     *ev,
		version: version,
		value:   value,
	}
	if trailing != nil {
		d.trailing = trailing.Remaining
	}
	return d, nil
}

// DecodedEvent is a payload decoded under a known schema version. Only the
// resolver creates one, so the value always matches the version's layout.
type DecodedEvent struct {
	raw      common.RawEvent
	version  catalog.SchemaVersion
	value    schema.Value
	trailing int
}

func (d *DecodedEvent) Raw() *common.RawEvent {
	raw := d.raw
	return &raw
}

func (d *DecodedEvent) Kind() common.EventKind {
	return d.version.Kind
}

func (d *DecodedEvent) Version() catalog.SchemaVersion {
	return d.version
}

// Tag is the version tag, e.g. "V55".
func (d *DecodedEvent) Tag() string {
	return d.version.Tag
}

func (d *DecodedEvent) Value() schema.Value {
	return d.value
}

// TrailingBytes is the number of payload bytes the layout did not consume.
// It is non-zero only when the resolver allows trailing bytes.
func (d *DecodedEvent) TrailingBytes() int {
	return d.trailing
}
