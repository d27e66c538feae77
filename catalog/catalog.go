// Package catalog is the registry of historical event wire layouts.
//
// Each logical event kind owns a bucket of schema versions, ordered by the
// runtime release that introduced them. A version is identified on the wire
// by its fingerprint and in code by its tag ("V16", "V55", ...).
//
// A Catalog is built once with a Builder and never changes afterwards, so
// it can be shared between goroutines without locking.
package catalog

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/schema"
)

// SchemaVersion is one historical wire layout of an event kind.
type SchemaVersion struct {
	Kind        common.EventKind
	Tag         string
	Fingerprint common.Fingerprint
	Layout      *schema.Type
}

// Ordinal is the runtime release number encoded in the tag.
func (v SchemaVersion) Ordinal() int {
	n, _ := ParseTag(v.Tag)
	return n
}

func (v SchemaVersion) String() string {
	return v.Kind.String() + "@" + v.Tag
}

// ParseTag returns the release number of a tag such as "V55".
func ParseTag(tag string) (int, error) {
	if len(tag) < 2 || tag[0] != 'V' || tag[1] == '0' {
		return 0, fmt.Errorf("malformed version tag %q, want V<release>", tag)
	}
	n, err := strconv.Atoi(tag[1:])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("malformed version tag %q, want V<release>", tag)
	}
	return n, nil
}

// Catalog maps event kinds to their ordered schema versions.
type Catalog struct {
	buckets map[common.EventKind][]SchemaVersion
	kinds   []common.EventKind
}

// Versions returns the bucket of kind, oldest first. The returned slice is
// a copy.
func (c *Catalog) Versions(kind common.EventKind) ([]SchemaVersion, error) {
	bucket, ok := c.buckets[kind]
	if !ok {
		return nil, &UnknownEventKindError{Kind: kind}
	}
	return append([]SchemaVersion(nil), bucket...), nil
}

// Version looks a version up by tag.
func (c *Catalog) Version(kind common.EventKind, tag string) (SchemaVersion, error) {
	bucket, ok := c.buckets[kind]
	if !ok {
		return SchemaVersion{}, &UnknownEventKindError{Kind: kind}
	}
	for _, v := range bucket {
		if v.Tag == tag {
			return v, nil
		}
	}
	return SchemaVersion{}, &UnknownSchemaVersionError{Kind: kind, Tag: tag}
}

// Lookup returns the first version of kind, in registration order, whose
// fingerprint equals fp.
func (c *Catalog) Lookup(kind common.EventKind, fp common.Fingerprint) (SchemaVersion, error) {
	bucket, ok := c.buckets[kind]
	if !ok {
		return SchemaVersion{}, &UnknownEventKindError{Kind: kind}
	}
	for _, v := range bucket {
		if v.Fingerprint == fp {
			return v, nil
		}
	}
	return SchemaVersion{}, &UnknownSchemaVersionError{Kind: kind, Fingerprint: fp}
}

// Kinds lists every event kind, sorted by pallet then event name.
func (c *Catalog) Kinds() []common.EventKind {
	return append([]common.EventKind(nil), c.kinds...)
}

// Len is the total number of registered versions.
func (c *Catalog) Len() int {
	n := 0
	for _, b := range c.buckets {
		n += len(b)
	}
	return n
}

// Builder accumulates versions for a Catalog.
type Builder struct {
	entries []SchemaVersion
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Register appends a version to the bucket of kind. Versions of one kind
// must be registered oldest first.
func (b *Builder) Register(kind common.EventKind, tag string, fp common.Fingerprint, layout *schema.Type) *Builder {
	b.entries = append(b.entries, SchemaVersion{Kind: kind, Tag: tag, Fingerprint: fp, Layout: layout})
	return b
}

// Build validates the registered versions and freezes them into a Catalog.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{buckets: make(map[common.EventKind][]SchemaVersion)}
	for _, v := range b.entries {
		if v.Kind.Pallet == "" || v.Kind.Name == "" {
			return nil, fmt.Errorf("catalog: version %s has an empty kind", v.Tag)
		}
		ord, err := ParseTag(v.Tag)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", v.Kind, err)
		}
		if v.Layout == nil {
			return nil, fmt.Errorf("catalog: %s has no layout", v)
		}
		if err := v.Layout.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", v, err)
		}
		bucket := c.buckets[v.Kind]
		if n := len(bucket); n > 0 && bucket[n-1].Ordinal() >= ord {
			return nil, fmt.Errorf("catalog: %s registered after %s", v, bucket[n-1].Tag)
		}
		for _, prev := range bucket {
			if prev.Fingerprint == v.Fingerprint {
				return nil, fmt.Errorf("catalog: %s and %s share fingerprint %s", prev, v.Tag, v.Fingerprint)
			}
		}
		if len(bucket) == 0 {
			c.kinds = append(c.kinds, v.Kind)
		}
		c.buckets[v.Kind] = append(bucket, v)
	}
	sort.Slice(c.kinds, func(i, j int) bool {
		return c.kinds[i].String() < c.kinds[j].String()
	})
	return c, nil
}
