// Package normalizer folds every schema version of an event kind into one
// canonical record.
//
// The dispatch table lists, for each kind, every version tag the catalog
// knows. A nil arm marks a version that decodes fine but is deliberately not
// mapped; normalizing it yields a NotImplementedError and never a record.
package normalizer

import (
	"fmt"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/resolver"
)

// arm maps the decoded value of one schema version to a record. It must not
// do I/O.
type arm func(f *fields) (Record, error)

type arms map[string]arm

type Options struct {
	// Addresses renders accounts in records. The zero value renders SS58
	// with prefix 0.
	Addresses common.AddressCodec
}

// Normalizer is safe for concurrent use.
type Normalizer struct {
	dispatch map[common.EventKind]arms
	opts     Options
}

// New checks that the dispatch table covers exactly the versions in c.
func New(c *catalog.Catalog, opts Options) (*Normalizer, error) {
	if err := checkCoverage(c, dispatch); err != nil {
		return nil, err
	}
	return &Normalizer{dispatch: dispatch, opts: opts}, nil
}

func checkCoverage(c *catalog.Catalog, table map[common.EventKind]arms) error {
	kinds := c.Kinds()
	for _, kind := range kinds {
		byTag, ok := table[kind]
		if !ok {
			return fmt.Errorf("normalizer: no arms for %s", kind)
		}
		versions, err := c.Versions(kind)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(versions))
		for _, v := range versions {
			known[v.Tag] = true
			if _, ok := byTag[v.Tag]; !ok {
				return fmt.Errorf("normalizer: no arm for %s", v)
			}
		}
		for tag := range byTag {
			if !known[tag] {
				return fmt.Errorf("normalizer: arm for %s@%s has no catalog version", kind, tag)
			}
		}
	}
	if len(table) != len(kinds) {
		for kind := range table {
			if _, err := c.Versions(kind); err != nil {
				return fmt.Errorf("normalizer: arms for %s: %w", kind, err)
			}
		}
	}
	return nil
}

// Normalize maps a decoded event to its canonical record.
func (n *Normalizer) Normalize(d *resolver.DecodedEvent) (Record, error) {
	byTag, ok := n.dispatch[d.Kind()]
	if !ok {
		return nil, &catalog.UnknownEventKindError{Kind: d.Kind()}
	}
	fn, ok := byTag[d.Tag()]
	if !ok {
		return nil, &catalog.UnknownSchemaVersionError{Kind: d.Kind(), Tag: d.Tag()}
	}
	if fn == nil {
		return nil, &NotImplementedError{Kind: d.Kind(), Version: d.Tag()}
	}
	rec, err := fn(newFields(n.opts.Addresses, d.Value()))
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", d.Version(), err)
	}
	return rec, nil
}

// Mapped reports whether kind@tag has a mapping to a record.
func (n *Normalizer) Mapped(kind common.EventKind, tag string) bool {
	return n.dispatch[kind][tag] != nil
}
