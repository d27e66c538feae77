// Package metafile reads the live runtime's event fingerprints from a YAML
// file, typically exported from chain metadata after a runtime upgrade.
//
//	spec_version: 115
//	events:
//	  LBP:
//	    PoolUpdated: "0x6f1c..."
//	  Tokens:
//	    Transfer: "0x2b0e..."
package metafile

import (
	"context"
	"fmt"
	"sort"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/common"
)

// Fingerprints is a catalog.FingerprintSource backed by a metadata export.
type Fingerprints struct {
	// SpecVersion is the runtime version the export was taken at, if given.
	SpecVersion uint32

	byKind map[common.EventKind]common.Fingerprint
}

var _ catalog.FingerprintSource = (*Fingerprints)(nil)

// Load reads the fingerprints file at path.
func Load(path string) (*Fingerprints, error) {
	fps, err := load(file.Provider(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fps, nil
}

func load(p koanf.Provider) (*Fingerprints, error) {
	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	fps := &Fingerprints{
		SpecVersion: uint32(k.Int64("spec_version")),
		byKind:      make(map[common.EventKind]common.Fingerprint),
	}
	for _, pallet := range k.MapKeys("events") {
		for name, raw := range k.StringMap("events." + pallet) {
			kind := common.EventKind{Pallet: pallet, Name: name}
			fp, err := common.ParseFingerprint(raw)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", kind, err)
			}
			fps.byKind[kind] = fp
		}
	}
	if len(fps.byKind) == 0 {
		return nil, fmt.Errorf("no event fingerprints")
	}
	return fps, nil
}

// FingerprintOf implements catalog.FingerprintSource. Kinds absent from the
// file yield catalog.ErrNoFingerprint.
func (f *Fingerprints) FingerprintOf(ctx context.Context, kind common.EventKind) (common.Fingerprint, error) {
	fp, ok := f.byKind[kind]
	if !ok {
		return common.Fingerprint{}, fmt.Errorf("%s: %w", kind, catalog.ErrNoFingerprint)
	}
	return fp, nil
}

// Kinds lists the kinds in the file, sorted.
func (f *Fingerprints) Kinds() []common.EventKind {
	kinds := make([]common.EventKind, 0, len(f.byKind))
	for kind := range f.byKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].String() < kinds[j].String()
	})
	return kinds
}

// Unknown lists the kinds in the file that c has no bucket for.
func (f *Fingerprints) Unknown(c *catalog.Catalog) []common.EventKind {
	var out []common.EventKind
	for _, kind := range f.Kinds() {
		if _, err := c.Versions(kind); err != nil {
			out = append(out, kind)
		}
	}
	return out
}
