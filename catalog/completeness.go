package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/basilisk-nexus/eventnexus/common"
)

// ErrNoFingerprint is returned by a FingerprintSource that does not know a kind.
var ErrNoFingerprint = errors.New("catalog: no current fingerprint")

// FingerprintSource reports the fingerprint the live runtime currently uses
// for an event kind, e.g. from chain metadata.
type FingerprintSource interface {
	FingerprintOf(ctx context.Context, kind common.EventKind) (common.Fingerprint, error)
}

// Coverage is how the catalog relates to the live runtime for one kind.
type Coverage string

const (
	// Covered means the current fingerprint matches a registered version.
	Covered Coverage = "covered"
	// Missing means the runtime uses a layout the catalog lacks; events of
	// this kind will fail to resolve.
	Missing Coverage = "missing"
	// Retired means the runtime no longer emits the kind.
	Retired Coverage = "retired"
)

type KindStatus struct {
	Kind     common.EventKind
	Coverage Coverage
	// Current is the live fingerprint; zero when Retired.
	Current common.Fingerprint
	// Tag is the matching version when Covered.
	Tag string
}

// CheckCompleteness compares every kind in c against the live runtime.
func CheckCompleteness(ctx context.Context, c *Catalog, src FingerprintSource) ([]KindStatus, error) {
	out := make([]KindStatus, 0, len(c.kinds))
	for _, kind := range c.kinds {
		fp, err := src.FingerprintOf(ctx, kind)
		switch {
		case errors.Is(err, ErrNoFingerprint):
			out = append(out, KindStatus{Kind: kind, Coverage: Retired})
			continue
		case err != nil:
			return nil, fmt.Errorf("fingerprint of %s: %w", kind, err)
		}
		st := KindStatus{Kind: kind, Coverage: Missing, Current: fp}
		if v, err := c.Lookup(kind, fp); err == nil {
			st.Coverage = Covered
			st.Tag = v.Tag
		}
		out = append(out, st)
	}
	return out, nil
}

// Incomplete reports whether any kind is Missing.
func Incomplete(statuses []KindStatus) bool {
	for _, s := range statuses {
		if s.Coverage == Missing {
			return true
		}
	}
	return false
}
