package enum

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// CombinedEnumerator walks several scan roots in order. A file reached
// through more than one root (for example "src" and "src/batch") is yielded
// once. Identical content at different paths is still yielded so every
// location gets its own provenance record.
type CombinedEnumerator struct {
	enumerators []Enumerator
	overlaps    atomic.Int64
}

// NewCombinedEnumerator creates a CombinedEnumerator over the given roots.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Overlaps returns how many files were dropped because an earlier root
// already yielded the same path.
func (c *CombinedEnumerator) Overlaps() int64 {
	return c.overlaps.Load()
}

// Enumerate runs each root in sequence. The first error stops the walk.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	var mu sync.Mutex
	seen := make(map[string]struct{})

	for _, e := range c.enumerators {
		err := e.Enumerate(ctx, func(content []byte, id types.SourceID, prov types.Provenance) error {
			key := pathKey(prov)
			mu.Lock()
			_, dup := seen[key]
			if !dup {
				seen[key] = struct{}{}
			}
			mu.Unlock()
			if dup {
				c.overlaps.Add(1)
				return nil
			}
			return callback(content, id, prov)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func pathKey(prov types.Provenance) string {
	p := filepath.Clean(prov.Path())
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return prov.Kind() + ":" + p
}
