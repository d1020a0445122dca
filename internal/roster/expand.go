// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package roster

import (
	"strings"

	"github.com/pdiddy/pubwatch/pkg/types"
)

// QueryKeys expands one roster entry into the ordered, deduplicated query
// keys searched for it: the canonical name first, then each variant, each
// paired with the entry's affiliation. Duplicate names are detected
// case-insensitively; the first spelling wins for display. Whitespace-only
// names are dropped. An entry with no usable name yields an empty slice;
// the caller logs, it is not an error.
func QueryKeys(e types.RosterEntry) []types.QueryKey {
	names := make([]string, 0, len(e.NameVariants)+1)
	names = append(names, e.CanonicalName)
	names = append(names, e.NameVariants...)

	seen := make(map[string]struct{}, len(names))
	var keys []types.QueryKey
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		folded := Normalize(n)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		keys = append(keys, types.QueryKey{Name: n, Affiliation: e.Affiliation})
	}
	return keys
}
