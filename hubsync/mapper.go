package hubsync

import (
	"strings"
	"time"
)

// fieldMapping binds one local column to an ordered list of remote property
// names. The first source carrying a non-empty value wins; when every source
// is empty or absent the column maps to NULL.
type fieldMapping struct {
	Column  string
	Sources []string
}

// mapRecord builds a column map covering every mapped column, so an update
// built from it clears local columns whose remote value was removed. Values
// pass through untouched; type coercion happens in the store.
func mapRecord(mappings []fieldMapping, rec RemoteRecord) map[string]any {
	row := make(map[string]any, len(mappings)+1)
	row["hubspot_id"] = rec.ID
	for _, m := range mappings {
		row[m.Column] = firstNonEmpty(rec.Properties, m.Sources)
	}
	return row
}

func firstNonEmpty(props map[string]any, sources []string) any {
	for _, src := range sources {
		v, ok := props[src]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			return s
		}
		return v
	}
	return nil
}

// sourceProperties flattens the mapping table into the property list to
// request from the search API, deduplicated, in mapping order.
func sourceProperties(mappings []fieldMapping) []string {
	seen := make(map[string]struct{})
	var props []string
	for _, m := range mappings {
		for _, src := range m.Sources {
			if _, ok := seen[src]; ok {
				continue
			}
			seen[src] = struct{}{}
			props = append(props, src)
		}
	}
	return props
}

// remoteTimestamp reads one property as an RFC3339 timestamp. Absent or
// unparseable values yield nil, which the reconciler treats as "no remote
// timestamp".
func remoteTimestamp(rec RemoteRecord, property string) *time.Time {
	v, ok := rec.Properties[property]
	if !ok || v == nil {
		return nil
	}
	s, isStr := v.(string)
	if !isStr {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
