package cache

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jwalitptl/clinic-directory/internal/model"
)

// Key is the canonical form of a filter set. Fields appear in a fixed
// order, text is trimmed and lower-cased, and service ids (single or
// comma-joined) are split, de-duplicated and sorted, so filters that select
// the same clinics share one key.
func Key(filters model.SearchFilters) string {
	values := url.Values{}
	if v := normalize(filters.City); v != "" {
		values.Set("city", v)
	}
	if v := normalize(filters.SearchTerm); v != "" {
		values.Set("searchTerm", v)
	}
	if v := normalize(filters.State); v != "" {
		values.Set("state", v)
	}

	seen := make(map[string]struct{}, len(filters.ServiceIDs))
	ids := make([]string, 0, len(filters.ServiceIDs))
	for _, raw := range filters.ServiceIDs {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		values.Set("services", strings.Join(ids, ","))
	}

	// Encode sorts by key.
	return values.Encode()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
