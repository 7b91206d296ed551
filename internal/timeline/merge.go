package timeline

import (
	"sort"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// Merge unions two item lists by id, with incoming winning on conflict, and
// returns the result ordered by timestamp descending. It is pure: the same
// inputs always produce the same output, regardless of which fetch finished
// first, and re-applying a fetch result never duplicates items.
func Merge(existing, incoming []models.TimelineItem) []models.TimelineItem {
	merged := make(map[string]models.TimelineItem, len(existing)+len(incoming))
	for _, item := range existing {
		merged[item.ID] = item
	}
	for _, item := range incoming {
		merged[item.ID] = item
	}

	out := make([]models.TimelineItem, 0, len(merged))
	for _, item := range merged {
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		// Tie-break on id so equal timestamps still order deterministically.
		return out[i].ID < out[j].ID
	})

	return out
}

// FilterByType narrows items to a single type without mutating the input.
// An empty type returns a copy of the full collection.
func FilterByType(items []models.TimelineItem, itemType models.ItemType) []models.TimelineItem {
	if itemType == "" {
		out := make([]models.TimelineItem, len(items))
		copy(out, items)
		return out
	}

	out := make([]models.TimelineItem, 0, len(items))
	for _, item := range items {
		if item.Type == itemType {
			out = append(out, item)
		}
	}
	return out
}

// Apply narrows a merged collection according to a query: type filter first,
// then an optional result cap.
func Apply(items []models.TimelineItem, query models.TimelineQuery) []models.TimelineItem {
	out := FilterByType(items, query.Type)
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out
}
