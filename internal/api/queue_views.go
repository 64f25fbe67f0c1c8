package api

import (
	"cmp"
	"slices"
	"time"
)

// SortQueueItemsNewestFirst returns a copy of items ordered by creation time
// descending. Ties fall back to ID descending so the order is stable across
// refreshes.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b QueueItem) int {
		ta := ParseQueueTime(a.CreatedAt)
		tb := ParseQueueTime(b.CreatedAt)
		if !ta.Equal(tb) {
			return tb.Compare(ta)
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return sorted
}

// ParseQueueTime parses the timestamp strings queue DTOs carry, returning the
// zero time for anything unparsable.
func ParseQueueTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
