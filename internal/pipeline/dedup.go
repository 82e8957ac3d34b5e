package pipeline

import "github.com/IshaanNene/auction-ingest/internal/types"

// Deduplicate collapses items sharing a sourceId. The last occurrence
// wins, placed where the first one was seen.
func Deduplicate(items []*types.AuctionItem) (unique []*types.AuctionItem, duplicates int) {
	index := make(map[string]int, len(items))
	unique = make([]*types.AuctionItem, 0, len(items))

	for _, item := range items {
		if pos, ok := index[item.SourceID]; ok {
			unique[pos] = item
			duplicates++
			continue
		}
		index[item.SourceID] = len(unique)
		unique = append(unique, item)
	}
	return unique, duplicates
}
