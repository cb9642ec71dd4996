package items

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
)

// UniqueIDs drops duplicates, keeping first-seen order.
func UniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MissingIDs returns the requested ids absent from found, in request order.
func MissingIDs(requested []uint, found map[uint]struct{}) []uint {
	missing := []uint{}
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func idSet(rows []models.Item) map[uint]struct{} {
	set := make(map[uint]struct{}, len(rows))
	for _, row := range rows {
		set[row.ID] = struct{}{}
	}
	return set
}

// BatchKey joins ids with commas; it identifies a batch in outbox aggregates.
func BatchKey(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}
