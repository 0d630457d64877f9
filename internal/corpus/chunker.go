// Package corpus persists entity source text as ordered chunked blobs.
package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PartLen is the maximum characters per stored chunk. Text at or below the
// limit is stored as a single part.
const PartLen = 110_000

// Split cuts text into ordered parts of at most limit characters. The
// concatenation of the parts in order is always exactly the input. Empty
// text yields a single empty part so that stubs still persist.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = PartLen
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

// PartPath returns the storage path for part i (1-indexed) of total parts
// under base: "base.txt" for a single part, "base.N.txt" otherwise.
func PartPath(base string, i, total int) string {
	if total <= 1 {
		return base + ".txt"
	}
	return fmt.Sprintf("%s.%d.txt", base, i)
}

// PartIndex extracts the 1-indexed part number from a chunk path. Paths
// without a numeric index ("base.txt") count as part 1.
func PartIndex(path string) int {
	trimmed := strings.TrimSuffix(path, ".txt")
	dot := strings.LastIndex(trimmed, ".")
	if dot < 0 {
		return 1
	}
	if n, err := strconv.Atoi(trimmed[dot+1:]); err == nil && n >= 1 {
		return n
	}
	return 1
}

// SortParts orders chunk paths by their trailing part index.
func SortParts(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return PartIndex(paths[i]) < PartIndex(paths[j])
	})
}

// PersonBase is the chunk path prefix for a person's profile corpus.
func PersonBase(id int64) string {
	return fmt.Sprintf("ppl/%d/profile.wikipedia", id)
}

// LegislationBase is the chunk path prefix for a bill synopsis corpus,
// keyed by the owning record and its source link row.
func LegislationBase(ownerID, linkID int64) string {
	return fmt.Sprintf("legi/%d/synopsis.%d.congress", ownerID, linkID)
}
