package feed

import "github.com/onnwee/mentorfeed/internal/ranking"

// Merge orders candidates by ranking and appends every candidate the ranking
// did not mention in its original relative order. Unknown and repeated ids
// in ranking are ignored, so each candidate appears exactly once.
func Merge(original []ranking.Candidate, rankedIDs []string) []ranking.Candidate {
	byID := make(map[string]int, len(original))
	for i, c := range original {
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = i
		}
	}

	merged := make([]ranking.Candidate, 0, len(byID))
	emitted := make(map[string]bool, len(byID))
	for _, id := range rankedIDs {
		idx, known := byID[id]
		if !known || emitted[id] {
			continue
		}
		emitted[id] = true
		merged = append(merged, original[idx])
	}
	for _, c := range original {
		if emitted[c.ID] {
			continue
		}
		emitted[c.ID] = true
		merged = append(merged, c)
	}
	return merged
}

// ClampPage coerces page coordinates into range. A page below 1 becomes 1,
// a size below 1 becomes DefaultPageSize and a size above MaxPageSize
// becomes MaxPageSize.
func ClampPage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

// Paginate returns the page-th slice of size elements of ordered.
// Out-of-range pages yield an empty slice. page and size must already be clamped.
func Paginate[T any](ordered []T, page, size int) []T {
	// Compare before multiplying so huge pages cannot overflow start.
	if page < 1 || size < 1 || page-1 > len(ordered)/size {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(ordered) {
		return []T{}
	}
	end := min(start+size, len(ordered))
	return ordered[start:end]
}

// PageCount returns ceil(total/size), and 1 for an empty population.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
