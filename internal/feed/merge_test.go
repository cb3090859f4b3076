package feed

import (
	"math"
	"slices"
	"testing"

	"github.com/onnwee/mentorfeed/internal/ranking"
)

func candidatesOf(ids ...string) []ranking.Candidate {
	out := make([]ranking.Candidate, len(ids))
	for i, id := range ids {
		out[i] = ranking.Candidate{ID: id}
	}
	return out
}

func idsOf(cands []ranking.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		original []string
		ranked   []string
		want     []string
	}{
		{"full ranking", []string{"1", "2", "3"}, []string{"3", "1", "2"}, []string{"3", "1", "2"}},
		{"partial ranking appends rest", []string{"1", "2", "3"}, []string{"2", "1"}, []string{"2", "1", "3"}},
		{"unknown ids ignored", []string{"1", "2"}, []string{"9", "2", "x"}, []string{"2", "1"}},
		{"repeated ids collapse", []string{"1", "2", "3"}, []string{"3", "3", "1", "3"}, []string{"3", "1", "2"}},
		{"empty ranking keeps order", []string{"4", "5", "6"}, nil, []string{"4", "5", "6"}},
		{"empty original", nil, []string{"1"}, []string{}},
		{"rest keeps original order", []string{"5", "1", "4", "2"}, []string{"4"}, []string{"4", "5", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idsOf(Merge(candidatesOf(tt.original...), tt.ranked))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge_IsPermutation(t *testing.T) {
	original := candidatesOf("1", "2", "3", "4", "5")
	merged := Merge(original, []string{"5", "nope", "2", "5"})

	if len(merged) != len(original) {
		t.Fatalf("expected %d candidates, got %d", len(original), len(merged))
	}
	got := idsOf(merged)
	slices.Sort(got)
	if !slices.Equal(got, []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("expected each candidate exactly once, got %v", got)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{1, 10, 1, 10},
		{0, 10, 1, 10},
		{-3, 10, 1, 10},
		{2, 0, 2, DefaultPageSize},
		{2, -1, 2, DefaultPageSize},
		{1, 100, 1, 100},
		{1, 101, 1, MaxPageSize},
		{7, 25, 7, 25},
	}
	for _, tt := range tests {
		page, size := ClampPage(tt.page, tt.size)
		if page != tt.wantPage || size != tt.wantSize {
			t.Errorf("ClampPage(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.size, page, size, tt.wantPage, tt.wantSize)
		}
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantFirst int
		wantLen   int
	}{
		{"first page", 1, 10, 1, 10},
		{"second page", 2, 10, 11, 10},
		{"last partial page", 3, 10, 21, 5},
		{"past the end", 4, 10, 0, 0},
		{"single page", 1, 100, 1, 25},
		{"exact multiple boundary", 3, 5, 11, 5},
		{"one past exact end", 6, 5, 0, 0},
		{"max int page", math.MaxInt, 10, 0, 0},
		{"max int page max size", math.MaxInt, MaxPageSize, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(items, tt.page, tt.size)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tt.wantLen {
				t.Fatalf("expected %d items, got %d", tt.wantLen, len(got))
			}
			if tt.wantLen > 0 && got[0] != tt.wantFirst {
				t.Errorf("expected first item %d, got %d", tt.wantFirst, got[0])
			}
		})
	}
}

func TestPaginate_ClampedHugePage(t *testing.T) {
	page, size := ClampPage(math.MaxInt, 10)
	if got := Paginate([]int{1, 2, 3}, page, size); len(got) != 0 {
		t.Errorf("expected empty page, got %v", got)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{3, 2, 2},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.size); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}
