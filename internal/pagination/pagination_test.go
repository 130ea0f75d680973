package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		total     int
		req       Request
		want      Paging
		wantStart int
		wantEnd   int
	}{
		{"defaults", 45, Request{}, Paging{Total: 45, Page: 1, PageSize: 20, TotalPages: 3, HasNext: true}, 0, 20},
		{"last partial page", 45, Request{Page: 3, PageSize: 20}, Paging{Total: 45, Page: 3, PageSize: 20, TotalPages: 3, HasPrev: true}, 40, 45},
		{"page clamped high", 45, Request{Page: 9, PageSize: 20}, Paging{Total: 45, Page: 3, PageSize: 20, TotalPages: 3, HasPrev: true}, 40, 45},
		{"page size capped", 250, Request{Page: 1, PageSize: 500}, Paging{Total: 250, Page: 1, PageSize: 100, TotalPages: 3, HasNext: true}, 0, 100},
		{"empty list", 0, Request{Page: 4, PageSize: 10}, Paging{Total: 0, Page: 1, PageSize: 10, TotalPages: 0}, 0, 0},
		{"exact multiple", 40, Request{Page: 2, PageSize: 20}, Paging{Total: 40, Page: 2, PageSize: 20, TotalPages: 2, HasPrev: true}, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, start, end := Compute(tt.total, tt.req)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestSlice(t *testing.T) {
	t.Parallel()
	items := []int{1, 2, 3, 4, 5}

	page, paging := Slice(items, Request{Page: 2, PageSize: 2})
	assert.Equal(t, []int{3, 4}, page)
	assert.True(t, paging.HasPrev)
	assert.True(t, paging.HasNext)

	page, _ = Slice([]int{}, Request{})
	assert.NotNil(t, page)
	assert.Empty(t, page)
}
