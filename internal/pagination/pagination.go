// Package pagination implements page/pageSize windowing for in-memory lists.
package pagination

const (
	// DefaultPageSize is used when a request omits pageSize.
	DefaultPageSize = 20
	// MaxPageSize caps pageSize.
	MaxPageSize = 100
)

// Paging describes one page of a list.
type Paging struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

// Request is a raw page request before clamping.
type Request struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and bounds to the page size. The page itself is
// clamped once the total is known.
func (r Request) Normalize() Request {
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	if r.Page <= 0 {
		r.Page = 1
	}
	return r
}

// Compute returns the paging metadata and the [start,end) slice bounds for a
// list of total items. Page is clamped to [1, max(totalPages, 1)].
func Compute(total int, req Request) (Paging, int, int) {
	req = req.Normalize()

	totalPages := (total + req.PageSize - 1) / req.PageSize
	page := req.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	return Paging{
		Total:      total,
		Page:       page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}, start, end
}

// Slice returns the requested page of items along with its metadata.
func Slice[T any](items []T, req Request) ([]T, Paging) {
	paging, start, end := Compute(len(items), req)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, paging
}
