package table

// Page is one slice of a filtered list. Page numbers start at 1.
type Page[T any] struct {
	Rows       []T `json:"rows"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// Paginate clamps page into [1, last page]. An empty list has one empty page.
func Paginate[T any](rows []T, page, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	total := len(rows)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	out := make([]T, 0, end-start)
	out = append(out, rows[start:end]...)
	return Page[T]{Rows: out, Page: page, PageSize: size, TotalPages: pages, Total: total}
}
