package models

// PaginatedResult is one page of a larger collection.
//
// LastPage is ceil(Total/PerPage) with a minimum of 1. CurrentPage is echoed
// as requested: asking past the last page yields empty Items, not a snap back.
type PaginatedResult[T any] struct {
	Items       []T
	Total       int
	PerPage     int
	CurrentPage int
	LastPage    int
}

func NewPaginatedResult[T any](items []T, total, perPage, currentPage int) PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}
	return PaginatedResult[T]{
		Items:       items,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: currentPage,
		LastPage:    lastPage,
	}
}

// EmptyPage is the first page of an empty collection.
func EmptyPage[T any](perPage int) PaginatedResult[T] {
	return NewPaginatedResult[T](nil, 0, perPage, 1)
}

func (p PaginatedResult[T]) HasMorePages() bool {
	return p.CurrentPage < p.LastPage
}

// MapPage converts the items of a page while keeping its metadata.
func MapPage[T, U any](p PaginatedResult[T], fn func(T) U) PaginatedResult[U] {
	items := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, fn(item))
	}
	return PaginatedResult[U]{
		Items:       items,
		Total:       p.Total,
		PerPage:     p.PerPage,
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
	}
}

// PageMeta is the "meta" object of the page envelope.
type PageMeta struct {
	Total        int  `json:"total"`
	PerPage      int  `json:"per_page"`
	CurrentPage  int  `json:"current_page"`
	LastPage     int  `json:"last_page"`
	HasMorePages bool `json:"has_more_pages"`
}

// Page is the wire envelope for paginated responses.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

func (p PaginatedResult[T]) Envelope() Page[T] {
	data := p.Items
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data: data,
		Meta: PageMeta{
			Total:        p.Total,
			PerPage:      p.PerPage,
			CurrentPage:  p.CurrentPage,
			LastPage:     p.LastPage,
			HasMorePages: p.HasMorePages(),
		},
	}
}
