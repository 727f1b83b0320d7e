package platform

import "net/http"

// ResponseArray is the collection returned by search operations. It behaves
// like a slice and carries the pagination metadata and headers of the
// response it was built from.
type ResponseArray[T any] struct {
	Items      []T         `json:"items"`
	PageNumber int         `json:"page_number"`
	TotalPages int         `json:"total_pages"`
	Headers    http.Header `json:"-"`
}

func (r *ResponseArray[T]) Len() int {
	return len(r.Items)
}

func (r *ResponseArray[T]) At(i int) T {
	return r.Items[i]
}

func (r *ResponseArray[T]) Append(items ...T) {
	r.Items = append(r.Items, items...)
}

// HasMore reports whether pages after PageNumber exist.
func (r *ResponseArray[T]) HasMore() bool {
	return r.PageNumber < r.TotalPages
}
