package pagination

import "sort"

// Identified is anything ordered by a numeric id.
type Identified interface {
	GetID() uint64
}

// Locate returns the index of the element whose id equals id, or the index
// where such an element would be inserted (possibly len(list)). list must be
// sorted by ascending id.
func Locate[T Identified](id uint64, list []T) int {
	return sort.Search(len(list), func(i int) bool {
		return list[i].GetID() >= id
	})
}

// Page is one backward step through an id-ordered list.
type Page[T Identified] struct {
	Items []T
	// Next returns the page of items strictly older than Items[0], or nil
	// when this page starts at the head of the list.
	Next func() *Page[T]
}

// HasNext reports whether older items exist.
func (p *Page[T]) HasNext() bool { return p.Next != nil }

// NextBefore is the cursor that Next would use, 0 when there is no next page.
func (p *Page[T]) NextBefore() uint64 {
	if p.Next == nil || len(p.Items) == 0 {
		return 0
	}
	return p.Items[0].GetID()
}

// Paginate returns the pageSize items immediately before the id before, or
// the tail of list when before is 0. A pageSize <= 0 means DefaultPageSize.
//
// The returned page aliases list; callers that keep appending to list must
// hold whatever lock guards it while reading Items.
func Paginate[T Identified](before uint64, pageSize int, list []T) *Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	end := len(list)
	if before != 0 {
		end = Locate(before, list)
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}
	p := &Page[T]{Items: list[start:end:end]}
	if start > 0 {
		cursor := list[start].GetID()
		p.Next = func() *Page[T] {
			return Paginate(cursor, pageSize, list)
		}
	}
	return p
}

// One returns the element with exactly id.
func One[T Identified](id uint64, list []T) (T, bool) {
	var zero T
	i := Locate(id, list)
	if i < len(list) && list[i].GetID() == id {
		return list[i], true
	}
	return zero, false
}

// Offset is a numbered page, used for thread listings.
type Offset[T any] struct {
	Items []T `json:"items"`
	// Next is the following page number, nil on the last page.
	Next *int `json:"next"`
}

// OffsetPage slices list into pages of pageSize starting at page 0.
func OffsetPage[T any](page, pageSize int, list []T) Offset[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	start := page * pageSize
	if start > len(list) {
		start = len(list)
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	out := Offset[T]{Items: list[start:end:end]}
	if end < len(list) {
		n := page + 1
		out.Next = &n
	}
	return out
}
