package console

// Pager tracks one table's paging. Server tables count pages from 1, local
// tables from 0; Base says which.
type Pager struct {
	Base  int `json:"base"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

func NewPager(base, size int) Pager {
	if size <= 0 {
		size = 5
	}
	return Pager{Base: base, Page: base, Size: size}
}

func (p Pager) TotalPages() int {
	if p.Total <= 0 || p.Size <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

// SetSize changes rows per page and returns to the first page.
func (p *Pager) SetSize(n int) {
	if n > 0 {
		p.Size = n
	}
	p.Page = p.Base
}

// SetPage moves to page n, clamped to the known range.
func (p *Pager) SetPage(n int) {
	last := p.Base + p.TotalPages() - 1
	switch {
	case n < p.Base:
		n = p.Base
	case n > last:
		n = last
	}
	p.Page = n
}

func (p *Pager) Reset() { p.Page = p.Base }

// SetTotal updates the row count and pulls the page back in range.
func (p *Pager) SetTotal(n int) {
	p.Total = n
	p.SetPage(p.Page)
}

// Slice returns the rows of the current page of a locally held collection.
func Slice[T any](rows []T, p Pager) []T {
	start := (p.Page - p.Base) * p.Size
	if start < 0 || start >= len(rows) {
		return []T{}
	}
	end := start + p.Size
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]T, end-start)
	copy(out, rows[start:end])
	return out
}

// PageInfo is the rendered paging block.
type PageInfo struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func (p Pager) Info() PageInfo {
	return PageInfo{Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: p.TotalPages()}
}
