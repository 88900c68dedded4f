package table

// Meta describes where a page sits in the full result.
type Meta struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	PageSize    int  `json:"page_size"    yaml:"page_size"`
	TotalPages  int  `json:"total_pages"  yaml:"total_pages"`
	TotalItems  int  `json:"total_items"  yaml:"total_items"`
	HasPrevious bool `json:"has_previous" yaml:"has_previous"`
	HasNext     bool `json:"has_next"     yaml:"has_next"`
}

// NewMeta derives page metadata for params over total rows.
func NewMeta(params Params, total int) Meta {
	totalPages := params.TotalPages(total)
	return Meta{
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasPrevious: params.Page > 1,
		HasNext:     params.Page < totalPages,
	}
}

// FirstRow and LastRow are the 1-based row numbers shown on the page, or
// zero when the page is empty.
func (m Meta) FirstRow() int {
	if m.TotalItems == 0 {
		return 0
	}
	return (m.CurrentPage-1)*m.PageSize + 1
}

// LastRow is the 1-based number of the last row on the page.
func (m Meta) LastRow() int {
	if m.TotalItems == 0 {
		return 0
	}
	return min(m.CurrentPage*m.PageSize, m.TotalItems)
}
