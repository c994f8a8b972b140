package curation

const (
	DefaultInitialPageSize = 100
	DefaultMaxPageSize     = 500
	PageSizeStep           = 10
)

// Pager is the "load more" window of one panel. It only ever grows a single
// prefix of the list; CurrentPage stays at 1.
type Pager struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	MaxPageSize int `json:"maxPageSize"`

	initial int
}

// NewPager falls back to the defaults for non-positive sizes and never lets
// the initial size exceed the maximum.
func NewPager(initial, maxSize int) *Pager {
	if initial <= 0 {
		initial = DefaultInitialPageSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	if initial > maxSize {
		initial = maxSize
	}

	return &Pager{
		CurrentPage: 1,
		PageSize:    initial,
		MaxPageSize: maxSize,
		initial:     initial,
	}
}

func (p *Pager) IncreasePageSize() {
	p.PageSize = min(p.PageSize+PageSizeStep, p.MaxPageSize)
}

func (p *Pager) Reset() {
	p.CurrentPage = 1
	p.PageSize = p.initial
}

func (p *Pager) InitialPageSize() int {
	return p.initial
}

// Visible returns the first PageSize items of list.
func Visible[T any](p *Pager, list []T) []T {
	if p.PageSize >= len(list) {
		return list
	}
	return list[:p.PageSize]
}

func HasMore[T any](p *Pager, list []T) bool {
	return p.PageSize < len(list)
}
