package pagination

const (
	// DefaultSize is the standard page size when one is not provided.
	DefaultSize = 20
	// MaxSize caps how many rows any list query can request.
	MaxSize = 100
)

// Params holds page/size pagination inputs from controllers or services.
type Params struct {
	Page int
	Size int
}

// Normalize clamps the params to sane bounds. Pages are 1-based.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	norm := Normalize(p)
	return (norm.Page - 1) * norm.Size
}

// Limit returns the row limit for the normalized params.
func (p Params) Limit() int {
	return Normalize(p).Size
}

// Page wraps a result slice with its pagination envelope.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	PageNumber int   `json:"page"`
	PageSize   int   `json:"size"`
}

// NewPage assembles the envelope from a normalized query result.
func NewPage[T any](items []T, total int64, params Params) Page[T] {
	norm := Normalize(params)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		PageNumber: norm.Page,
		PageSize:   norm.Size,
	}
}
