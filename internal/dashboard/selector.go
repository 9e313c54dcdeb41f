package dashboard

// Option is one entry of a selection widget.
type Option struct {
	Value string
	Label string
}

// Selector is the server-side model of a <select> element.
type Selector struct {
	ID       string
	Options  []Option
	Selected string
}

func NewSelector(id string, options ...Option) *Selector {
	return &Selector{ID: id, Options: options}
}

// IsSelected reports whether v is the current value.
func (s *Selector) IsSelected(v string) bool {
	return s.Selected == v
}

// Populate appends one option per item, in input order. Existing options are
// kept and nothing is deduplicated.
func Populate[T any](sel *Selector, items []T, value func(T) string, label func(T) string) {
	for _, it := range items {
		sel.Options = append(sel.Options, Option{Value: value(it), Label: label(it)})
	}
}
