package chart

import (
	"sync/atomic"

	"cardstats/internal/core"
)

const (
	creditColor = "36a2eb"
	debitColor  = "ff9f40"

	defaultWidth  = 960
	defaultHeight = 400
)

// Rendered holds the two charts produced by one Render call.
type Rendered struct {
	Cards  *Instance
	Values *Instance
}

// Renderer builds the line chart of outstanding cards and the bar chart of
// POS transaction values.
type Renderer struct {
	seq    atomic.Uint64
	width  int
	height int
}

// NewRenderer sets the PNG size. Zero values use the defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Renderer{width: width, height: height}
}

// Render disposes the charts bound to both targets of st and binds new ones
// built from d. Rendering N times leaves exactly one live chart per target.
func (r *Renderer) Render(st *State, d core.ChartData) Rendered {
	cards := r.newInstance(st, CardsTarget, Line, "Cards outstanding", d.Labels, []Dataset{
		{Label: "Credit cards outstanding", Data: d.CreditCards, Color: creditColor, Fill: true},
		{Label: "Debit cards outstanding", Data: d.DebitCards, Color: debitColor, Fill: true},
	})
	values := r.newInstance(st, ValuesTarget, Bar, "POS transaction value", d.Labels, []Dataset{
		{Label: "Credit card POS value", Data: d.CreditValue, Color: creditColor},
		{Label: "Debit card POS value", Data: d.DebitValue, Color: debitColor},
	})

	st.bind(cards)
	st.bind(values)
	st.renders.Add(1)
	return Rendered{Cards: cards, Values: values}
}

func (r *Renderer) newInstance(st *State, t Target, k Kind, title string, labels []string, datasets []Dataset) *Instance {
	inst := &Instance{
		id:       r.seq.Add(1),
		target:   t,
		kind:     k,
		title:    title,
		labels:   append([]string(nil), labels...),
		datasets: datasets,
		width:    r.width,
		height:   r.height,
	}
	for i := range inst.datasets {
		inst.datasets[i].Data = append([]float64(nil), inst.datasets[i].Data...)
	}
	st.track(inst)
	return inst
}
