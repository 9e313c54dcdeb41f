package chart

// Config is the Chart.js configuration for an instance. The page script
// hands it to `new Chart(ctx, config)` unchanged.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string        `json:"labels"`
	Datasets []DatasetConfig `json:"datasets"`
}

type DatasetConfig struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	Fill            bool      `json:"fill"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	Tension         float64   `json:"tension,omitempty"`
}

type Options struct {
	Responsive          bool             `json:"responsive"`
	MaintainAspectRatio bool             `json:"maintainAspectRatio"`
	Interaction         Interaction      `json:"interaction"`
	Plugins             Plugins          `json:"plugins"`
	Scales              map[string]Scale `json:"scales"`
}

type Interaction struct {
	Mode      string `json:"mode"`
	Intersect bool   `json:"intersect"`
}

type Plugins struct {
	Title  Title  `json:"title"`
	Legend Legend `json:"legend"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type Legend struct {
	Position string `json:"position"`
}

type Scale struct {
	BeginAtZero bool `json:"beginAtZero"`
}

// Config builds the Chart.js configuration. Hovering any point shows every
// series at that label.
func (i *Instance) Config() (Config, error) {
	labels, datasets, err := i.snapshot()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Type: string(i.kind),
		Data: Data{
			Labels:   append([]string{}, labels...),
			Datasets: make([]DatasetConfig, 0, len(datasets)),
		},
		Options: Options{
			Responsive:  true,
			Interaction: Interaction{Mode: "index", Intersect: false},
			Plugins: Plugins{
				Title:  Title{Display: true, Text: i.title},
				Legend: Legend{Position: "top"},
			},
			Scales: map[string]Scale{"y": {BeginAtZero: true}},
		},
	}
	for _, ds := range datasets {
		dc := DatasetConfig{
			Label:           ds.Label,
			Data:            append([]float64{}, ds.Data...),
			Fill:            ds.Fill,
			BorderColor:     "#" + ds.Color,
			BackgroundColor: "#" + ds.Color,
		}
		if i.kind == Line {
			dc.BackgroundColor = "#" + ds.Color + "33"
			dc.Tension = 0.2
		}
		cfg.Data.Datasets = append(cfg.Data.Datasets, dc)
	}
	return cfg, nil
}
