package domain

// ChartType selects the visual shape of a rendered diagram.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// ChartPoint is one labelled value on a chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a renderer-agnostic description of the diagram an answer may
// carry. Clients decide how to draw it; the pipeline only guarantees the
// points are in presentation order.
type Chart struct {
	Type   ChartType    `json:"type"`
	Title  string       `json:"title"`
	Points []ChartPoint `json:"points"`
}
