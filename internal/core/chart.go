package core

// ChartCategory is a pie slice in the chart payload.
type ChartCategory struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Color *string `json:"color"`
}

// ChartMonth is a trend bar in the chart payload.
type ChartMonth struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// ChartData is the payload consumed by the expense charts.
type ChartData struct {
	Categories []ChartCategory `json:"categories"`
	Months     []ChartMonth    `json:"months"`
}

// BuildChartData converts a breakdown and a rolling series into the chart payload.
func BuildChartData(breakdown []CategoryTotal, months []MonthTotal) ChartData {
	data := ChartData{
		Categories: make([]ChartCategory, 0, len(breakdown)),
		Months:     make([]ChartMonth, 0, len(months)),
	}
	for _, c := range breakdown {
		cc := ChartCategory{Name: c.Name, Total: c.Total.InexactFloat64()}
		if c.Color != "" {
			color := c.Color
			cc.Color = &color
		}
		data.Categories = append(data.Categories, cc)
	}
	for _, m := range months {
		data.Months = append(data.Months, ChartMonth{Date: m.Label, Total: m.Total.InexactFloat64()})
	}
	return data
}
