// Package charts renders dashboard payloads to PNG with go-chart.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lifetrack/internal/core"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

// Renderer draws the expense and productivity charts.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: 800, Height: 480}
}

func background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		FillColor: chart.ColorWhite,
	}
}

// pngRenderer is satisfied by chart.PieChart and chart.BarChart.
type pngRenderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func render(r pngRenderer, name string) ([]byte, error) {
	buffer := bytes.NewBuffer([]byte{})
	if err := r.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buffer.Bytes(), nil
}

// sliceStyle fills a slice with the category color when one is set.
func sliceStyle(color *string) chart.Style {
	s := chart.Style{FontSize: 11, FontColor: chart.ColorBlack}
	if color != nil && *color != "" {
		c := drawing.ColorFromHex(strings.TrimPrefix(*color, "#"))
		s.FillColor = c
		s.StrokeColor = chart.ColorWhite
	}
	return s
}

// CategoryPie draws this month's spending per category. Categories with a
// zero total are left out.
func (g *Renderer) CategoryPie(data core.ChartData) ([]byte, error) {
	values := make([]chart.Value, 0, len(data.Categories))
	for _, c := range data.Categories {
		if c.Total <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.2f", c.Name, c.Total),
			Value: c.Total,
			Style: sliceStyle(c.Color),
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:      "Spending by category",
		Width:      g.Width,
		Height:     g.Height,
		Values:     values,
		Background: background(),
	}
	return render(pie, "category pie chart")
}

// barChart draws labelled bars. An all-zero series still renders on a unit axis.
func (g *Renderer) barChart(title string, labels []string, totals []float64, color drawing.Color) ([]byte, error) {
	if len(labels) == 0 {
		return nil, ErrNoData
	}
	bars := make([]chart.Value, len(labels))
	max := 0.0
	for i, label := range labels {
		bars[i] = chart.Value{
			Label: label,
			Value: totals[i],
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
		if totals[i] > max {
			max = totals[i]
		}
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      g.Width,
		Height:     g.Height,
		BarWidth:   60,
		Background: background(),
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Bars: bars,
	}
	if max == 0 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}
	return render(graph, title)
}

// MonthlyBars draws the rolling monthly totals, oldest first.
func (g *Renderer) MonthlyBars(data core.ChartData) ([]byte, error) {
	labels := make([]string, len(data.Months))
	totals := make([]float64, len(data.Months))
	for i, m := range data.Months {
		labels[i] = m.Date
		totals[i] = m.Total
	}
	return g.barChart("Monthly spending", labels, totals, chart.ColorBlue)
}

// TaskStatusPie draws completed against pending tasks.
func (g *Renderer) TaskStatusPie(stats core.ProductivityStats) ([]byte, error) {
	var values []chart.Value
	if stats.Completed > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Completed: %d", stats.Completed),
			Value: float64(stats.Completed),
			Style: chart.Style{FillColor: chart.ColorGreen, StrokeColor: chart.ColorWhite},
		})
	}
	if stats.Pending > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Pending: %d", stats.Pending),
			Value: float64(stats.Pending),
			Style: chart.Style{FillColor: chart.ColorRed, StrokeColor: chart.ColorWhite},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:      "Task status",
		Width:      g.Width,
		Height:     g.Height,
		Values:     values,
		Background: background(),
	}
	return render(pie, "task status chart")
}

// CompletedBars draws tasks completed today, this week and this month.
func (g *Renderer) CompletedBars(stats core.ProductivityStats) ([]byte, error) {
	return g.barChart("Completed tasks",
		[]string{"Today", "This week", "This month"},
		[]float64{float64(stats.CompletedToday), float64(stats.CompletedThisWeek), float64(stats.CompletedThisMonth)},
		chart.ColorGreen)
}
