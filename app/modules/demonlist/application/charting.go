package demonlistservice

import (
	"bytes"
	"context"
	"fmt"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette colours the standings chart.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Banked     drawing.Color
	Text       drawing.Color
}

// DefaultPalette is a dark theme.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("1b1b1f"),
	Bar:        drawing.ColorFromHex("c0392b"),
	Banked:     drawing.ColorFromHex("e67e22"),
	Text:       drawing.ColorFromHex("ecf0f1"),
}

// StandingsChart renders every player's total points as a PNG bar chart.
func (s *DemonListService) StandingsChart(ctx context.Context) ([]byte, error) {
	standings, err := s.Standings(ctx)
	if err != nil {
		return nil, err
	}
	return GenerateStandingsChart(standings, DefaultPalette)
}

// GenerateStandingsChart draws one bar per player, highest total first.
func GenerateStandingsChart(standings []demonlistdomain.Standing, palette ChartPalette) ([]byte, error) {
	var top float64
	for _, st := range standings {
		top = max(top, st.Total)
	}
	if top <= 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, len(standings))
	for i, st := range standings {
		fill := palette.Bar
		if st.Banked > 0 {
			fill = palette.Banked
		}
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s (%.1f)", st.Player, st.Total),
			Value: st.Total,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
	}

	graph := chart.BarChart{
		Title:      "Standings",
		TitleStyle: chart.Style{FontColor: palette.Text},
		Width:      max(400, 140*len(bars)),
		Height:     400,
		BarWidth:   60,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.Text},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render standings chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws the message straight onto a raster renderer; a chart
// with no series refuses to render.
func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No points scored yet"
	)

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}

	r.SetFillColor(palette.Background)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(palette.Text)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
