package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/matches/pkg/congruency"
)

const (
	plotPageTitle    = "Clusterset congruency"
	labelRotate      = 60
	labelFontSize    = 10
	innerLabelSize   = 9
	heatmapMinHeight = 400
	heatmapMaxHeight = 900
	heatmapPerLabel  = 40
	heatmapPadding   = 200
	plotPrecision    = 3
)

// renderPlot writes an HTML page holding one heat map per section.
func renderPlot(w io.Writer, rep Report) error {
	if len(rep.Sections) == 0 {
		return ErrNoSections
	}

	page := components.NewPage()

	for _, s := range rep.Sections {
		page.AddCharts(createHeatMapChart(s))
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

func buildHeatMapData(rows [][]float64) []opts.HeatMapData {
	data := make([]opts.HeatMapData, 0, len(rows)*len(rows))

	for i, row := range rows {
		for j, v := range row {
			rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', plotPrecision, 64), 64)
			data = append(data, opts.HeatMapData{Value: []any{i, j, rounded}})
		}
	}

	return data
}

func dynamicHeatmapHeight(labels int) string {
	height := min(max(labels*heatmapPerLabel+heatmapPadding, heatmapMinHeight), heatmapMaxHeight)

	return strconv.Itoa(height) + "px"
}

func createHeatMapChart(s Section) *charts.HeatMap {
	labels := s.Matrix.Labels()
	rows := s.Matrix.Rows()

	maxVal := 1.0
	if s.Mode != congruency.ModeRatio {
		maxVal = 0

		for _, row := range rows {
			for _, v := range row {
				maxVal = max(maxVal, v)
			}
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: plotPageTitle,
			Width:     "100%",
			Height:    dynamicHeatmapHeight(len(labels)),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    chartTitle(s),
			Subtitle: fmt.Sprintf("mean %f, standard deviation %f, %d pairs", s.Stats.Mean, s.Stats.StdDev, s.Stats.Pairs),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "category", Data: labels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{Rotate: labelRotate, Interval: "0", FontSize: labelFontSize},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category", Data: labels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{FontSize: labelFontSize},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true), Min: 0, Max: float32(maxVal),
			InRange: &opts.VisualMapInRange{Color: []string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"}},
			Orient:  "horizontal", Left: "center", Bottom: "2%",
		}),
		charts.WithGridOpts(opts.Grid{
			Left: "20%", Right: "5%", Top: "60", Bottom: "20%",
		}),
	)
	hm.AddSeries(s.Index.String(), buildHeatMapData(rows), charts.WithLabelOpts(opts.Label{
		Show: opts.Bool(true), Position: "inside", Color: "black", FontSize: innerLabelSize,
	}))

	return hm
}

func chartTitle(s Section) string {
	title := "Complete congruency (h2)"
	if s.Index == congruency.PairToPair {
		title = "Pair-to-pair congruency (h)"
	}

	if s.Mode != congruency.ModeRatio {
		title += ", " + s.Mode.String()
	}

	return title
}
