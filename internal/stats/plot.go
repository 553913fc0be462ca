package stats

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is one named line on a chart.
type Series struct {
	Name   string
	Values []float64
}

// WriteLinePlot renders series against their index and saves the chart to
// path. The image format follows the file extension.
func WriteLinePlot(path, title, xLabel, yLabel string, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	plotted := 0
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		points := make(plotter.XYs, len(s.Values))
		for j, v := range s.Values {
			points[j] = plotter.XY{X: float64(j), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("plot series %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
		plotted++
	}
	if plotted == 0 {
		return fmt.Errorf("all series are empty")
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// WriteReturnCurve plots the episode returns of a run in episode order.
func WriteReturnCurve(path, runID string, returns []float64) error {
	return WriteLinePlot(path, "Episode return: "+runID, "Episode", "Return", []Series{{Name: "return", Values: returns}})
}

// WriteCumulativeRewardCurves plots the running return of each episode
// against the physics step.
func WriteCumulativeRewardCurves(path, runID string, episodes []Series) error {
	cumulative := make([]Series, 0, len(episodes))
	for _, ep := range episodes {
		cumulative = append(cumulative, Series{Name: ep.Name, Values: CumulativeReturns(ep.Values)})
	}
	return WriteLinePlot(path, "Cumulative reward: "+runID, "Step", "Return", cumulative)
}
