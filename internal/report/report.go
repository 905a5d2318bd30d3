// Package report summarises a loaded fusion dataset and renders the summary
// as an HTML chart page.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/meridian-data/fusionbay/dataset"
)

// Summary aggregates the per-segment and per-category shape of a dataset.
type Summary struct {
	DatasetName   string
	SegmentNames  []string       // insertion order
	FrameCounts   map[string]int // segment name → frames
	CategoryBoxes map[string]int // category → labeled boxes
	SensorCounts  map[string]int // segment name → sensors
}

// Summarize walks every segment of ds once.
func Summarize(ds *dataset.FusionDataset) Summary {
	s := Summary{
		DatasetName:   ds.Name,
		FrameCounts:   make(map[string]int),
		CategoryBoxes: make(map[string]int),
		SensorCounts:  make(map[string]int),
	}
	for _, segment := range ds.Segments() {
		s.SegmentNames = append(s.SegmentNames, segment.Name)
		s.FrameCounts[segment.Name] = len(segment.Frames)
		s.SensorCounts[segment.Name] = segment.Sensors.Len()
		for _, frame := range segment.Frames {
			for _, data := range frame {
				for _, box := range data.Label.Box3D {
					s.CategoryBoxes[box.Category]++
				}
			}
		}
	}
	return s
}

// Render writes the summary as a standalone HTML page with one bar chart of
// frames per segment and one of boxes per category.
func (s Summary) Render(w io.Writer) error {
	frames := charts.NewBar()
	frames.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: frames per segment", s.DatasetName),
			Subtitle: fmt.Sprintf("%d segments", len(s.SegmentNames)),
		}),
	)
	frameData := make([]opts.BarData, len(s.SegmentNames))
	for i, name := range s.SegmentNames {
		frameData[i] = opts.BarData{Value: s.FrameCounts[name]}
	}
	frames.SetXAxis(s.SegmentNames).AddSeries("frames", frameData)

	categories := charts.NewBar()
	categories.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "3D boxes per category"}),
	)
	names := make([]string, 0, len(s.CategoryBoxes))
	for name := range s.CategoryBoxes {
		names = append(names, name)
	}
	sort.Strings(names)
	boxData := make([]opts.BarData, len(names))
	for i, name := range names {
		boxData[i] = opts.BarData{Value: s.CategoryBoxes[name]}
	}
	categories.SetXAxis(names).AddSeries("boxes", boxData)

	page := components.NewPage()
	page.AddCharts(frames, categories)
	return page.Render(w)
}
