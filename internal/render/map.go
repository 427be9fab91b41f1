// Package render draws the LISA cluster map from classified results.
package render

import (
	"fmt"
	"image/color"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sells-group/lisa-cli/internal/model"
)

// categoryColors maps each LISA category to its conventional map color.
var categoryColors = map[model.Category]color.Color{
	model.CategoryNonSig:         color.RGBA{R: 211, G: 211, B: 211, A: 255}, // lightgrey
	model.CategoryHotspot:        color.RGBA{R: 255, A: 255},                 // red
	model.CategoryColdspot:       color.RGBA{B: 255, A: 255},                 // blue
	model.CategoryOutlierLowHigh: color.RGBA{R: 173, G: 216, B: 230, A: 255}, // lightblue
	model.CategoryOutlierHighLow: color.RGBA{R: 240, G: 128, B: 128, A: 255}, // lightcoral
}

// legendOrder fixes the legend entry order.
var legendOrder = []model.Category{
	model.CategoryNonSig,
	model.CategoryHotspot,
	model.CategoryColdspot,
	model.CategoryOutlierLowHigh,
	model.CategoryOutlierHighLow,
}

// SaveMap renders a choropleth of the cluster categories and writes it to
// path (format by extension: .png, .svg, .pdf).
func SaveMap(path, field string, results []model.UnitResult) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("LISA Cluster Map for %s", field)
	p.HideAxes()

	for _, r := range results {
		fill := categoryColors[r.Category]
		for _, ring := range exteriorRings(r.Geom) {
			poly, err := plotter.NewPolygon(ring)
			if err != nil {
				return eris.Wrapf(err, "render: polygon for unit %d", r.Index)
			}
			poly.Color = fill
			poly.LineStyle.Color = color.Gray{Y: 128}
			poly.LineStyle.Width = vg.Points(0.5)
			p.Add(poly)
		}
	}

	// Legend thumbnails: small synthetic squares per category.
	for _, cat := range legendOrder {
		thumb, err := plotter.NewPolygon(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
		if err != nil {
			return eris.Wrap(err, "render: legend thumbnail")
		}
		thumb.Color = categoryColors[cat]
		p.Legend.Add(cat.String(), thumb)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}

	zap.L().Info("wrote cluster map", zap.String("path", path), zap.Int("units", len(results)))
	return nil
}

// exteriorRings returns each polygon part's outer ring as plot coordinates.
// Holes are skipped; at map scale they only matter for fill fidelity.
func exteriorRings(g geom.T) []plotter.XYs {
	var rings []plotter.XYs

	appendRing := func(poly *geom.Polygon) {
		if poly.NumLinearRings() == 0 {
			return
		}
		coords := poly.LinearRing(0).Coords()
		xys := make(plotter.XYs, 0, len(coords))
		for _, c := range coords {
			xys = append(xys, plotter.XY{X: c[0], Y: c[1]})
		}
		if len(xys) > 0 {
			rings = append(rings, xys)
		}
	}

	switch t := g.(type) {
	case *geom.Polygon:
		appendRing(t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			appendRing(t.Polygon(i))
		}
	}
	return rings
}
