// Package shapeio reads spatial units from shapefiles and writes the
// analysis output as GeoJSON and CSV artifacts.
package shapeio

import (
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/model"
)

// ErrSourceRead signals a missing or unreadable input source.
var ErrSourceRead = eris.New("shapeio: source unreadable")

// Dataset is an ordered collection of spatial units plus the attribute
// schema of the source.
type Dataset struct {
	Units  []model.Unit
	Fields []string
}

// HasField reports whether the source carries the named attribute column.
func (d *Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Load reads an ordered sequence of spatial units from a shapefile. A .zip
// source is read in place without extraction. Record order defines unit
// indices; records with unreadable geometry keep their position with a nil
// geometry so downstream contiguity can report which unit is empty.
func Load(path string) (*Dataset, error) {
	var (
		reader shp.SequentialReader
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		reader, err = shp.OpenZip(path)
	} else {
		reader, err = shp.Open(path)
	}
	if err != nil {
		return nil, eris.Wrapf(ErrSourceRead, "open %s: %v", path, err)
	}
	defer func() { _ = reader.Close() }()

	// DBF field names are NUL-padded fixed-width buffers.
	var names []string
	for _, f := range reader.Fields() {
		names = append(names, strings.TrimRight(f.String(), "\x00"))
	}

	var units []model.Unit
	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[name] = val
		}

		units = append(units, model.Unit{
			Index: len(units),
			Geom:  shapeToGeom(shape),
			Attrs: attrs,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(ErrSourceRead, "read %s: %v", path, err)
	}

	zap.L().Info("loaded spatial units",
		zap.String("source", path),
		zap.Int("units", len(units)),
		zap.Int("fields", len(names)),
	)

	return &Dataset{Units: units, Fields: names}, nil
}

// shapeToGeom converts a go-shp polygon to a go-geom multipolygon. Shapefile
// polygons store all rings in one part list, so every part becomes a
// single-ring polygon of the result. Non-polygon or nil shapes yield nil.
func shapeToGeom(shape shp.Shape) geom.T {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
