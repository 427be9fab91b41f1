package shapeio

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/model"
)

// Output property names, kept stable for downstream mapping tools.
const (
	PropLocalI   = "LocMoranI"
	PropPValue   = "p_value"
	PropZScore   = "Z_score"
	PropCategory = "LISA_Clust"
)

// WriteGeoJSON serializes the classified results as a GeoJSON
// FeatureCollection, one feature per unit in input order, geometry preserved.
func WriteGeoJSON(path, field string, results []model.UnitResult) error {
	fc := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(results)),
	}
	for _, r := range results {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: r.Geom,
			Properties: map[string]interface{}{
				field:        r.Value,
				PropLocalI:   r.LocalI,
				PropPValue:   r.PValue,
				PropZScore:   r.ZScore,
				PropCategory: r.Category.String(),
			},
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "shapeio: marshal GeoJSON")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "shapeio: write %s", path)
	}

	zap.L().Info("wrote GeoJSON artifact", zap.String("path", path), zap.Int("features", len(results)))
	return nil
}
