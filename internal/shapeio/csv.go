package shapeio

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/model"
)

// WriteCSV serializes the classified results as a flat table, geometry
// dropped, one row per unit in input order.
func WriteCSV(path, field string, results []model.UnitResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "shapeio: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{field, PropLocalI, PropPValue, PropZScore, PropCategory}); err != nil {
		return eris.Wrap(err, "shapeio: write CSV header")
	}
	for _, r := range results {
		row := []string{
			formatFloat(r.Value),
			formatFloat(r.LocalI),
			formatFloat(r.PValue),
			formatFloat(r.ZScore),
			r.Category.String(),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "shapeio: write CSV row %d", r.Index)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "shapeio: flush CSV")
	}

	zap.L().Info("wrote CSV artifact", zap.String("path", path), zap.Int("rows", len(results)))
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
