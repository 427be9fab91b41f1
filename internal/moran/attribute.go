// Package moran computes the per-unit Local Moran's I statistic, its
// conditional-permutation significance, and the LISA cluster classification.
package moran

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/model"
)

// Sentinel errors for attribute preparation.
var (
	ErrFieldNotFound    = eris.New("moran: attribute field not found")
	ErrAllValuesMissing = eris.New("moran: all attribute values missing")
)

// ExtractField pulls the named attribute column off the units as floats.
// present[i] reports whether unit i carried a parseable value; blank or
// non-numeric entries count as missing.
func ExtractField(units []model.Unit, field string) (values []float64, present []bool, err error) {
	if len(units) > 0 {
		if _, ok := units[0].Attrs[field]; !ok {
			return nil, nil, eris.Wrapf(ErrFieldNotFound, "field %q", field)
		}
	}

	values = make([]float64, len(units))
	present = make([]bool, len(units))
	for i, u := range units {
		raw := strings.TrimSpace(u.Attrs[field])
		if raw == "" {
			continue
		}
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			continue
		}
		values[i] = v
		present[i] = true
	}
	return values, present, nil
}

// Impute replaces missing entries with the arithmetic mean of the present
// values. The mean is computed over present values only, before any entry is
// filled. Returns the imputed vector and the number of filled entries.
func Impute(values []float64, present []bool) ([]float64, int, error) {
	var sum float64
	var count int
	for i, ok := range present {
		if ok {
			sum += values[i]
			count++
		}
	}
	if count == 0 {
		return nil, 0, ErrAllValuesMissing
	}

	mean := sum / float64(count)
	x := make([]float64, len(values))
	var imputed int
	for i := range values {
		if present[i] {
			x[i] = values[i]
		} else {
			x[i] = mean
			imputed++
		}
	}
	return x, imputed, nil
}

// Center mean-centers x. Mean-imputed entries come out exactly zero.
func Center(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))

	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = v - mean
	}
	return z
}

// PrepareAttribute extracts, imputes, and centers the named column.
func PrepareAttribute(units []model.Unit, field string) (x, z []float64, err error) {
	values, present, err := ExtractField(units, field)
	if err != nil {
		return nil, nil, err
	}
	x, imputed, err := Impute(values, present)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "field %q", field)
	}
	if imputed > 0 {
		zap.L().Info("mean-imputed missing attribute values",
			zap.String("field", field),
			zap.Int("imputed", imputed),
			zap.Int("units", len(units)),
		)
	}
	return x, Center(x), nil
}
