package model

import (
	"github.com/twpayne/go-geom"
)

// Category is the LISA cluster classification of one unit.
type Category int

// The five LISA cluster categories.
const (
	CategoryNonSig Category = iota
	CategoryHotspot
	CategoryColdspot
	CategoryOutlierLowHigh
	CategoryOutlierHighLow
)

// categoryLabels are the output labels, indexed by Category.
var categoryLabels = [...]string{
	"Non-sig",
	"Hotspot (High-High)",
	"Coldspot (Low-Low)",
	"Outlier (Low-High)",
	"Outlier (High-Low)",
}

func (c Category) String() string {
	if c < CategoryNonSig || c > CategoryOutlierHighLow {
		return "Non-sig"
	}
	return categoryLabels[c]
}

// UnitResult is the computed LISA record for one unit, joined back onto the
// original geometry. It is never mutated after assembly.
type UnitResult struct {
	Index       int
	Value       float64 // attribute after imputation
	LocalI      float64
	PValue      float64
	ZScore      float64
	Quadrant    int // 1=HH 2=LH 3=LL 4=HL
	Significant bool
	Category    Category
	Geom        geom.T
}
