// Package model defines the data types shared across the LISA pipeline.
package model

import (
	"github.com/twpayne/go-geom"
)

// Unit is one spatial observation: a polygon geometry plus its attribute row.
// Index is the unit's position in the source file and defines array positions
// throughout the pipeline. Units are immutable inputs.
type Unit struct {
	Index int
	Geom  geom.T
	Attrs map[string]string
}
