// Package layout holds the port model assembled from power stripes and DEF
// pins, in microns, ready to be handed to a layout writer.
package layout

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
)

// Position is a point in microns
type Position struct {
	X float64
	Y float64
}

// Layer is a mask layer identified by its GDS (number, datatype) pair
type Layer struct {
	Name     string
	Number   int
	Datatype int
}

func (l Layer) String() string {
	if l.Name == "" {
		return fmt.Sprintf("%d/%d", l.Number, l.Datatype)
	}
	return fmt.Sprintf("%s (%d/%d)", l.Name, l.Number, l.Datatype)
}

// Default layers: met4 drawing and the text layer for labels
var (
	LayerMet4 = Layer{Name: "met4", Number: 65, Datatype: 20}
	LayerText = Layer{Name: "text", Number: 66, Datatype: 0}
)

// LayerSet names the two layers every model is drawn on
type LayerSet struct {
	Metal Layer // stripes, pin rectangles and ports
	Text  Layer // labels
}

// DefaultLayers returns met4 (65/20) and text (66/0)
func DefaultLayers() LayerSet {
	return LayerSet{Metal: LayerMet4, Text: LayerText}
}

// Polygon is a closed outline on one layer. The closing edge is implicit.
type Polygon struct {
	Points []Position
	Layer  Layer
}

// Label is a text annotation
type Label struct {
	Text     string
	Position Position
	Layer    Layer
}

// Port is a named, oriented connection point.
// Orientation is in degrees: 0 east, 90 north, 180 west, 270 south.
type Port struct {
	Name        string
	Net         string
	Center      Position
	Width       float64
	Height      float64
	Orientation float64
	Layer       Layer
	Direction   def.Direction
	Use         def.Use

	// Source says where the port came from, e.g. "stripes" or "top.def:12"
	Source string
}

// BoundingBox is an axis-aligned extent in microns. The zero value is a
// degenerate box at the origin; NewBoundingBox starts empty.
type BoundingBox struct {
	Min Position
	Max Position
}

// NewBoundingBox returns a box that any Expand call replaces
func NewBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: Position{X: inf, Y: inf},
		Max: Position{X: -inf, Y: -inf},
	}
}

// IsEmpty reports whether nothing has been added
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand grows the box to cover pos
func (bb *BoundingBox) Expand(pos Position) {
	bb.Min.X = min(bb.Min.X, pos.X)
	bb.Min.Y = min(bb.Min.Y, pos.Y)
	bb.Max.X = max(bb.Max.X, pos.X)
	bb.Max.Y = max(bb.Max.Y, pos.Y)
}

func (bb BoundingBox) Width() float64  { return bb.Max.X - bb.Min.X }
func (bb BoundingBox) Height() float64 { return bb.Max.Y - bb.Min.Y }
