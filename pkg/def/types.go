// Package def extracts pin geometry from DEF (Design Exchange Format) files.
//
// Only the PINS subset used for top-level ports is understood:
//
//	PINS n ;
//	  - NAME + NET net + DIRECTION dir + USE use
//	    + LAYER met4 ( x1 y1 ) ( x2 y2 )
//	    + PLACED ( px py ) N ;
//	END PINS
//
// Anything else in the file is tokenized and stepped over.
package def

import "fmt"

// DefaultLayer is the routing layer that carries top-level pins.
const DefaultLayer = "met4"

// Direction is the signal direction of a pin
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionInput
	DirectionOutput
	DirectionInout
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "INPUT"
	case DirectionOutput:
		return "OUTPUT"
	case DirectionInout:
		return "INOUT"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection maps a DEF DIRECTION keyword. Unrecognized keywords
// (FEEDTHRU, typos) become DirectionUnknown.
func ParseDirection(s string) Direction {
	switch s {
	case "INPUT":
		return DirectionInput
	case "OUTPUT":
		return DirectionOutput
	case "INOUT":
		return DirectionInout
	default:
		return DirectionUnknown
	}
}

// Use is the electrical use of a pin
type Use int

const (
	UseUnknown Use = iota
	UsePower
	UseGround
	UseSignal
)

func (u Use) String() string {
	switch u {
	case UsePower:
		return "POWER"
	case UseGround:
		return "GROUND"
	case UseSignal:
		return "SIGNAL"
	default:
		return "UNKNOWN"
	}
}

// ParseUse maps a DEF USE keyword
func ParseUse(s string) Use {
	switch s {
	case "POWER":
		return UsePower
	case "GROUND":
		return UseGround
	case "SIGNAL":
		return UseSignal
	default:
		return UseUnknown
	}
}

// Orientation is a DEF placement orientation code (N, S, E, W, FN, FS, FE, FW)
type Orientation string

const (
	North Orientation = "N"
	South Orientation = "S"
	East  Orientation = "E"
	West  Orientation = "W"
)

// Point is a coordinate in database units
type Point struct {
	X, Y int64
}

// Rect is a rectangle in database units as written in the file.
// The corners are not normalized: X1 may be greater than X2.
type Rect struct {
	X1, Y1, X2, Y2 int64
}

// Width returns |X2-X1|
func (r Rect) Width() int64 {
	return abs(r.X2 - r.X1)
}

// Height returns |Y2-Y1|
func (r Rect) Height() int64 {
	return abs(r.Y2 - r.Y1)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// PortRecord is one pin block matched in a DEF file
type PortRecord struct {
	Name        string
	Net         string
	Direction   Direction
	Use         Use
	Layer       string
	BBox        Rect
	Placement   Point
	Orientation Orientation

	// Line is the 1-based line of the block's leading "-"
	Line int
}

func (r PortRecord) String() string {
	return fmt.Sprintf("%s (net %s, %s %s) at (%d, %d) %s",
		r.Name, r.Net, r.Direction, r.Use, r.Placement.X, r.Placement.Y, r.Orientation)
}

// Header holds the design-level statements read ahead of the pin blocks
type Header struct {
	Design  string
	Units   Units
	DieArea Rect
	HasDie  bool
}
