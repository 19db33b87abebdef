package layout

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
)

// Rectangle returns the axis-aligned rectangle of the given size centered on
// center, corners counter-clockwise from the lower left.
func Rectangle(center Position, width, height float64, layer Layer) Polygon {
	hw, hh := width/2, height/2
	return Polygon{
		Points: []Position{
			{X: center.X - hw, Y: center.Y - hh},
			{X: center.X + hw, Y: center.Y - hh},
			{X: center.X + hw, Y: center.Y + hh},
			{X: center.X - hw, Y: center.Y + hh},
		},
		Layer: layer,
	}
}

// ResolvePort converts a DEF pin record to a port and the filled rectangle
// drawn under it. Extents come from the pin rectangle, the center from the
// placement point.
func ResolvePort(rec def.PortRecord, units def.Units, layer Layer) (Port, Polygon) {
	port := Port{
		Name: rec.Name,
		Net:  rec.Net,
		Center: Position{
			X: units.ToMicrons(rec.Placement.X),
			Y: units.ToMicrons(rec.Placement.Y),
		},
		Width:       units.ToMicrons(rec.BBox.Width()),
		Height:      units.ToMicrons(rec.BBox.Height()),
		Orientation: def.OrientationToAngle(rec.Orientation),
		Layer:       layer,
		Direction:   rec.Direction,
		Use:         rec.Use,
	}
	return port, Rectangle(port.Center, port.Width, port.Height, layer)
}

// sourceOf formats the file position of a record for error messages
func sourceOf(path string, rec def.PortRecord) string {
	if path == "" {
		path = "<input>"
	}
	return fmt.Sprintf("%s:%d", path, rec.Line)
}
