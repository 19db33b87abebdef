package export

import (
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

// SVGWriter renders a quick visual check of the model: metal in one color,
// labels as text, ports as a dot with an arrow pointing along their
// orientation.
type SVGWriter struct {
	Scale  float64 // pixels per micron
	Margin int     // pixels around the drawing
}

// NewSVGWriter returns a writer at 4 px/um
func NewSVGWriter() *SVGWriter {
	return &SVGWriter{Scale: 4, Margin: 20}
}

// Ext returns "svg"
func (s *SVGWriter) Ext() string { return "svg" }

var svgLayerStyles = []string{
	"fill:#4a7dbf;fill-opacity:0.6;stroke:#2b4f80;stroke-width:1",
	"fill:#bf4a4a;fill-opacity:0.6;stroke:#802b2b;stroke-width:1",
	"fill:#4abf6b;fill-opacity:0.6;stroke:#2b8041;stroke-width:1",
}

// Emit writes the model as an SVG document
func (s *SVGWriter) Emit(m *layout.Model, w io.Writer) error {
	scale := s.Scale
	if scale <= 0 {
		scale = 4
	}

	bbox := m.BoundingBox()
	if bbox.IsEmpty() {
		bbox = layout.BoundingBox{}
	}

	width := int(math.Ceil(bbox.Width()*scale)) + 2*s.Margin
	height := int(math.Ceil(bbox.Height()*scale)) + 2*s.Margin

	// layout Y grows upwards, SVG Y downwards
	toScreen := func(p layout.Position) (int, int) {
		x := (p.X-bbox.Min.X)*scale + float64(s.Margin)
		y := (bbox.Max.Y-p.Y)*scale + float64(s.Margin)
		return int(math.Round(x)), int(math.Round(y))
	}

	styles := make(map[layout.Layer]string)
	styleFor := func(l layout.Layer) string {
		if st, ok := styles[l]; ok {
			return st
		}
		st := svgLayerStyles[len(styles)%len(svgLayerStyles)]
		styles[l] = st
		return st
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(m.Cell)
	canvas.Rect(0, 0, width, height, "fill:white")

	canvas.Group(`id="polygons"`)
	for _, poly := range m.Polygons {
		xs := make([]int, len(poly.Points))
		ys := make([]int, len(poly.Points))
		for i, p := range poly.Points {
			xs[i], ys[i] = toScreen(p)
		}
		canvas.Polygon(xs, ys, styleFor(poly.Layer))
	}
	canvas.Gend()

	canvas.Group(`id="labels"`, "font-family:monospace;font-size:10px;fill:black;text-anchor:middle")
	for _, label := range m.Labels {
		x, y := toScreen(label.Position)
		canvas.Text(x, y, label.Text)
	}
	canvas.Gend()

	canvas.Group(`id="ports"`, "stroke:black;stroke-width:1")
	for _, port := range m.Ports() {
		x, y := toScreen(port.Center)
		canvas.Circle(x, y, 2, "fill:black")
		rad := port.Orientation * math.Pi / 180
		dx := int(math.Round(8 * math.Cos(rad)))
		dy := -int(math.Round(8 * math.Sin(rad)))
		canvas.Line(x, y, x+dx, y+dy)
		canvas.Text(x+dx, y+dy-2, port.Name, "font-size:8px;stroke:none")
	}
	canvas.Gend()

	canvas.End()
	return nil
}
