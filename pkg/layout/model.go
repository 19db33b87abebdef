package layout

import (
	"errors"
	"fmt"
)

// ErrPortConflict matches any *ConflictError
var ErrPortConflict = errors.New("duplicate port name")

// ConflictError reports two ports with the same name
type ConflictError struct {
	Name     string
	Existing string // source of the port already in the model
	Incoming string // source of the rejected port
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("port %s from %s conflicts with port from %s", e.Name, e.Incoming, e.Existing)
}

func (e *ConflictError) Is(target error) bool { return target == ErrPortConflict }

// Model is the geometry of one cell: polygons and labels in drawing order
// and ports indexed by unique name.
type Model struct {
	Cell     string
	Polygons []Polygon
	Labels   []Label

	ports     []Port
	portIndex map[string]int
}

// NewModel creates an empty model for the named cell
func NewModel(cell string) *Model {
	return &Model{
		Cell:      cell,
		portIndex: make(map[string]int),
	}
}

// AddPolygon appends a polygon
func (m *Model) AddPolygon(p Polygon) {
	m.Polygons = append(m.Polygons, p)
}

// AddLabel appends a label
func (m *Model) AddLabel(l Label) {
	m.Labels = append(m.Labels, l)
}

// AddPort inserts a port. A port whose name is already taken is rejected
// with a *ConflictError and the model is left unchanged.
func (m *Model) AddPort(p Port) error {
	if i, exists := m.portIndex[p.Name]; exists {
		return &ConflictError{
			Name:     p.Name,
			Existing: m.ports[i].Source,
			Incoming: p.Source,
		}
	}
	m.portIndex[p.Name] = len(m.ports)
	m.ports = append(m.ports, p)
	return nil
}

// Port looks up a port by name
func (m *Model) Port(name string) (Port, bool) {
	i, ok := m.portIndex[name]
	if !ok {
		return Port{}, false
	}
	return m.ports[i], true
}

// Ports returns the ports in insertion order
func (m *Model) Ports() []Port {
	out := make([]Port, len(m.ports))
	copy(out, m.ports)
	return out
}

// PortCount returns the number of ports
func (m *Model) PortCount() int {
	return len(m.ports)
}

// AddStripes draws a stripe table into the model
func (m *Model) AddStripes(cfg StripeConfig, layers LayerSet) error {
	for _, g := range GenerateStripes(cfg, layers) {
		if err := m.AddPort(g.Port); err != nil {
			return err
		}
		m.AddPolygon(g.Polygon)
		m.AddLabel(g.Label)
	}
	return nil
}

// BoundingBox covers every polygon vertex, label and port extent
func (m *Model) BoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for _, poly := range m.Polygons {
		for _, pt := range poly.Points {
			bbox.Expand(pt)
		}
	}

	for _, label := range m.Labels {
		bbox.Expand(label.Position)
	}

	for _, port := range m.ports {
		hw, hh := port.Width/2, port.Height/2
		bbox.Expand(Position{X: port.Center.X - hw, Y: port.Center.Y - hh})
		bbox.Expand(Position{X: port.Center.X + hw, Y: port.Center.Y + hh})
	}

	return bbox
}
