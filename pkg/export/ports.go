package export

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

// PortManifest is the pin list written next to the layout so downstream
// tools can index ports by name without reading GDS.
type PortManifest struct {
	Cell  string      `msgpack:"cell"`
	Ports []PortEntry `msgpack:"ports"`
}

// PortEntry is one port of the manifest, lengths in microns
type PortEntry struct {
	Name        string  `msgpack:"name"`
	Net         string  `msgpack:"net"`
	X           float64 `msgpack:"x"`
	Y           float64 `msgpack:"y"`
	Width       float64 `msgpack:"width"`
	Height      float64 `msgpack:"height"`
	Orientation float64 `msgpack:"orientation"`
	Layer       int     `msgpack:"layer"`
	Datatype    int     `msgpack:"datatype"`
	Direction   string  `msgpack:"direction"`
	Use         string  `msgpack:"use"`
	Source      string  `msgpack:"source,omitempty"`
}

// PortsWriter writes the port list as msgpack
type PortsWriter struct{}

// Ext returns "ports.msgpack"
func (PortsWriter) Ext() string { return "ports.msgpack" }

// Emit encodes the manifest of m
func (PortsWriter) Emit(m *layout.Model, w io.Writer) error {
	manifest := NewPortManifest(m)
	if err := msgpack.NewEncoder(w).Encode(&manifest); err != nil {
		return fmt.Errorf("failed to encode port manifest: %w", err)
	}
	return nil
}

// NewPortManifest lists the ports of m in insertion order
func NewPortManifest(m *layout.Model) PortManifest {
	ports := m.Ports()
	manifest := PortManifest{
		Cell:  m.Cell,
		Ports: make([]PortEntry, 0, len(ports)),
	}
	for _, p := range ports {
		manifest.Ports = append(manifest.Ports, PortEntry{
			Name:        p.Name,
			Net:         p.Net,
			X:           p.Center.X,
			Y:           p.Center.Y,
			Width:       p.Width,
			Height:      p.Height,
			Orientation: p.Orientation,
			Layer:       p.Layer.Number,
			Datatype:    p.Layer.Datatype,
			Direction:   p.Direction.String(),
			Use:         p.Use.String(),
			Source:      p.Source,
		})
	}
	return manifest
}

// ReadPortManifest decodes a manifest written by PortsWriter
func ReadPortManifest(r io.Reader) (PortManifest, error) {
	var manifest PortManifest
	if err := msgpack.NewDecoder(r).Decode(&manifest); err != nil {
		return PortManifest{}, fmt.Errorf("failed to decode port manifest: %w", err)
	}
	return manifest, nil
}
