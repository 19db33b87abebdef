// Package export writes a layout.Model to disk. Each format is a Sink; the
// model itself knows nothing about file formats.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

// Sink renders a model into one artifact format
type Sink interface {
	// Ext is the file extension without the leading dot
	Ext() string
	Emit(m *layout.Model, w io.Writer) error
}

// Artifact describes a written file
type Artifact struct {
	Format string
	Path   string
	Size   int64
}

// ArtifactMode is the permission of written artifacts
const ArtifactMode os.FileMode = 0o644

// ArtifactPath returns <dir>/<cell>.<ext>
func ArtifactPath(dir, cell, ext string) string {
	return filepath.Join(dir, cell+"."+ext)
}

// WriteFile emits m through s into <dir>/<cell>.<ext>, creating dir if
// needed. The artifact is written to a temporary file first and renamed in
// place, so a failed emit never leaves a partial file behind.
func WriteFile(s Sink, m *layout.Model, dir string) (Artifact, error) {
	if m.Cell == "" || strings.ContainsAny(m.Cell, `/\`) {
		return Artifact{}, fmt.Errorf("invalid cell name %q", m.Cell)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := ArtifactPath(dir, m.Cell, s.Ext())
	tmp, err := os.CreateTemp(dir, "."+m.Cell+"-*.tmp")
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create temporary file: %w", err)
	}

	// CreateTemp opens files 0600
	if err := tmp.Chmod(ArtifactMode); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("failed to set mode on %s: %w", path, err)
	}

	size, err := emitTo(s, m, tmp)
	if err != nil {
		os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return Artifact{Format: s.Ext(), Path: path, Size: size}, nil
}

// emitTo writes through a buffer and always closes f
func emitTo(s Sink, m *layout.Model, f *os.File) (int64, error) {
	cw := &countingWriter{w: f}
	bw := bufio.NewWriter(cw)

	err := s.Emit(m, bw)
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ByName returns the sinks for a list of format names (gds, svg, ports)
func ByName(names []string) ([]Sink, error) {
	var sinks []Sink
	var errs []error
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "gds", "gdsii":
			sinks = append(sinks, NewGDSWriter())
		case "svg":
			sinks = append(sinks, NewSVGWriter())
		case "ports", "msgpack":
			sinks = append(sinks, PortsWriter{})
		default:
			errs = append(errs, fmt.Errorf("unknown output format %q", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sinks, nil
}
