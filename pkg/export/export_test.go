package export

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(t *testing.T) *layout.Model {
	t.Helper()
	m := layout.NewModel("tt_rc_filter")
	require.NoError(t, m.AddStripes(layout.DefaultStripeConfig(), layout.DefaultLayers()))

	port, poly := layout.ResolvePort(def.PortRecord{
		Name:        "clk",
		Net:         "clk",
		Direction:   def.DirectionInput,
		Use:         def.UseSignal,
		BBox:        def.Rect{X1: -150, Y1: -500, X2: 150, Y2: 500},
		Placement:   def.Point{X: 10000, Y: 20000},
		Orientation: def.North,
	}, def.DefaultUnits(), layout.LayerMet4)
	port.Source = "top.def:4"
	require.NoError(t, m.AddPort(port))
	m.AddPolygon(poly)
	return m
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
}

func TestGDSRealEncoding(t *testing.T) {
	assert.Equal(t, uint64(0), gdsReal(0))
	assert.Equal(t, uint64(0x4110000000000000), gdsReal(1.0))
	assert.Equal(t, uint64(0xC128000000000000), gdsReal(-2.5))

	for _, v := range []float64{1e-3, 1e-9, 0.5, 1234.5678, -7e-12} {
		got := parseGDSReal(gdsReal(v))
		assert.InEpsilon(t, v, got, 1e-14, "round trip of %g", v)
	}
}

func TestGDSWriterStream(t *testing.T) {
	m := testModel(t)
	w := NewGDSWriter()
	w.Now = fixedClock

	var buf bytes.Buffer
	require.NoError(t, w.Emit(m, &buf))
	require.Zero(t, buf.Len()%2, "GDSII records have even length")

	records, err := ReadGDSRecords(&buf)
	require.NoError(t, err)

	assert.Equal(t, byte(recHeader), records[0].Type)
	assert.Equal(t, []int16{gdsVersion}, records[0].Int16s())
	assert.Equal(t, []int16{2026, 10, 19, 12, 30, 0, 2026, 10, 19, 12, 30, 0}, records[1].Int16s())
	assert.Equal(t, "tt_rc_filter", records[2].String())

	units := records[3].Reals()
	require.Len(t, units, 2)
	assert.InEpsilon(t, 1e-3, units[0], 1e-12)
	assert.InEpsilon(t, 1e-9, units[1], 1e-12)

	var boundaries, texts int
	var strs []string
	var firstXY []int32
	var props []string
	for i, rec := range records {
		switch rec.Type {
		case recBoundary:
			boundaries++
			if firstXY == nil {
				assert.Equal(t, []int16{65}, records[i+1].Int16s())
				assert.Equal(t, []int16{20}, records[i+2].Int16s())
				firstXY = records[i+3].Int32s()
			}
		case recText:
			texts++
		case recString:
			strs = append(strs, rec.String())
		case recPropValue:
			props = append(props, rec.String())
		}
	}

	// 2 stripes + 1 pin rectangle; 2 labels + 3 ports
	assert.Equal(t, 3, boundaries)
	assert.Equal(t, 5, texts)
	assert.Equal(t, []string{"VDPWR", "VGND", "VDPWR", "VGND", "clk"}, strs)
	assert.Equal(t, []int32{1000, 5000, 3000, 5000, 3000, 220760, 1000, 220760, 1000, 5000}, firstXY)
	assert.Contains(t, props, "INPUT SIGNAL")
	assert.Contains(t, props, "width=0.3 height=1 orientation=90")

	last := records[len(records)-1]
	assert.Equal(t, byte(recEndLib), last.Type)
	assert.Equal(t, byte(recEndStr), records[len(records)-2].Type)
}

func TestGDSWriterRejectsOutOfRange(t *testing.T) {
	m := layout.NewModel("huge")
	m.AddPolygon(layout.Rectangle(layout.Position{X: 5e6}, 1, 1, layout.LayerMet4))

	err := NewGDSWriter().Emit(m, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	m = layout.NewModel("badlayer")
	m.AddPolygon(layout.Rectangle(layout.Position{}, 1, 1, layout.Layer{Number: 70000}))
	assert.Error(t, NewGDSWriter().Emit(m, io.Discard))
}

func TestSVGWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSVGWriter().Emit(testModel(t), &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<title>tt_rc_filter</title>")
	assert.Equal(t, 3, strings.Count(out, "<polygon"))
	assert.Contains(t, out, ">VDPWR</text>")
	assert.Contains(t, out, ">clk</text>")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Equal(t, 3, strings.Count(out, "font-size:8px;stroke:none"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestPortManifestRoundTrip(t *testing.T) {
	m := testModel(t)

	var buf bytes.Buffer
	require.NoError(t, PortsWriter{}.Emit(m, &buf))

	manifest, err := ReadPortManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, NewPortManifest(m), manifest)

	require.Len(t, manifest.Ports, 3)
	clk := manifest.Ports[2]
	assert.Equal(t, "clk", clk.Name)
	assert.Equal(t, 10.0, clk.X)
	assert.Equal(t, 20.0, clk.Y)
	assert.Equal(t, 90.0, clk.Orientation)
	assert.Equal(t, 65, clk.Layer)
	assert.Equal(t, "INPUT", clk.Direction)
	assert.Equal(t, "top.def:4", clk.Source)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gds")
	m := testModel(t)

	art, err := WriteFile(NewGDSWriter(), m, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tt_rc_filter.gds"), art.Path)
	assert.Equal(t, "gds", art.Format)

	info, err := os.Stat(art.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), art.Size)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(), "artifact must be readable by others")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

type failingSink struct{}

func (failingSink) Ext() string { return "bad" }

func (failingSink) Emit(m *layout.Model, w io.Writer) error {
	w.Write([]byte("partial"))
	return errors.New("boom")
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteFile(failingSink{}, testModel(t), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileRejectsBadCell(t *testing.T) {
	_, err := WriteFile(PortsWriter{}, layout.NewModel("../escape"), t.TempDir())
	assert.Error(t, err)
	_, err = WriteFile(PortsWriter{}, layout.NewModel(""), t.TempDir())
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	sinks, err := ByName([]string{"gds", "SVG", " ports "})
	require.NoError(t, err)
	require.Len(t, sinks, 3)
	assert.Equal(t, "gds", sinks[0].Ext())
	assert.Equal(t, "svg", sinks[1].Ext())
	assert.Equal(t, "ports.msgpack", sinks[2].Ext())

	_, err = ByName([]string{"gds", "oasis"})
	assert.ErrorContains(t, err, "oasis")
}
