package layout

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	rec := def.PortRecord{
		Name:        "clk",
		Net:         "clk",
		Direction:   def.DirectionInput,
		Use:         def.UseSignal,
		BBox:        def.Rect{X1: 150, Y1: 500, X2: -150, Y2: -500},
		Placement:   def.Point{X: 143980, Y: 224760},
		Orientation: def.South,
	}

	port, poly := ResolvePort(rec, def.DefaultUnits(), LayerMet4)

	assert.Equal(t, "clk", port.Name)
	assert.Equal(t, Position{X: 143.98, Y: 224.76}, port.Center)
	assert.Equal(t, 0.3, port.Width)
	assert.Equal(t, 1.0, port.Height)
	assert.Equal(t, 270.0, port.Orientation)
	assert.Equal(t, def.DirectionInput, port.Direction)
	assert.Equal(t, LayerMet4, port.Layer)

	require.Len(t, poly.Points, 4)
	assert.InDelta(t, 143.83, poly.Points[0].X, 1e-9)
	assert.InDelta(t, 224.26, poly.Points[0].Y, 1e-9)
	assert.InDelta(t, 144.13, poly.Points[2].X, 1e-9)
	assert.InDelta(t, 225.26, poly.Points[2].Y, 1e-9)
	assert.Equal(t, LayerMet4, poly.Layer)
}

func TestResolvePortUnits(t *testing.T) {
	rec := def.PortRecord{
		Name:      "a",
		BBox:      def.Rect{X1: 0, Y1: 0, X2: 2000, Y2: 4000},
		Placement: def.Point{X: 2000, Y: 2000},
	}
	port, _ := ResolvePort(rec, def.Units{DBUPerMicron: 2000}, LayerMet4)
	assert.Equal(t, Position{X: 1, Y: 1}, port.Center)
	assert.Equal(t, 1.0, port.Width)
	assert.Equal(t, 2.0, port.Height)
	assert.Equal(t, 0.0, port.Orientation)
}

func TestModelRejectsDuplicatePorts(t *testing.T) {
	m := NewModel("top")
	require.NoError(t, m.AddPort(Port{Name: "VGND", Source: "stripes"}))

	err := m.AddPort(Port{Name: "VGND", Source: "top.def:9"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPortConflict))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "VGND", conflict.Name)
	assert.Equal(t, "stripes", conflict.Existing)
	assert.Equal(t, "top.def:9", conflict.Incoming)
	assert.Contains(t, err.Error(), "top.def:9")

	assert.Equal(t, 1, m.PortCount())
	p, ok := m.Port("VGND")
	require.True(t, ok)
	assert.Equal(t, "stripes", p.Source)
}

func TestModelStripesAndBoundingBox(t *testing.T) {
	m := NewModel("top")
	require.NoError(t, m.AddStripes(DefaultStripeConfig(), DefaultLayers()))

	assert.Len(t, m.Polygons, 2)
	assert.Len(t, m.Labels, 2)
	ports := m.Ports()
	require.Len(t, ports, 2)
	assert.Equal(t, "VDPWR", ports[0].Name)
	assert.Equal(t, "VGND", ports[1].Name)

	bbox := m.BoundingBox()
	assert.False(t, bbox.IsEmpty())
	assert.InDelta(t, 1.0, bbox.Min.X, 1e-9)
	assert.InDelta(t, 5.0, bbox.Min.Y, 1e-9)
	assert.InDelta(t, 6.0, bbox.Max.X, 1e-9)
	assert.InDelta(t, 220.76, bbox.Max.Y, 1e-9)

	assert.True(t, NewModel("empty").BoundingBox().IsEmpty())
}

const pinsDEF = `DESIGN top ;
UNITS DISTANCE MICRONS 1000 ;
PINS 3 ;
- clk + NET clk + DIRECTION INPUT + USE SIGNAL
  + LAYER met4 ( -150 -500 ) ( 150 500 ) + PLACED ( 10000 20000 ) N ;
- rst_n + NET rst_n + DIRECTION INPUT + USE SIGNAL
  + LAYER met3 ( -150 -500 ) ( 150 500 ) + PLACED ( 11000 20000 ) N ;
- ena + NET ena + DIRECTION INPUT + USE SIGNAL
  + LAYER met4 ( -150 -500 ) ( 150 500 ) + PLACED ( 12000 20000 ) W ;
END PINS
END DESIGN
`

func writeDEF(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuilderBuild(t *testing.T) {
	path := writeDEF(t, "top.def", pinsDEF)

	b := NewBuilder()
	m, results, err := b.Build(context.Background(), "tt_rc_filter", []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "tt_rc_filter", m.Cell)
	assert.Equal(t, 2, results[0].Stats.Parsed)
	assert.Equal(t, 3, results[0].Stats.Candidates)

	ports := m.Ports()
	require.Len(t, ports, 4)
	assert.Equal(t, []string{"VDPWR", "VGND", "clk", "ena"},
		[]string{ports[0].Name, ports[1].Name, ports[2].Name, ports[3].Name})

	clk, ok := m.Port("clk")
	require.True(t, ok)
	assert.Equal(t, Position{X: 10, Y: 20}, clk.Center)
	assert.Equal(t, 90.0, clk.Orientation)
	assert.Equal(t, path+":4", clk.Source)

	ena, _ := m.Port("ena")
	assert.Equal(t, Position{X: 12, Y: 20}, ena.Center)
	assert.Equal(t, 180.0, ena.Orientation)

	// two stripe rectangles plus one per DEF port
	assert.Len(t, m.Polygons, 4)
	assert.Len(t, m.Labels, 2)
}

func TestBuilderConflictBetweenStripeAndDEF(t *testing.T) {
	path := writeDEF(t, "top.def", `- VGND + NET VGND + DIRECTION INOUT + USE GROUND
  + LAYER met4 ( -1000 -100000 ) ( 1000 100000 ) + PLACED ( 5000 112880 ) N ;`)

	m, _, err := NewBuilder().Build(context.Background(), "top", []string{path})
	require.Error(t, err)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrPortConflict)
	assert.Contains(t, err.Error(), path+":1")
}

func TestBuilderConflictAcrossFiles(t *testing.T) {
	a := writeDEF(t, "a.def", pinsDEF)
	b := writeDEF(t, "b.def", pinsDEF)

	builder := NewBuilder()
	builder.Jobs = 2
	_, _, err := builder.Build(context.Background(), "top", []string{a, b})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "clk", conflict.Name)
	assert.Equal(t, a+":4", conflict.Existing)
	assert.Equal(t, b+":4", conflict.Incoming)
}

func TestBuilderConflictWithinFile(t *testing.T) {
	path := writeDEF(t, "top.def", `PINS 2 ;
- clk + NET clk + DIRECTION INPUT + USE SIGNAL
  + LAYER met4 ( -150 -500 ) ( 150 500 ) + PLACED ( 10000 20000 ) N ;
- clk + NET clk2 + DIRECTION INPUT + USE SIGNAL
  + LAYER met4 ( -150 -500 ) ( 150 500 ) + PLACED ( 11000 20000 ) N ;
END PINS
`)

	m, results, err := NewBuilder().Build(context.Background(), "top", []string{path})
	assert.Nil(t, m)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Stats.Parsed)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "clk", conflict.Name)
	assert.Equal(t, path+":2", conflict.Existing)
	assert.Equal(t, path+":4", conflict.Incoming)
}

func TestBuilderMissingFile(t *testing.T) {
	_, _, err := NewBuilder().Build(context.Background(), "top",
		[]string{filepath.Join(t.TempDir(), "nope.def")})

	var inputErr *def.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuilderStrict(t *testing.T) {
	path := writeDEF(t, "top.def", pinsDEF)

	b := NewBuilder()
	b.DEFOptions = []def.Option{def.WithStrict()}
	_, _, err := b.Build(context.Background(), "top", []string{path})
	assert.ErrorIs(t, err, def.ErrSkipped)
}

func TestBuilderStripesOnly(t *testing.T) {
	m, results, err := NewBuilder().Build(context.Background(), "top", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 2, m.PortCount())
}

func TestBuilderCancelled(t *testing.T) {
	path := writeDEF(t, "top.def", pinsDEF)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBuilder().Build(ctx, "top", []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}
