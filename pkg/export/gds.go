package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"fortio.org/safecast"

	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

// GDSII record types
const (
	recHeader    = 0x00
	recBgnLib    = 0x01
	recLibName   = 0x02
	recUnits     = 0x03
	recEndLib    = 0x04
	recBgnStr    = 0x05
	recStrName   = 0x06
	recEndStr    = 0x07
	recBoundary  = 0x08
	recText      = 0x0C
	recLayer     = 0x0D
	recDatatype  = 0x0E
	recXY        = 0x10
	recEndEl     = 0x11
	recTextType  = 0x16
	recString    = 0x19
	recPropAttr  = 0x2B
	recPropValue = 0x2C
)

// GDSII data types
const (
	dtNone   = 0x00
	dtInt16  = 0x02
	dtInt32  = 0x03
	dtReal64 = 0x05
	dtASCII  = 0x06
)

const gdsVersion = 600

// Property attribute numbers attached to port TEXT elements
const (
	PropPortInfo  = 1 // "<direction> <use>"
	PropPortShape = 2 // "width=<um> height=<um> orientation=<deg>"
)

// GDSWriter writes a GDSII stream with one structure named after the cell.
// Polygons become BOUNDARY elements, labels TEXT on their layer and ports
// TEXT on the port layer carrying the port name.
type GDSWriter struct {
	// DBUPerMicron is the database resolution of the stream
	DBUPerMicron int64

	// LibName defaults to the cell name
	LibName string

	// Now stamps BGNLIB/BGNSTR; defaults to time.Now
	Now func() time.Time
}

// NewGDSWriter returns a writer with 1 nm resolution
func NewGDSWriter() *GDSWriter {
	return &GDSWriter{DBUPerMicron: 1000, Now: time.Now}
}

// Ext returns "gds"
func (g *GDSWriter) Ext() string { return "gds" }

// Emit writes the model as a GDSII stream
func (g *GDSWriter) Emit(m *layout.Model, w io.Writer) error {
	dbu := g.DBUPerMicron
	if dbu <= 0 {
		dbu = 1000
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	libName := g.LibName
	if libName == "" {
		libName = m.Cell
	}

	gw := &gdsStream{w: w, dbu: dbu}
	stamp := gdsTimestamp(now())

	gw.int16s(recHeader, gdsVersion)
	gw.int16s(recBgnLib, append(stamp, stamp...)...)
	gw.ascii(recLibName, libName)
	gw.reals(recUnits, 1/float64(dbu), 1e-6/float64(dbu))

	gw.int16s(recBgnStr, append(stamp, stamp...)...)
	gw.ascii(recStrName, m.Cell)

	for _, poly := range m.Polygons {
		gw.boundary(poly)
	}
	for _, label := range m.Labels {
		gw.text(label.Layer, label.Position, label.Text)
	}
	for _, port := range m.Ports() {
		gw.portText(port)
	}

	gw.empty(recEndStr)
	gw.empty(recEndLib)
	return gw.err
}

// gdsStream accumulates the first error so callers can write records
// unconditionally and check once at the end.
type gdsStream struct {
	w   io.Writer
	dbu int64
	err error
}

func (s *gdsStream) record(recType, dataType byte, data []byte) {
	if s.err != nil {
		return
	}
	length, err := safecast.Conv[uint16](len(data) + 4)
	if err != nil {
		s.err = fmt.Errorf("record 0x%02x too long: %w", recType, err)
		return
	}
	buf := make([]byte, 4, 4+len(data))
	binary.BigEndian.PutUint16(buf, length)
	buf[2] = recType
	buf[3] = dataType
	buf = append(buf, data...)
	_, s.err = s.w.Write(buf)
}

func (s *gdsStream) empty(recType byte) {
	s.record(recType, dtNone, nil)
}

func (s *gdsStream) int16s(recType byte, values ...int16) {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[2*i:], uint16(v))
	}
	s.record(recType, dtInt16, data)
}

func (s *gdsStream) int32s(recType byte, values ...int32) {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(data[4*i:], uint32(v))
	}
	s.record(recType, dtInt32, data)
}

func (s *gdsStream) reals(recType byte, values ...float64) {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(data[8*i:], gdsReal(v))
	}
	s.record(recType, dtReal64, data)
}

// ascii writes a string padded with NUL to an even length
func (s *gdsStream) ascii(recType byte, v string) {
	data := []byte(v)
	if len(data)%2 == 1 {
		data = append(data, 0)
	}
	s.record(recType, dtASCII, data)
}

func (s *gdsStream) layer(l layout.Layer, typeRec byte) {
	if s.err != nil {
		return
	}
	num, err := safecast.Conv[int16](l.Number)
	if err != nil {
		s.err = fmt.Errorf("layer %s: %w", l, err)
		return
	}
	dt, err := safecast.Conv[int16](l.Datatype)
	if err != nil {
		s.err = fmt.Errorf("layer %s: %w", l, err)
		return
	}
	s.int16s(recLayer, num)
	s.int16s(typeRec, dt)
}

// coord converts microns to a database unit that fits the 32-bit XY record
func (s *gdsStream) coord(um float64) int32 {
	v, err := safecast.Conv[int32](int64(math.Round(um * float64(s.dbu))))
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("coordinate %g um out of range: %w", um, err)
	}
	return v
}

func (s *gdsStream) boundary(poly layout.Polygon) {
	if len(poly.Points) < 3 {
		if s.err != nil {
			return
		}
		s.err = fmt.Errorf("polygon on layer %s has %d points", poly.Layer, len(poly.Points))
		return
	}
	s.empty(recBoundary)
	s.layer(poly.Layer, recDatatype)

	// XY repeats the first vertex to close the outline
	xy := make([]int32, 0, 2*(len(poly.Points)+1))
	for _, p := range poly.Points {
		xy = append(xy, s.coord(p.X), s.coord(p.Y))
	}
	xy = append(xy, xy[0], xy[1])
	s.int32s(recXY, xy...)
	s.empty(recEndEl)
}

func (s *gdsStream) text(l layout.Layer, pos layout.Position, value string) {
	s.empty(recText)
	s.layer(l, recTextType)
	s.int32s(recXY, s.coord(pos.X), s.coord(pos.Y))
	s.ascii(recString, value)
	s.empty(recEndEl)
}

// portText writes a port as a TEXT element with its shape and use
// attached as properties.
func (s *gdsStream) portText(p layout.Port) {
	s.empty(recText)
	s.layer(p.Layer, recTextType)
	s.int32s(recXY, s.coord(p.Center.X), s.coord(p.Center.Y))
	s.ascii(recString, p.Name)
	s.int16s(recPropAttr, PropPortInfo)
	s.ascii(recPropValue, p.Direction.String()+" "+p.Use.String())
	s.int16s(recPropAttr, PropPortShape)
	s.ascii(recPropValue, fmt.Sprintf("width=%g height=%g orientation=%g", p.Width, p.Height, p.Orientation))
	s.empty(recEndEl)
}

func gdsTimestamp(t time.Time) []int16 {
	return []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
}

// gdsReal encodes an 8-byte GDSII real: sign bit, 7-bit excess-64 base-16
// exponent and a 56-bit mantissa.
func gdsReal(v float64) uint64 {
	if v == 0 {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}
	exp := 64
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mant := uint64(v * (1 << 56))
	return sign | uint64(exp)<<56 | mant
}

// parseGDSReal decodes an 8-byte GDSII real
func parseGDSReal(bits uint64) float64 {
	if bits&^(1<<63) == 0 {
		return 0
	}
	exp := int((bits>>56)&0x7F) - 64
	mant := float64(bits&(1<<56-1)) / (1 << 56)
	v := mant * math.Pow(16, float64(exp))
	if bits&(1<<63) != 0 {
		return -v
	}
	return v
}
