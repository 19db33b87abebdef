package export

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// GDSRecord is one raw record of a GDSII stream
type GDSRecord struct {
	Type     byte
	DataType byte
	Data     []byte
}

// Int16s decodes a 2-byte integer record
func (r GDSRecord) Int16s() []int16 {
	out := make([]int16, len(r.Data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.Data[2*i:]))
	}
	return out
}

// Int32s decodes a 4-byte integer record
func (r GDSRecord) Int32s() []int32 {
	out := make([]int32, len(r.Data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.Data[4*i:]))
	}
	return out
}

// Reals decodes an 8-byte real record
func (r GDSRecord) Reals() []float64 {
	out := make([]float64, len(r.Data)/8)
	for i := range out {
		out[i] = parseGDSReal(binary.BigEndian.Uint64(r.Data[8*i:]))
	}
	return out
}

// String decodes an ASCII record without its NUL padding
func (r GDSRecord) String() string {
	return strings.TrimRight(string(r.Data), "\x00")
}

// ReadGDSRecords reads a GDSII stream up to and including ENDLIB
func ReadGDSRecords(r io.Reader) ([]GDSRecord, error) {
	var records []GDSRecord
	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if errors.Is(err, io.EOF) {
				return records, fmt.Errorf("stream ended without ENDLIB")
			}
			return records, err
		}
		length := int(binary.BigEndian.Uint16(header))
		if length < 4 {
			return records, fmt.Errorf("invalid record length %d", length)
		}
		rec := GDSRecord{Type: header[2], DataType: header[3], Data: make([]byte, length-4)}
		if _, err := io.ReadFull(r, rec.Data); err != nil {
			return records, fmt.Errorf("truncated record 0x%02x: %w", rec.Type, err)
		}
		records = append(records, rec)
		if rec.Type == recEndLib {
			return records, nil
		}
	}
}
