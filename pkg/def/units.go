package def

import "math"

// DefaultDBUPerMicron is the database resolution used when a file has no
// UNITS DISTANCE MICRONS statement.
const DefaultDBUPerMicron = 1000

// Units converts between DEF database units and microns
type Units struct {
	DBUPerMicron int64
}

// DefaultUnits returns 1000 database units per micron
func DefaultUnits() Units {
	return Units{DBUPerMicron: DefaultDBUPerMicron}
}

func (u Units) factor() int64 {
	if u.DBUPerMicron <= 0 {
		return DefaultDBUPerMicron
	}
	return u.DBUPerMicron
}

// ToMicrons converts a database unit value to microns.
// A single division keeps ToMicrons(1000) == 1.0 exact.
func (u Units) ToMicrons(dbu int64) float64 {
	return float64(dbu) / float64(u.factor())
}

// ToDBU converts microns back to the nearest database unit
func (u Units) ToDBU(um float64) int64 {
	return int64(math.Round(um * float64(u.factor())))
}

var orientationAngles = map[Orientation]float64{
	North: 90,
	South: 270,
	East:  0,
	West:  180,
}

// OrientationToAngle maps an orientation code to a port angle in degrees.
// Codes outside N/S/E/W (flipped variants included) fall back to 0 (east).
func OrientationToAngle(o Orientation) float64 {
	if angle, ok := orientationAngles[o]; ok {
		return angle
	}
	return 0
}
