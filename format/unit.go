package format

import "fmt"

// Unit is the 16-bit SI unit code of a measurement.
//
// Base and derived units fit in 8 bits; combined units need the full 16.
//
// Memory map:
//   - 0x0000         undefined
//   - 0x0001..0x000F reserved
//   - 0x0010..0x001F SI base units
//   - 0x0020..0x003F SI derived units
//   - 0x0040..0x007F reserved
//   - 0x0080..0x008F unitless values (percent, interval)
//   - 0x0090..0x00FF reserved
//   - 0x0100..0x7FFF SI combined units
//   - 0x8000..0xFEFF reserved
//   - 0xFF00..0xFFFE user-defined units
//   - 0xFFFF         table maximum
type Unit uint16

const (
	UnitUndefined Unit = 0x0000

	// SI base units.
	UnitAmpere   Unit = 0x0010 // A, electric current
	UnitCandela  Unit = 0x0011 // cd, luminous intensity
	UnitKelvin   Unit = 0x0012 // K, thermodynamic temperature
	UnitKilogram Unit = 0x0013 // kg, mass
	UnitMeter    Unit = 0x0014 // m, length
	UnitMole     Unit = 0x0015 // mol, amount of substance
	UnitSecond   Unit = 0x0016 // s, time

	// SI derived units.
	UnitBecquerel     Unit = 0x0020 // Bq, 1/s
	UnitCoulomb       Unit = 0x0021 // C, A*s
	UnitDegreeCelsius Unit = 0x0022 // degC
	UnitFarad         Unit = 0x0023 // F, C/V
	UnitGray          Unit = 0x0024 // Gy, J/kg
	UnitHenry         Unit = 0x0025 // H, Wb/A
	UnitHertz         Unit = 0x0026 // Hz, 1/s
	UnitJoule         Unit = 0x0027 // J, N*m
	UnitKatal         Unit = 0x0028 // kat, mol/s
	UnitLumen         Unit = 0x0029 // lm, cd*sr
	UnitLux           Unit = 0x002A // lx, lm/m^2
	UnitNewton        Unit = 0x002B // N, kg*m/s^2
	UnitOhm           Unit = 0x002C // V/A
	UnitPascal        Unit = 0x002D // Pa, N/m^2
	UnitRadian        Unit = 0x002E // rad, m/m
	UnitSiemens       Unit = 0x002F // S, A/V
	UnitSievert       Unit = 0x0030 // Sv, J/kg
	UnitSteradian     Unit = 0x0031 // sr, m^2/m^2
	UnitTesla         Unit = 0x0032 // T, Wb/m^2
	UnitVolt          Unit = 0x0033 // V, W/A
	UnitWatt          Unit = 0x0034 // W, J/s
	UnitWeber         Unit = 0x0035 // Wb, V*s

	// Unitless values.
	UnitPercent  Unit = 0x0080 // 0.0..100.0 inclusive
	UnitInterval Unit = 0x0081 // 0.0..1.0 inclusive

	// Combined units.
	UnitMeters2         Unit = 0x1000 // m^2
	UnitMeterPerSecond2 Unit = 0x1100 // m/s^2

	UnitUserDefined1   Unit = 0xFF00
	UnitUserDefined255 Unit = 0xFFFE

	UnitMax Unit = 0xFFFF
)

var unitNames = map[Unit]string{
	UnitAmpere:          "A",
	UnitCandela:         "cd",
	UnitKelvin:          "K",
	UnitKilogram:        "kg",
	UnitMeter:           "m",
	UnitMole:            "mol",
	UnitSecond:          "s",
	UnitBecquerel:       "Bq",
	UnitCoulomb:         "C",
	UnitDegreeCelsius:   "degC",
	UnitFarad:           "F",
	UnitGray:            "Gy",
	UnitHenry:           "H",
	UnitHertz:           "Hz",
	UnitJoule:           "J",
	UnitKatal:           "kat",
	UnitLumen:           "lm",
	UnitLux:             "lx",
	UnitNewton:          "N",
	UnitOhm:             "Ohm",
	UnitPascal:          "Pa",
	UnitRadian:          "rad",
	UnitSiemens:         "S",
	UnitSievert:         "Sv",
	UnitSteradian:       "sr",
	UnitTesla:           "T",
	UnitVolt:            "V",
	UnitWatt:            "W",
	UnitWeber:           "Wb",
	UnitPercent:         "%",
	UnitInterval:        "interval",
	UnitMeters2:         "m^2",
	UnitMeterPerSecond2: "m/s^2",
}

// IsBase reports whether u lies in the SI base unit range.
func (u Unit) IsBase() bool { return u >= 0x0010 && u <= 0x001F }

// IsDerived reports whether u lies in the SI derived unit range.
func (u Unit) IsDerived() bool { return u >= 0x0020 && u <= 0x003F }

// IsUnitless reports whether u lies in the unitless range.
func (u Unit) IsUnitless() bool { return u >= 0x0080 && u <= 0x008F }

// IsCombined reports whether u lies in the combined unit range.
func (u Unit) IsCombined() bool { return u >= 0x0100 && u <= 0x7FFF }

// IsUser reports whether u lies in the user-defined range.
func (u Unit) IsUser() bool { return u >= 0xFF00 && u <= 0xFFFE }

// IsDefined reports whether u lies in a defined range of the memory map.
func (u Unit) IsDefined() bool {
	return u.IsBase() || u.IsDerived() || u.IsUnitless() || u.IsCombined() || u.IsUser()
}

func (u Unit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	switch {
	case u == UnitUndefined:
		return "Undefined"
	case u.IsUser():
		return fmt.Sprintf("User%d", int(u-UnitUserDefined1)+1)
	default:
		return fmt.Sprintf("Unit(0x%04X)", uint16(u))
	}
}
