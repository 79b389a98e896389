package format

import (
	"fmt"
	"math"
)

// Scale is the power-of-ten exponent applied to every element of a
// measurement: value = element * 10^Scale.
type Scale int8

const (
	ScaleYotta Scale = 24
	ScaleZetta Scale = 21
	ScaleExa   Scale = 18
	ScalePeta  Scale = 15
	ScaleTera  Scale = 12
	ScaleGiga  Scale = 9
	ScaleMega  Scale = 6
	ScaleKilo  Scale = 3
	ScaleHecto Scale = 2
	ScaleDeca  Scale = 1
	ScaleNone  Scale = 0
	ScaleDeci  Scale = -1
	ScaleCenti Scale = -2
	ScaleMilli Scale = -3
	ScaleMicro Scale = -6
	ScaleNano  Scale = -9
	ScalePico  Scale = -12
	ScaleFemto Scale = -15
	ScaleAtto  Scale = -18
	ScaleZepto Scale = -21
	ScaleYocto Scale = -24
)

// Supported exponent range.
const (
	MinScale = ScaleYocto
	MaxScale = ScaleYotta
)

var scaleSymbols = map[Scale]string{
	ScaleYotta: "Y",
	ScaleZetta: "Z",
	ScaleExa:   "E",
	ScalePeta:  "P",
	ScaleTera:  "T",
	ScaleGiga:  "G",
	ScaleMega:  "M",
	ScaleKilo:  "k",
	ScaleHecto: "h",
	ScaleDeca:  "da",
	ScaleNone:  "",
	ScaleDeci:  "d",
	ScaleCenti: "c",
	ScaleMilli: "m",
	ScaleMicro: "u",
	ScaleNano:  "n",
	ScalePico:  "p",
	ScaleFemto: "f",
	ScaleAtto:  "a",
	ScaleZepto: "z",
	ScaleYocto: "y",
}

// IsValid reports whether s lies within the supported exponent range.
// Exponents between named prefixes (e.g. 4) are valid.
func (s Scale) IsValid() bool {
	return s >= MinScale && s <= MaxScale
}

// Symbol returns the SI prefix symbol, or false when s has no named prefix.
func (s Scale) Symbol() (string, bool) {
	sym, ok := scaleSymbols[s]
	return sym, ok
}

// Factor returns 10^s.
func (s Scale) Factor() float64 {
	return math.Pow10(int(s))
}

func (s Scale) String() string {
	if sym, ok := scaleSymbols[s]; ok && sym != "" {
		return sym
	}

	return fmt.Sprintf("1e%d", int(s))
}
