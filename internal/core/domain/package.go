package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	gramsPerOunce  = 28.349523125
	gramsPerPound  = 453.59237
	cmPerInch      = 2.54
	minMeasurement = 0.1
)

// Axis names a package dimension. Dimensions are kept sorted so Length is
// always the longest side.
type Axis int

const (
	Length Axis = iota
	Width
	Height
)

// Axes lists the dimensions in the order carriers expect them.
var Axes = [3]Axis{Length, Width, Height}

func (a Axis) String() string {
	switch a {
	case Length:
		return "Length"
	case Width:
		return "Width"
	default:
		return "Height"
	}
}

// Package is a physical parcel. Weight and dimensions are stored in grams and
// centimeters and exposed in either unit system.
type Package struct {
	grams    float64
	cm       [3]float64
	Value    decimal.Decimal
	Currency string
}

// NewImperialPackage builds a package from ounces and inches.
func NewImperialPackage(ounces float64, inches [3]float64, value decimal.Decimal) Package {
	var cm [3]float64
	for i, in := range inches {
		cm[i] = in * cmPerInch
	}
	return newPackage(ounces*gramsPerOunce, cm, value)
}

// NewMetricPackage builds a package from grams and centimeters.
func NewMetricPackage(grams float64, cm [3]float64, value decimal.Decimal) Package {
	return newPackage(grams, cm, value)
}

func newPackage(grams float64, cm [3]float64, value decimal.Decimal) Package {
	dims := cm[:]
	sort.Sort(sort.Reverse(sort.Float64Slice(dims)))
	return Package{grams: grams, cm: cm, Value: value, Currency: "USD"}
}

// WithCurrency returns a copy with the declared value currency set.
func (p Package) WithCurrency(currency string) Package {
	p.Currency = currency
	return p
}

func (p Package) Grams() float64     { return p.grams }
func (p Package) Kilograms() float64 { return p.grams / 1000 }
func (p Package) Ounces() float64    { return p.grams / gramsPerOunce }
func (p Package) Pounds() float64    { return p.grams / gramsPerPound }

// Centimeters returns the given dimension in centimeters.
func (p Package) Centimeters(axis Axis) float64 { return p.cm[axis] }

// Inches returns the given dimension in inches.
func (p Package) Inches(axis Axis) float64 { return p.cm[axis] / cmPerInch }

// imperialOrigins are the countries that still ship in inches and pounds.
var imperialOrigins = map[string]struct{}{"US": {}, "LR": {}, "MM": {}}

// UsesImperialUnits reports whether requests originating at origin must be
// expressed in inches and pounds.
func UsesImperialUnits(origin Location) bool {
	_, ok := imperialOrigins[origin.CountryCode()]
	return ok
}

// RoundMeasure rounds to three decimals and never returns less than 0.1,
// which carriers reject as a zero measurement.
func RoundMeasure(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r < minMeasurement {
		return minMeasurement
	}
	return r
}
