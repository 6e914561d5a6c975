// Package domain holds the fixed vocabularies of the nitrogen emission data:
// administrative levels, pollutant variables and unit conversions.
package domain

import "errors"

// Vocabulary errors.
var (
	ErrUnknownLevel    = errors.New("unknown administrative level")
	ErrUnknownVariable = errors.New("unknown pollutant variable")
)

// Level is an administrative granularity at which emissions are reported.
type Level string

const (
	LevelNational         Level = "national"
	LevelKommune          Level = "kommune"
	LevelRegion           Level = "region"
	LevelTreparter        Level = "treparter"
	LevelID15Catchment    Level = "id15_catchment"
	LevelCoastalCatchment Level = "coastal_catchment"
)

// Levels lists every administrative level in display order.
var Levels = []Level{
	LevelNational,
	LevelKommune,
	LevelRegion,
	LevelTreparter,
	LevelID15Catchment,
	LevelCoastalCatchment,
}

// SubNationalLevels are the levels that exist as columns of the emissions table.
var SubNationalLevels = []Level{
	LevelKommune,
	LevelRegion,
	LevelTreparter,
	LevelID15Catchment,
	LevelCoastalCatchment,
}

// ParseLevel returns the Level named by s.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", ErrUnknownLevel
}

// IsNational reports whether l is the national level.
func (l Level) IsNational() bool {
	return l == LevelNational
}

// Variable is a tracked nitrogen compound or process code.
type Variable string

const (
	VariableN2O    Variable = "N2O"
	VariableNO3    Variable = "NO3"
	VariableN2     Variable = "N2"
	VariableDONNH4 Variable = "DON_NH4"
	VariableNH3    Variable = "NH3"
	VariableDep    Variable = "Dep"
	VariableBNF    Variable = "BNF"
	VariableFert   Variable = "Fert"
	VariableHarv   Variable = "Harv"
	VariableNO     Variable = "NO"
)

// Variables lists every pollutant variable in column order.
var Variables = []Variable{
	VariableN2O,
	VariableNO3,
	VariableN2,
	VariableDONNH4,
	VariableNH3,
	VariableDep,
	VariableBNF,
	VariableFert,
	VariableHarv,
	VariableNO,
}

// ParseVariable returns the Variable named by s.
func ParseVariable(s string) (Variable, error) {
	for _, v := range Variables {
		if string(v) == s {
			return v, nil
		}
	}
	return "", ErrUnknownVariable
}

// Landuse classes offered by the map front end. The emissions table may hold others.
var Landuses = []string{"cropgrass", "forest", "livestock"}

// Unit divisors applied to kilogram sums. National aggregates are reported in
// kilotonnes, every other level in tonnes.
const (
	KgPerTonne     = 1e3
	KgPerKilotonne = 1e6
)

// Divisor returns the kilogram divisor used when reporting aggregates at level l.
func Divisor(l Level) float64 {
	if l.IsNational() {
		return KgPerKilotonne
	}
	return KgPerTonne
}

// NationalLabel is the unit name reported for national totals.
const NationalLabel = "Denmark"

// identifierFields names the property holding the unit identifier in each
// level's boundary file.
var identifierFields = map[Level]string{
	LevelNational:         "NAME_0",
	LevelKommune:          "NAME_2",
	LevelRegion:           "REGIONNAVN",
	LevelTreparter:        "ogc_fid",
	LevelID15Catchment:    "Id15_oplan",
	LevelCoastalCatchment: "IdKystvand",
}

// IdentifierField returns the boundary file property naming units of level l.
func IdentifierField(l Level) string {
	return identifierFields[l]
}

// StringIdentifier reports whether identifiers of level l are served as
// strings regardless of their type in the boundary file.
func StringIdentifier(l Level) bool {
	return l == LevelTreparter
}
