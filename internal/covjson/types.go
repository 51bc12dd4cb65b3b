package covjson

// Type tags and identifiers fixed by the CoverageJSON format.
const (
	TypeCoverage          = "Coverage"
	TypeDomain            = "Domain"
	TypeParameter         = "Parameter"
	TypeNdArray           = "NdArray"
	TypePoint             = "Point"
	DomainTypePointSeries = "PointSeries"

	geographicCRS84   = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"
	gregorianCalendar = "Gregorian"
)

// Coverage is the top-level CoverageJSON document. Location duplicates the
// domain's spatial point for consumers that skip the domain.
type Coverage struct {
	Type       string               `json:"type"`
	Domain     Domain               `json:"domain"`
	Parameters map[string]Parameter `json:"parameters"`
	Ranges     map[string]NdArray   `json:"ranges"`
	Location   Point                `json:"location"`
}

// Domain describes the coverage's spatio-temporal extent.
type Domain struct {
	Type        string      `json:"type"`
	DomainType  string      `json:"domainType"`
	Axes        Axes        `json:"axes"`
	Referencing []Reference `json:"referencing"`
}

// Axes holds the temporal axis and the single-element spatial axes of a
// point series.
type Axes struct {
	T Axis `json:"t"`
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// Axis lists coordinate values along one axis.
type Axis struct {
	Values []any `json:"values"`
}

// Reference binds coordinate identifiers to a reference system.
type Reference struct {
	Coordinates []string        `json:"coordinates"`
	System      ReferenceSystem `json:"system"`
}

// ReferenceSystem identifies a CRS or temporal reference system.
type ReferenceSystem struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Calendar string `json:"calendar,omitempty"`
}

// Parameter describes one measured variable.
type Parameter struct {
	Type             string           `json:"type"`
	Description      LocalizedText    `json:"description"`
	Unit             Unit             `json:"unit"`
	ObservedProperty ObservedProperty `json:"observedProperty"`
}

// LocalizedText is an i18n string map with an English entry.
type LocalizedText struct {
	En string `json:"en"`
}

// Unit carries the unit label and symbol of a parameter.
type Unit struct {
	Label  LocalizedText `json:"label"`
	Symbol string        `json:"symbol"`
}

// ObservedProperty links a parameter to its controlled-vocabulary concept.
// ID is omitted when no standard mapping exists.
type ObservedProperty struct {
	ID    string        `json:"id,omitempty"`
	Label LocalizedText `json:"label"`
}

// NdArray is a flat range array aligned with the temporal axis.
type NdArray struct {
	Type      string   `json:"type"`
	DataType  string   `json:"dataType"`
	AxisNames []string `json:"axisNames"`
	Shape     []int    `json:"shape"`
	Values    []any    `json:"values"`
}

// Point is a GeoJSON-style point, coordinates ordered [lon, lat].
type Point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}
