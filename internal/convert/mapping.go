// Package convert maps the archival CSV to the prisoner record graph, one
// record per row.
package convert

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/normalize"
	"github.com/ppiankov/powlink/internal/vocab"
)

// Converters
const (
	ConvertDate      = "date"
	ConvertLower     = "lower"
	ConvertStripDash = "strip_dash"
)

// Today as a date bound is the conversion date
const boundToday = "today"

// FieldConfig maps one CSV column to a record relation
type FieldConfig struct {
	Column    string            `yaml:"column"`
	Relation  string            `yaml:"relation"`
	Separator string            `yaml:"separator,omitempty"` // "", "/" or ";"
	Converter string            `yaml:"converter,omitempty"`
	After     string            `yaml:"after,omitempty"`  // Earliest plausible date
	Before    string            `yaml:"before,omitempty"` // Latest plausible date or "today"
	Remap     map[string]string `yaml:"remap,omitempty"`
	LabelFI   string            `yaml:"label_fi,omitempty"`
	LabelEN   string            `yaml:"label_en,omitempty"`
}

type field struct {
	FieldConfig
	separator normalize.Separator
	bounds    normalize.Bounds
}

// Mapping is the immutable column table of a conversion
type Mapping struct {
	fields  map[string]field
	columns []string
}

// NewMapping validates fields and resolves their date bounds against now
func NewMapping(fields []FieldConfig, now time.Time) (*Mapping, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	m := &Mapping{fields: make(map[string]field, len(fields))}
	for _, fc := range fields {
		column := strings.TrimSpace(fc.Column)
		if column == "" {
			return nil, fmt.Errorf("mapping field without a column")
		}
		if _, dup := m.fields[column]; dup {
			return nil, fmt.Errorf("column %q mapped twice", column)
		}
		if fc.Relation == "" {
			return nil, fmt.Errorf("column %q has no relation", column)
		}
		switch fc.Converter {
		case "", ConvertDate, ConvertLower, ConvertStripDash:
		default:
			return nil, fmt.Errorf("column %q: unknown converter %q", column, fc.Converter)
		}

		f := field{FieldConfig: fc, separator: normalize.ParseSeparator(fc.Separator)}
		f.Column = column
		var err error
		if f.bounds.After, err = parseBound(fc.After, today); err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}
		if f.bounds.Before, err = parseBound(fc.Before, today); err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}

		m.fields[column] = f
		m.columns = append(m.columns, column)
	}
	return m, nil
}

func parseBound(s string, today time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == boundToday {
		return today, nil
	}
	return normalize.ParseBound(s, time.Time{})
}

// LoadMapping reads a YAML column table
func LoadMapping(path string, now time.Time) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var doc struct {
		Fields []FieldConfig `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	return NewMapping(doc.Fields, now)
}

// lookup finds the field of a column. Headers carrying a parenthesized
// remark fall back to the part before it.
func (m *Mapping) lookup(column string) (field, bool) {
	column = strings.TrimSpace(column)
	if f, ok := m.fields[column]; ok {
		return f, true
	}
	if i := strings.Index(column, "("); i > 0 {
		f, ok := m.fields[strings.TrimSpace(column[:i])]
		return f, ok
	}
	return field{}, false
}

// Field returns the configuration of a column
func (m *Mapping) Field(column string) (FieldConfig, bool) {
	f, ok := m.lookup(column)
	return f.FieldConfig, ok
}

// Fields returns the configured fields in table order
func (m *Mapping) Fields() []FieldConfig {
	out := make([]FieldConfig, 0, len(m.columns))
	for _, c := range m.columns {
		out = append(out, m.fields[c].FieldConfig)
	}
	return out
}

// Schema describes the mapped relations as properties with their labels
func (m *Mapping) Schema() *graph.Graph {
	g := graph.New()
	for _, c := range m.columns {
		f := m.fields[c]
		g.AddIRI(f.Relation, vocab.RDFType, vocab.RDFProperty)
		if f.LabelFI != "" {
			g.Add(graph.T(f.Relation, vocab.SKOSPrefLabel, graph.LangLiteral(f.LabelFI, "fi")))
		}
		if f.LabelEN != "" {
			g.Add(graph.T(f.Relation, vocab.SKOSPrefLabel, graph.LangLiteral(f.LabelEN, "en")))
		}
	}
	return g
}

// DefaultFields is the column table of the prisoner register
func DefaultFields() []FieldConfig {
	return []FieldConfig{
		{Column: "syntymäaika", Relation: vocab.DateOfBirth, Separator: "/", Converter: ConvertDate,
			After: "1860-01-01", Before: "1935-01-01", LabelFI: "Syntymäaika", LabelEN: "Date of birth"},
		{Column: "synnyinkunta", Relation: vocab.MunicipalityOfBirthLiteral, Separator: "/",
			LabelFI: "Syntymäkunta", LabelEN: "Municipality of birth"},
		{Column: "kotikunta", Relation: vocab.MunicipalityOfDomicileLiteral, Separator: "/",
			LabelFI: "Kotikunta", LabelEN: "Home municipality"},
		{Column: "asuinkunta", Relation: vocab.MunicipalityOfResidenceLiteral, Separator: "/",
			LabelFI: "Asuinpaikka", LabelEN: "Municipality of residence"},
		{Column: "kuolinkunta, palanneet", Relation: vocab.MunicipalityOfDeathLiteral,
			LabelFI: "Kuolinkunta", LabelEN: "Municipality of death"},
		{Column: "ammatti", Relation: vocab.OccupationLiteral, Separator: "/", Converter: ConvertLower,
			LabelFI: "Ammatti", LabelEN: "Occupation"},
		{Column: "siviilisääty", Relation: vocab.MaritalStatus, Separator: "/",
			LabelFI: "Siviilisääty", LabelEN: "Marital status"},
		{Column: "lasten lkm", Relation: vocab.AmountChildren, Separator: "/", Converter: ConvertStripDash,
			LabelFI: "Lasten lukumäärä", LabelEN: "Amount of children"},
		{Column: "sotilasarvo", Relation: vocab.RankLiteral, Separator: "/",
			LabelFI: "Sotilasarvo", LabelEN: "Military rank"},
		{Column: "joukko-osasto", Relation: vocab.UnitLiteral,
			LabelFI: "Joukko-osasto", LabelEN: "Military unit"},
		{Column: "katoamisaika", Relation: vocab.TimeGoneMissing, Separator: "/", Converter: ConvertDate,
			After: "1939-11-30", Before: boundToday, LabelFI: "Katoamispäivä", LabelEN: "Date of disappearance"},
		{Column: "vangiksi aika", Relation: vocab.TimeCaptured, Separator: "/", Converter: ConvertDate,
			After: "1939-11-30", Before: boundToday, LabelFI: "Vangiksi jäämisen päivämäärä", LabelEN: "Date of capture"},
		{Column: "vangiksi paikka, kunta", Relation: vocab.MunicipalityOfCaptureLiteral, Separator: "/",
			LabelFI: "Vangiksi jäämisen kunta", LabelEN: "Municipality of capture"},
		{Column: "vangiksi paikka, kylä, kaupunginosa", Relation: vocab.PlaceCaptured, Separator: "/",
			LabelFI: "Vangiksi jäämisen paikka", LabelEN: "Place of capture"},
		{Column: "vangiksi, taistelupaikka", Relation: vocab.PlaceCapturedBattle, Separator: "/",
			LabelFI: "Vangiksi jäämisen taistelupaikka", LabelEN: "Location of battle in which captured"},
		{Column: "selvitys vangiksi jäämisestä", Relation: vocab.CaptureExplanation, Separator: ";",
			LabelFI: "Selvitys vangiksi jäämisestä", LabelEN: "Description of capture"},
		{Column: "palannut", Relation: vocab.ReturnedDate, Separator: "/", Converter: ConvertDate,
			After: "1939-11-30", Before: "1980-01-01", LabelFI: "Palaamisaika", LabelEN: "Date of return"},
		{Column: "kuollut", Relation: vocab.DateOfDeath, Separator: "/", Converter: ConvertDate,
			After: "1939-11-30", Before: boundToday, LabelFI: "Kuolinaika", LabelEN: "Date of death"},
		{Column: "kuolinsyy", Relation: vocab.CauseOfDeath,
			LabelFI: "Kuolinsyy", LabelEN: "Cause of death"},
		{Column: "kuolinpaikka", Relation: vocab.PlaceOfDeath, Separator: "/",
			LabelFI: "Kuolinpaikka", LabelEN: "Place of death"},
		{Column: "hautauspaikka", Relation: vocab.BurialPlace, Separator: ";",
			LabelFI: "Hautauspaikka", LabelEN: "Place of burial"},
		{Column: "vankeuspaikat", Relation: vocab.LocationLiteral, Separator: ";",
			LabelFI: "Vankeuspaikat", LabelEN: "Captivity locations"},
		{Column: "muita tietoja", Relation: vocab.OtherInformation, Separator: ";",
			LabelFI: "Muita tietoja", LabelEN: "Other information"},
		{Column: "palanneiden kuolinaika", Relation: vocab.DateOfDeath, Separator: "/", Converter: ConvertDate,
			After: "1939-11-30", Before: boundToday},
		{Column: "kuolleeksi julistaminen", Relation: vocab.DeclaredDeath, Converter: ConvertDate,
			After: "1939-11-30", Before: boundToday, LabelFI: "Kuolleeksi julistaminen", LabelEN: "Declared death"},
		{Column: "valokuva", Relation: vocab.Photograph, Separator: ";",
			LabelFI: "Valokuva", LabelEN: "Photograph"},
		{Column: "radiossa, PM:n valvontatoimiston radiokatsaukset", Relation: vocab.RadioReport, Separator: ";",
			LabelFI: "Radiokatsaus", LabelEN: "Radio report"},
		{Column: "Talvisodan kortisto", Relation: vocab.WinterWarCardFile,
			LabelFI: "Talvisodan kortisto", LabelEN: "Winter War card file"},
		{Column: "jatkosodan kortisto", Relation: vocab.ContinuationWarFile,
			LabelFI: "Jatkosodan kortisto", LabelEN: "Continuation War card file"},
		{Column: "Karagandan kortisto", Relation: vocab.KaragandaCardFile,
			LabelFI: "Karagandan kortisto", LabelEN: "Karaganda card file"},
		{Column: "suomenruotsalainen", Relation: vocab.MotherTongue,
			LabelFI: "Äidinkieli", LabelEN: "Mother tongue"},
		{Column: "lentolehtinen", Relation: vocab.Flyer, Separator: ";",
			LabelFI: "Lentolehtinen", LabelEN: "Flyer"},
		{Column: "Sotilaan Ääni -lehti, Kansan Valta -lehti, Kansan  Mies -lehti", Relation: vocab.SotilaanAaniReference, Separator: ";",
			LabelFI: "Propagandalehti", LabelEN: "Propaganda magazine"},
		{Column: "Sotilaan Ääni -lehden valokuva", Relation: vocab.PhotographSotilaanAani, Separator: ";",
			LabelFI: "Sotilaan Ääni -lehden valokuva", LabelEN: "Photograph in Sotilaan Ääni"},
		{Column: "muistelmat, lehtijutut, tietokirjat, tutkimukset, Kansa taisteli-lehti, näyttelyt", Relation: vocab.Memoirs, Separator: ";",
			LabelFI: "Muistelmat ja lehtijutut", LabelEN: "Memoirs"},
	}
}

// DefaultMapping returns the built-in column table
func DefaultMapping(now time.Time) *Mapping {
	m, err := NewMapping(DefaultFields(), now)
	if err != nil {
		panic(fmt.Sprintf("default mapping: %v", err))
	}
	return m
}
