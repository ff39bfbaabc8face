// Package pins classifies campus locations and builds the map markers for
// them: category, color, thumbnail and pixel placement.
package pins

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a location classification derived from its name.
type Category string

const (
	CategoryParking    Category = "estacionamento"
	CategoryBlock      Category = "bloco"
	CategoryField      Category = "campo"
	CategoryCourt      Category = "quadra"
	CategorySandCourt  Category = "quadra_areia"
	CategoryLibrary    Category = "biblioteca"
	CategoryCafeteria  Category = "cantina"
	CategoryAuditorium Category = "auditorio"
	CategoryCores      Category = "cores"
	CategoryEntrance   Category = "entrada"
	CategoryDefault    Category = "default"
)

// fallbackColor is used when the catalog has no color for a category.
const fallbackColor = "#FF0000"

// ClassName returns the marker CSS class for the category.
func (c Category) ClassName() string {
	return "pin-" + strings.ReplaceAll(string(c), "_", "-")
}

type categoryRule struct {
	keyword  string
	category Category
}

// categoryRules are evaluated longest keyword first; on equal length the
// earlier rule wins.
var categoryRules = []categoryRule{
	{"quadra de areia", CategorySandCourt},
	{"estacionamento", CategoryParking},
	{"biblioteca", CategoryLibrary},
	{"auditório", CategoryAuditorium},
	{"auditorio", CategoryAuditorium},
	{"cantina", CategoryCafeteria},
	{"entrada", CategoryEntrance},
	{"quadra", CategoryCourt},
	{"areia", CategorySandCourt},
	{"bloco", CategoryBlock},
	{"campo", CategoryField},
	{"cores", CategoryCores},
}

// normalizeName lowercases with Portuguese rules and trims whitespace.
func normalizeName(name string) string {
	return strings.TrimSpace(cases.Lower(language.BrazilianPortuguese).String(name))
}

// Classifier maps location names to categories and categories to colors.
type Classifier struct {
	colors map[string]string
}

// NewClassifier creates a classifier with the given category colors.
func NewClassifier(colors map[string]string) *Classifier {
	return &Classifier{colors: colors}
}

// Category returns the most specific category whose keyword appears in name.
func (c *Classifier) Category(name string) Category {
	lower := normalizeName(name)
	best, bestLen := CategoryDefault, 0
	for _, r := range categoryRules {
		if len(r.keyword) > bestLen && strings.Contains(lower, r.keyword) {
			best, bestLen = r.category, len(r.keyword)
		}
	}
	return best
}

// Color returns the configured color for a category, falling back to the
// default category color.
func (c *Classifier) Color(cat Category) string {
	if v, ok := c.colors[string(cat)]; ok && v != "" {
		return v
	}
	if v, ok := c.colors[string(CategoryDefault)]; ok && v != "" {
		return v
	}
	return fallbackColor
}
