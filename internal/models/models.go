package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EntryMethod records how the ISBN of the current record was captured
type EntryMethod string

const (
	EntryScan   EntryMethod = "scan"
	EntryManual EntryMethod = "manual"
)

// Source tells whether a bibliographic field came from the lookup service or the operator
type Source string

const (
	SourceRemote Source = "remote"
	SourceManual Source = "manual"
)

// Variant selects which fields the metadata form tracks
type Variant string

const (
	// VariantBasic tracks title, price, quantity and location
	VariantBasic Variant = "basic"
	// VariantExtended additionally tracks author, category and sub-category
	VariantExtended Variant = "extended"
)

// TracksAuthor reports whether author/category/sub-category belong to the record
func (v Variant) TracksAuthor() bool {
	return v == VariantExtended
}

const (
	DefaultQuantity = "1"
	DefaultLocation = "GRANDMALL"
)

// BookRecord is the single in-flight record of one scan cycle.
// Price and Quantity hold the operator's text as displayed; they are
// parsed when the record is submitted.
type BookRecord struct {
	ISBN         string      `json:"isbn"`
	Title        string      `json:"title"`
	TitleSource  Source      `json:"title_source"`
	Author       string      `json:"author,omitempty"`
	AuthorSource Source      `json:"author_source,omitempty"`
	Price        string      `json:"price"`
	Quantity     string      `json:"quantity"`
	Location     string      `json:"location"`
	Category     string      `json:"category,omitempty"`
	SubCategory  string      `json:"sub_category,omitempty"`
	EntryMethod  EntryMethod `json:"entry_method"`
}

// NewBookRecord returns a fresh record for an accepted ISBN with form defaults applied
func NewBookRecord(isbn string, method EntryMethod) *BookRecord {
	return &BookRecord{
		ISBN:        isbn,
		Quantity:    DefaultQuantity,
		Location:    DefaultLocation,
		EntryMethod: method,
	}
}

// Vocabulary holds the closed option lists offered on the metadata form
type Vocabulary struct {
	Locations     []string `json:"locations" yaml:"locations"`
	Categories    []string `json:"categories" yaml:"categories"`
	SubCategories []string `json:"sub_categories" yaml:"sub_categories"`
}

// DefaultVocabulary returns the compiled-in option lists
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Locations: []string{"GRANDMALL", "DLF", "MARINAMALL", "SKYWALK", "WAREHOUSE", "GARUDA-BNGLR"},
		Categories: []string{
			"FICTION", "NON_FICTION", "ACADEMIC", "CHILDREN", "COMICS", "REFERENCE",
		},
		SubCategories: []string{
			"GENERAL", "FANTASY_ADVENTURE", "MYSTERY_THRILLER", "ROMANCE", "SCIENCE_FICTION",
			"BIOGRAPHY", "SELF_HELP", "HISTORY", "ENGINEERING", "MEDICAL", "COMPETITIVE_EXAMS",
		},
	}
}

func (v Vocabulary) HasLocation(s string) bool    { return slices.Contains(v.Locations, s) }
func (v Vocabulary) HasCategory(s string) bool    { return slices.Contains(v.Categories, s) }
func (v Vocabulary) HasSubCategory(s string) bool { return slices.Contains(v.SubCategories, s) }

// ParsePrice parses a non-negative decimal price
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must not be negative: %s", s)
	}
	return price, nil
}

// ParseQuantity parses a positive integer quantity
func ParseQuantity(s string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if qty < 1 {
		return 0, fmt.Errorf("quantity must be at least 1: %d", qty)
	}
	return qty, nil
}
