package models

import "time"

// ListingRecord is one property listing as extracted from a single card.
// Price stays the raw display string ("R$ 450.000") — parsing currency is
// a downstream concern. Numeric fields are pointers because a card often
// omits them; nil means the card did not expose the value.
type ListingRecord struct {
	Price       string
	Street      string
	Address     string
	Bedrooms    *int
	Bathrooms   *int
	AreaM2      *float64
	URL         string
	City        string
	State       string
	CollectedAt time.Time
}

// PageCapture is the result of scraping one search-results page.
// Zero records is a valid capture — empty pages are persisted too, so
// the "page was empty" evidence survives a crash.
type PageCapture struct {
	City    string
	State   string
	Page    int
	Records []*ListingRecord
}

// StopReason says why a harvest run ended.
type StopReason string

const (
	StopPageLimit   StopReason = "page_limit"
	StopEmptyStreak StopReason = "empty_streak"
	StopFatal       StopReason = "fatal_failure"
)

// HarvestSummary is what a harvest run reports back to the caller.
type HarvestSummary struct {
	City         string
	State        string
	PagesVisited int
	Records      int
	CardsSkipped int
	EmptyStreak  int
	StopReason   StopReason
	FatalErr     error
}

// ConsolidationReport holds the integrity counters of one consolidator run.
type ConsolidationReport struct {
	FilesRead    int
	FilesSkipped int
	RowsIn       int
	RowsOut      int
	Duplicates   int
	// UnkeyedRows counts rows with an empty link column: they are kept in
	// the output but cannot participate in deduplication.
	UnkeyedRows int
	// MalformedRows counts rows whose quartos/banheiros/area_m2 cells are
	// non-empty but fail numeric coercion. The rows themselves are written
	// out untouched.
	MalformedRows int
	ByCity        map[string]int
	OutputPath    string
	ParquetPath   string
	// NoData is set when the scope matched zero capture units; in that
	// case no output file is written at all.
	NoData bool
}
