package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"imoveis-scraper/models"
)

// Columns is the canonical capture schema, in order. Both per-page files
// and consolidated files carry exactly this header regardless of how many
// cells are empty.
var Columns = []string{
	"preco", "rua", "endereco", "quartos", "banheiros",
	"area_m2", "link", "cidade", "estado", "data_coleta",
}

// Column indexes into a capture row.
const (
	ColPreco = iota
	ColRua
	ColEndereco
	ColQuartos
	ColBanheiros
	ColAreaM2
	ColLink
	ColCidade
	ColEstado
	ColDataColeta
)

// TimeLayout is the data_coleta timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// CaptureFileName returns the deterministic per-page file name for a
// (city, state, page) triple: <city>_<state>_pagina<N>.csv.
func CaptureFileName(city, state string, page int) string {
	return fmt.Sprintf("%s_%s_pagina%d.csv", city, state, page)
}

// ConsolidatedFileName returns the consolidated output name for a scope.
// Empty city/state means the all-cities scope.
func ConsolidatedFileName(city, state string) string {
	if city == "" {
		return "imoveis_todos_completo.csv"
	}
	return fmt.Sprintf("imoveis_%s_%s_completo.csv", city, state)
}

// CaptureStore persists PageCaptures as per-page CSV files under one
// directory. Each write is atomic (temp file + rename), so a crash never
// leaves a half-written capture unit behind.
type CaptureStore struct {
	dir string
}

// NewCaptureStore creates the capture directory if needed.
func NewCaptureStore(dir string) (*CaptureStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: create capture dir %q: %w", dir, err)
	}
	return &CaptureStore{dir: dir}, nil
}

// Dir returns the capture directory.
func (s *CaptureStore) Dir() string { return s.dir }

// WritePage persists one capture unit and returns its path. Empty
// captures are written too — a header-only file is the durable evidence
// that the page was visited and had no listings.
func (s *CaptureStore) WritePage(c *models.PageCapture) (string, error) {
	path := filepath.Join(s.dir, CaptureFileName(c.City, c.State, c.Page))

	rows := make([][]string, 0, len(c.Records))
	for _, r := range c.Records {
		rows = append(rows, RecordRow(r))
	}
	if err := writeCSVAtomic(path, rows); err != nil {
		return "", fmt.Errorf("storage: write capture %q: %w", path, err)
	}
	return path, nil
}

// WriteConsolidated writes the consolidated dataset, fully replacing any
// previous output at path.
func WriteConsolidated(path string, rows [][]string) error {
	if err := writeCSVAtomic(path, rows); err != nil {
		return fmt.Errorf("storage: write consolidated %q: %w", path, err)
	}
	return nil
}

// RecordRow converts a ListingRecord to its CSV row. Nil numeric fields
// become empty cells.
func RecordRow(r *models.ListingRecord) []string {
	return []string{
		r.Price,
		r.Street,
		r.Address,
		intCell(r.Bedrooms),
		intCell(r.Bathrooms),
		floatCell(r.AreaM2),
		r.URL,
		r.City,
		r.State,
		r.CollectedAt.Format(TimeLayout),
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// writeCSVAtomic writes header+rows to a temp file in the target
// directory and renames it into place, so readers only ever see complete
// files.
func writeCSVAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".capture-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
