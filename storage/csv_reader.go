package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// CaptureFile identifies one on-disk capture unit.
type CaptureFile struct {
	Path  string
	City  string
	State string
	Page  int
}

var captureNameRe = regexp.MustCompile(`^(.+)_([a-z]{2})_pagina(\d+)\.csv$`)

// ListCaptures enumerates capture units under dir. With city/state set it
// matches only that pair; with both empty it matches every capture unit.
// Results come back sorted by (city, state, page) with the page index
// compared numerically, so pagina10 sorts after pagina2 — this is the
// enumeration order keep-first dedup is defined against.
func ListCaptures(dir, city, state string) ([]CaptureFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: read capture dir %q: %w", dir, err)
	}

	var files []CaptureFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := captureNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		cf := CaptureFile{
			Path:  filepath.Join(dir, e.Name()),
			City:  m[1],
			State: m[2],
			Page:  page,
		}
		if city != "" && (cf.City != city || cf.State != state) {
			continue
		}
		files = append(files, cf)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].City != files[j].City {
			return files[i].City < files[j].City
		}
		if files[i].State != files[j].State {
			return files[i].State < files[j].State
		}
		return files[i].Page < files[j].Page
	})
	return files, nil
}

// ReadRows reads one capture unit and returns its data rows. The header
// must match the canonical column set exactly; anything else means the
// file does not honor the capture contract and the caller should skip it.
func ReadRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: open capture %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("storage: read header of %q: %w", path, err)
	}
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("storage: %q: %w", path, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read rows of %q: %w", path, err)
	}
	return rows, nil
}

func validateHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(Columns))
	}
	for i, col := range Columns {
		if header[i] != col {
			return fmt.Errorf("header column %d is %q, want %q", i, header[i], col)
		}
	}
	return nil
}
