package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"imoveis-scraper/models"
	"imoveis-scraper/storage"
	"imoveis-scraper/utils"
)

// ErrNoCaptures is returned when a consolidation scope matches zero
// capture units. No output file is written in that case.
var ErrNoCaptures = errors.New("no capture units match the scope")

// Scope selects which capture units to consolidate: one (city, state)
// pair, or everything when both fields are empty.
type Scope struct {
	City  string
	State string
}

// All reports whether the scope covers every captured city.
func (s Scope) All() bool { return s.City == "" }

func (s Scope) String() string {
	if s.All() {
		return "all cities"
	}
	return s.City + "/" + strings.ToUpper(s.State)
}

// Consolidator merges per-page capture units into one consolidated
// dataset, deduplicated by listing URL. Rows are copied verbatim — the
// consolidator drops duplicates but never mutates a record; cleaning is
// a downstream concern.
type Consolidator struct {
	logger       *utils.Logger
	dir          string
	outDir       string
	writeParquet bool
}

// NewConsolidator reads capture units from dir and writes consolidated
// outputs to dir's parent, mirroring the capture directory layout.
func NewConsolidator(logger *utils.Logger, dir string, writeParquet bool) *Consolidator {
	return &Consolidator{
		logger:       logger,
		dir:          dir,
		outDir:       filepath.Dir(filepath.Clean(dir)),
		writeParquet: writeParquet,
	}
}

// Consolidate runs one merge over the scope. Unreadable units are skipped
// with a warning; each run's output fully replaces any previous
// consolidated file for the same scope.
func (c *Consolidator) Consolidate(scope Scope) (*models.ConsolidationReport, error) {
	scope.City = strings.ToLower(strings.TrimSpace(scope.City))
	scope.State = strings.ToLower(strings.TrimSpace(scope.State))

	files, err := storage.ListCaptures(c.dir, scope.City, scope.State)
	if err != nil {
		return nil, err
	}

	report := &models.ConsolidationReport{ByCity: make(map[string]int)}
	if len(files) == 0 {
		report.NoData = true
		c.logger.Warn("[consolidate] No capture units found for %s in %s", scope, c.dir)
		return report, ErrNoCaptures
	}

	c.logger.Info("[consolidate] Found %d capture units for %s", len(files), scope)

	seen := make(map[string]struct{})
	var out [][]string

	for _, f := range files {
		rows, err := storage.ReadRows(f.Path)
		if err != nil {
			report.FilesSkipped++
			c.logger.Warn("[consolidate] Skipping %s: %v", filepath.Base(f.Path), err)
			continue
		}
		report.FilesRead++
		c.logger.Info("[consolidate]   %s: %d rows", filepath.Base(f.Path), len(rows))

		for _, row := range rows {
			report.RowsIn++

			link := row[storage.ColLink]
			if link == "" {
				// Cannot be deduplicated without an identity key; keep it
				// and flag it.
				report.UnkeyedRows++
			} else {
				if _, dup := seen[link]; dup {
					report.Duplicates++
					continue
				}
				seen[link] = struct{}{}
			}

			if hasMalformedNumerics(row) {
				report.MalformedRows++
			}

			report.ByCity[row[storage.ColCidade]+"/"+row[storage.ColEstado]]++
			out = append(out, row)
		}
	}

	report.RowsOut = len(out)

	outPath := filepath.Join(c.outDir, storage.ConsolidatedFileName(scope.City, scope.State))
	if err := storage.WriteConsolidated(outPath, out); err != nil {
		return report, err
	}
	report.OutputPath = outPath

	if c.writeParquet {
		pqPath := strings.TrimSuffix(outPath, ".csv") + ".parquet"
		if err := storage.WriteConsolidatedParquet(pqPath, out); err != nil {
			c.logger.Error("[consolidate] Parquet export failed: %v", err)
		} else {
			report.ParquetPath = pqPath
		}
	}

	if report.Duplicates > 0 {
		c.logger.Info("[consolidate] Removed %d duplicates", report.Duplicates)
	}
	return report, nil
}

// hasMalformedNumerics reports whether any numeric cell is non-empty but
// fails coercion. Such rows are written out untouched; the counter just
// warns downstream consumers.
func hasMalformedNumerics(row []string) bool {
	for _, idx := range []int{storage.ColQuartos, storage.ColBanheiros} {
		if cell := row[idx]; cell != "" {
			if _, err := strconv.Atoi(cell); err != nil {
				return true
			}
		}
	}
	if cell := row[storage.ColAreaM2]; cell != "" {
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return true
		}
	}
	return false
}

// Print writes a human-readable consolidation report to stdout.
func (c *Consolidator) Print(r *models.ConsolidationReport) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("CONSOLIDATION REPORT")
	fmt.Println(line)

	if r.NoData {
		fmt.Println("No capture units matched the scope — nothing written.")
		fmt.Println(line)
		return
	}

	fmt.Printf("Capture units read:    %d (skipped: %d)\n", r.FilesRead, r.FilesSkipped)
	fmt.Printf("Rows in:               %d\n", r.RowsIn)
	fmt.Printf("Unique rows out:       %d\n", r.RowsOut)
	fmt.Printf("Duplicates dropped:    %d\n", r.Duplicates)
	fmt.Printf("Rows without a link:   %d\n", r.UnkeyedRows)
	fmt.Printf("Rows w/ odd numerics:  %d\n", r.MalformedRows)

	if len(r.ByCity) > 0 {
		fmt.Println("\nListings per city:")
		keys := make([]string, 0, len(r.ByCity))
		for k := range r.ByCity {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-30s %d\n", k, r.ByCity[k])
		}
	}

	fmt.Printf("\nOutput: %s\n", r.OutputPath)
	if r.ParquetPath != "" {
		fmt.Printf("Parquet: %s\n", r.ParquetPath)
	}
	fmt.Println(line)
}
