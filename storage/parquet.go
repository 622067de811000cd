package storage

import (
	"fmt"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// consolidatedRow is the typed Parquet schema for the consolidated
// dataset. Numeric columns are optional; a CSV cell that is empty or
// fails coercion becomes a null rather than a guessed value.
type consolidatedRow struct {
	Preco      string   `parquet:"preco,optional"`
	Rua        string   `parquet:"rua,optional"`
	Endereco   string   `parquet:"endereco,optional"`
	Quartos    *int32   `parquet:"quartos,optional"`
	Banheiros  *int32   `parquet:"banheiros,optional"`
	AreaM2     *float64 `parquet:"area_m2,optional"`
	Link       string   `parquet:"link"`
	Cidade     string   `parquet:"cidade"`
	Estado     string   `parquet:"estado"`
	DataColeta string   `parquet:"data_coleta,optional"`
}

// WriteConsolidatedParquet writes the consolidated rows as a Parquet
// twin of the CSV output.
func WriteConsolidatedParquet(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create parquet %q: %w", path, err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[consolidatedRow](f)
	for _, row := range rows {
		if len(row) != len(Columns) {
			continue
		}
		pr := consolidatedRow{
			Preco:      row[ColPreco],
			Rua:        row[ColRua],
			Endereco:   row[ColEndereco],
			Quartos:    parseInt32Cell(row[ColQuartos]),
			Banheiros:  parseInt32Cell(row[ColBanheiros]),
			AreaM2:     parseFloatCell(row[ColAreaM2]),
			Link:       row[ColLink],
			Cidade:     row[ColCidade],
			Estado:     row[ColEstado],
			DataColeta: row[ColDataColeta],
		}
		if _, err := w.Write([]consolidatedRow{pr}); err != nil {
			return fmt.Errorf("storage: write parquet row: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close parquet writer: %w", err)
	}
	return f.Close()
}

func parseInt32Cell(s string) *int32 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil
	}
	v := int32(n)
	return &v
}

func parseFloatCell(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
