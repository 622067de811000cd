package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imoveis-scraper/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleCapture(city, state string, page, n int) *models.PageCapture {
	c := &models.PageCapture{City: city, State: state, Page: page}
	for i := 0; i < n; i++ {
		c.Records = append(c.Records, &models.ListingRecord{
			Price:       "R$ 450.000",
			Street:      "Rua das Flores",
			Address:     "Centro, " + city,
			Bedrooms:    intPtr(3),
			Bathrooms:   intPtr(2),
			AreaM2:      floatPtr(120.5),
			URL:         "https://www.zapimoveis.com.br/imovel/" + city + "-" + string(rune('a'+page)) + string(rune('a'+i)) + "/",
			City:        city,
			State:       state,
			CollectedAt: time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC),
		})
	}
	return c
}

func TestWritePageNamingAndSchema(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCaptureStore(dir)
	require.NoError(t, err)

	path, err := store.WritePage(sampleCapture("guarapuava", "pr", 3, 2))
	require.NoError(t, err)
	assert.Equal(t, "guarapuava_pr_pagina3.csv", filepath.Base(path))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[0]
	assert.Equal(t, "R$ 450.000", row[ColPreco])
	assert.Equal(t, "Rua das Flores", row[ColRua])
	assert.Equal(t, "3", row[ColQuartos])
	assert.Equal(t, "2", row[ColBanheiros])
	assert.Equal(t, "120.5", row[ColAreaM2])
	assert.Equal(t, "guarapuava", row[ColCidade])
	assert.Equal(t, "pr", row[ColEstado])
	assert.Equal(t, "2026-08-24 10:30:00", row[ColDataColeta])
}

func TestWritePageEmptyCaptureKeepsSchema(t *testing.T) {
	// An empty page still produces a file with the full header: that file
	// is the durable evidence the page was visited.
	dir := t.TempDir()
	store, err := NewCaptureStore(dir)
	require.NoError(t, err)

	path, err := store.WritePage(&models.PageCapture{City: "guarapuava", State: "pr", Page: 7})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "preco,rua,endereco,quartos,banheiros,area_m2,link,cidade,estado,data_coleta\n", string(data))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNilNumericFieldsBecomeEmptyCells(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCaptureStore(dir)
	require.NoError(t, err)

	capture := &models.PageCapture{City: "guarapuava", State: "pr", Page: 1, Records: []*models.ListingRecord{{
		Price:       "R$ 99.000",
		URL:         "https://www.zapimoveis.com.br/imovel/x/",
		City:        "guarapuava",
		State:       "pr",
		CollectedAt: time.Now(),
	}}}
	path, err := store.WritePage(capture)
	require.NoError(t, err)

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0][ColQuartos])
	assert.Empty(t, rows[0][ColBanheiros])
	assert.Empty(t, rows[0][ColAreaM2])
}

func TestListCapturesOrdersPagesNumerically(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCaptureStore(dir)
	require.NoError(t, err)

	for _, page := range []int{10, 2, 1} {
		_, err := store.WritePage(sampleCapture("guarapuava", "pr", page, 1))
		require.NoError(t, err)
	}

	files, err := ListCaptures(dir, "guarapuava", "pr")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{files[0].Page, files[1].Page, files[2].Page})
}

func TestListCapturesFiltersByScope(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCaptureStore(dir)
	require.NoError(t, err)

	_, err = store.WritePage(sampleCapture("guarapuava", "pr", 1, 1))
	require.NoError(t, err)
	_, err = store.WritePage(sampleCapture("curitiba", "pr", 1, 1))
	require.NoError(t, err)

	// Unrelated files are ignored entirely.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	scoped, err := ListCaptures(dir, "curitiba", "pr")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "curitiba", scoped[0].City)

	all, err := ListCaptures(dir, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReadRowsRejectsForeignHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guarapuava_pr_pagina1.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0644))

	_, err := ReadRows(path)
	assert.Error(t, err)
}

func TestConsolidatedFileNames(t *testing.T) {
	assert.Equal(t, "imoveis_guarapuava_pr_completo.csv", ConsolidatedFileName("guarapuava", "pr"))
	assert.Equal(t, "imoveis_todos_completo.csv", ConsolidatedFileName("", ""))
}
