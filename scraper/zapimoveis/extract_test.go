package zapimoveis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullCard = `<html><body>
<a href="/imovel/casa-3-quartos-centro-id-100/" title="Casa com 3 quartos, 2 banheiros, 120 m² em Rua das Flores, Centro">
  <h2>Centro, Guarapuava</h2>
  <p data-cy="rp-cardProperty-street-txt">Rua das Flores</p>
  <span>R$ 450.000</span>
</a>
</body></html>`

func TestExtractFullCard(t *testing.T) {
	records, skipped := ExtractListings(fullCard, "guarapuava", "pr")
	require.Len(t, records, 1)
	assert.Equal(t, 0, skipped)

	r := records[0]
	assert.Equal(t, "R$ 450.000", r.Price)
	assert.Equal(t, "Rua das Flores", r.Street)
	assert.Equal(t, "Centro, Guarapuava", r.Address)
	assert.Equal(t, "https://www.zapimoveis.com.br/imovel/casa-3-quartos-centro-id-100/", r.URL)
	assert.Equal(t, "guarapuava", r.City)
	assert.Equal(t, "pr", r.State)

	require.NotNil(t, r.Bedrooms)
	assert.Equal(t, 3, *r.Bedrooms)
	require.NotNil(t, r.Bathrooms)
	assert.Equal(t, 2, *r.Bathrooms)
	require.NotNil(t, r.AreaM2)
	assert.Equal(t, 120.0, *r.AreaM2)
}

func TestExtractTitleFallbacks(t *testing.T) {
	// No street paragraph and no h2: street and address must come out of
	// the title attribute.
	html := `<html><body>
<a href="https://www.zapimoveis.com.br/imovel/id-200/" title="Apartamento com 2 quartos em Rua Saldanha Marinho, Batel">
  <span>R$ 320.000,00</span>
</a>
</body></html>`

	records, _ := ExtractListings(html, "curitiba", "pr")
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "R$ 320.000,00", r.Price)
	assert.Equal(t, "Rua Saldanha Marinho", r.Street)
	assert.Equal(t, "Rua Saldanha Marinho", r.Address)
	assert.Nil(t, r.Bathrooms)
	require.NotNil(t, r.Bedrooms)
	assert.Equal(t, 2, *r.Bedrooms)
}

func TestExtractSpanFallbackForNumbers(t *testing.T) {
	html := `<html><body>
<a href="/imovel/id-300/" title="Casa à venda">
  <h2>Santa Cruz, Guarapuava</h2>
  <span>R$ 280.000</span>
  <span>2 quartos</span>
  <span>1 banheiro</span>
  <span>85,5 m²</span>
</a>
</body></html>`

	records, _ := ExtractListings(html, "guarapuava", "pr")
	require.Len(t, records, 1)

	r := records[0]
	require.NotNil(t, r.Bedrooms)
	assert.Equal(t, 2, *r.Bedrooms)
	require.NotNil(t, r.Bathrooms)
	assert.Equal(t, 1, *r.Bathrooms)
	require.NotNil(t, r.AreaM2)
	assert.Equal(t, 85.5, *r.AreaM2)
}

func TestExtractSkipsCardWithoutPriceAndAddress(t *testing.T) {
	html := `<html><body>
<a href="/imovel/id-400/"><span>Destaque</span></a>
<a href="/imovel/id-401/" title="Casa"><h2>Centro</h2><span>R$ 100.000</span></a>
</body></html>`

	records, skipped := ExtractListings(html, "guarapuava", "pr")
	assert.Len(t, records, 1)
	assert.Equal(t, 1, skipped)
}

func TestExtractEmptyPage(t *testing.T) {
	records, skipped := ExtractListings("<html><body><p>Nenhum resultado</p></body></html>", "guarapuava", "pr")
	assert.Empty(t, records)
	assert.Equal(t, 0, skipped)
}

func TestExtractSelectorFallbackToArticle(t *testing.T) {
	// Older layout variant: article cards instead of /imovel/ anchors.
	html := `<html><body>
<article title="Casa com 1 quarto em Vila Bela">
  <h2>Vila Bela, Guarapuava</h2>
  <span>R$ 199.000</span>
</article>
</body></html>`

	records, _ := ExtractListings(html, "guarapuava", "pr")
	require.Len(t, records, 1)
	assert.Equal(t, "Vila Bela, Guarapuava", records[0].Address)
	assert.Empty(t, records[0].URL)
}

func TestDetectTotalPages(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{"from pagination text", `<html><body><span>1 de 23 páginas</span></body></html>`, 23},
		{"from page buttons", `<html><body>
			<button aria-label="Página 1"></button>
			<button aria-label="Página 7"></button>
			<button aria-label="Página 3"></button>
		</body></html>`, 7},
		{"no paginator", `<html><body></body></html>`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectTotalPages(tt.html))
		})
	}
}

// pageHTML builds a results page with n distinct listing cards; used by
// the harvester tests too.
func pageHTML(page, n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b,
			`<a href="/imovel/casa-%d-%d/" title="Casa com 3 quartos, 2 banheiros, 120 m² em Rua das Flores, Centro"><h2>Centro</h2><span>R$ 450.000</span></a>`,
			page, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}
