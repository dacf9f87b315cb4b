package application

import (
	"fmt"
	"strings"

	"shop-assistant/internal/domain"
)

// Matcher filters the catalog against extracted entities. Every slot the
// user supplied must hit for a record to qualify; there is no ranked
// scoring and no top-K cutoff. Results keep catalog order.
type Matcher struct {
	catalog []domain.Product
}

func NewMatcher(catalog []domain.Product) *Matcher {
	return &Matcher{catalog: catalog}
}

type MatchResult struct {
	Results []domain.Product
	Log     string
}

func (m *Matcher) Match(intent domain.Intent, entities domain.Entities) MatchResult {
	if len(m.catalog) == 0 {
		return MatchResult{
			Results: []domain.Product{},
			Log:     "catalog_error: catalog not available",
		}
	}

	if !intent.NeedsCatalog() {
		return MatchResult{
			Results: []domain.Product{},
			Log:     fmt.Sprintf("catalog_skip: intent='%s'", intent),
		}
	}

	// No entities means no basis for filtering. Returning the whole catalog
	// here would drown the composer in noise, so strict means empty.
	results := []domain.Product{}
	if len(entities) > 0 {
		for _, product := range m.catalog {
			if matchProduct(product, entities) {
				results = append(results, product)
			}
		}
	}

	if len(results) == 0 {
		return MatchResult{
			Results: results,
			Log:     fmt.Sprintf("catalog: entities='%s' no products found (strict match)", compactJSON(entities)),
		}
	}

	type summary struct {
		ID     string `json:"id"`
		Nombre string `json:"nombre"`
	}
	examples := make([]summary, 0, 3)
	for _, product := range results {
		examples = append(examples, summary{ID: product.ID, Nombre: product.Nombre})
		if len(examples) == 3 {
			break
		}
	}

	return MatchResult{
		Results: results,
		Log: fmt.Sprintf("catalog: entities='%s' found=%d examples='%s'",
			compactJSON(entities), len(results), compactJSON(examples)),
	}
}

// matchProduct scores one record against the supplied entities. Each
// present slot raises the bar by one; a record qualifies only when every
// slot found its counterpart. The lone exception is a category that only
// appears inside the product name, which earns half credit and therefore
// can never satisfy the bar on its own.
func matchProduct(p domain.Product, entities domain.Entities) bool {
	var required int
	var matched float64

	if category := strings.ToLower(entities[domain.SlotCategory]); category != "" {
		required++
		productCategory := strings.ToLower(p.Categoria)
		switch {
		case strings.Contains(productCategory, category) || strings.Contains(category, productCategory):
			matched++
		case strings.Contains(strings.ToLower(p.Nombre), category):
			matched += 0.5
		}
	}

	if brand := strings.ToLower(entities[domain.SlotBrand]); brand != "" {
		required++
		if strings.Contains(strings.ToLower(p.Marca), brand) {
			matched++
		}
	}

	if name := strings.ToLower(entities[domain.SlotProductName]); name != "" {
		required++
		if strings.Contains(strings.ToLower(p.Nombre), name) {
			matched++
		}
	}

	if size := strings.ToLower(entities[domain.SlotSizeNumber]); size != "" {
		required++
		if digits := digitsOnly(size); digits != "" {
			if strings.Contains(strings.ToLower(p.Nombre), digits) || anyContains(p.Caracteristicas, digits) {
				matched++
			}
		}
	}

	if color := strings.ToLower(entities[domain.SlotColor]); color != "" {
		required++
		for _, c := range p.Colores {
			if strings.ToLower(c) == color {
				matched++
				break
			}
		}
	}

	if sizeLabel := entities[domain.SlotSizeLabel]; sizeLabel != "" {
		required++
		for _, t := range p.Tallas {
			if t == sizeLabel {
				matched++
				break
			}
		}
	}

	return required > 0 && matched >= float64(required)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func anyContains(items []string, substr string) bool {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), substr) {
			return true
		}
	}
	return false
}
