package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Intent string

const (
	IntentSearchProduct         Intent = "search_product"
	IntentCompareProducts       Intent = "compare_products"
	IntentRequestRecommendation Intent = "request_recommendation"
	IntentViewCart              Intent = "view_cart"
	IntentGreet                 Intent = "greet"
	IntentFarewell              Intent = "farewell"
	IntentOther                 Intent = "other"
)

// Error sentinels produced when extraction degrades instead of failing.
const (
	IntentErrorLLM        Intent = "error_nlu_llm"
	IntentErrorFormat     Intent = "error_nlu_format"
	IntentErrorUnexpected Intent = "error_nlu_unexpected"
)

func (i Intent) IsError() bool {
	return strings.HasPrefix(string(i), "error_nlu")
}

// NeedsCatalog reports whether the intent warrants a catalog lookup.
func (i Intent) NeedsCatalog() bool {
	switch i {
	case IntentSearchProduct, IntentRequestRecommendation, IntentCompareProducts:
		return true
	}
	return false
}

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

// Slot names the extractor recognizes. Spanish keys, matching the catalog schema.
const (
	SlotProductName   = "nombre_producto"
	SlotBrand         = "marca"
	SlotCategory      = "categoria"
	SlotColor         = "color"
	SlotSizeLabel     = "talla"
	SlotSizeNumber    = "tamaño"
	SlotMaxPrice      = "precio_maximo"
	SlotExtraFeatures = "caracteristicas_adicionales"
)

// Entities maps slot names to extracted values. Models occasionally emit
// numbers for sizes or prices, so scalar values are coerced to strings.
type Entities map[string]string

func (e *Entities) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Entities, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		case nil:
			// absent value, drop the key
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return err
			}
			out[key] = string(encoded)
		}
	}

	*e = out
	return nil
}
