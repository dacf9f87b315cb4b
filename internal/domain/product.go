package domain

import (
	"encoding/json"
	"strconv"
)

// Product is a catalog entry. Field names follow the catalog file schema.
// All fields are optional; records are immutable once loaded.
type Product struct {
	ID              string     `json:"id"`
	Nombre          string     `json:"nombre"`
	Marca           string     `json:"marca"`
	Categoria       string     `json:"categoria"`
	Precio          float64    `json:"precio"`
	Colores         StringList `json:"colores"`
	Tallas          StringList `json:"tallas_disponibles"`
	Caracteristicas StringList `json:"caracteristicas"`
}

// StringList tolerates catalog files that mix strings and numbers in the
// same array (shoe sizes are commonly written as bare numbers).
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(StringList, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return err
			}
			out = append(out, string(encoded))
		}
	}

	*l = out
	return nil
}
