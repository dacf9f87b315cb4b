package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shop-assistant/internal/domain"
)

const extractorSystemPrompt = `Tu única función es analizar la consulta del usuario y DEVOLVER ÚNICAMENTE UN OBJETO JSON VÁLIDO. ` +
	`NO INCLUYAS NINGÚN TEXTO EXPLICATIVO, SALUDO, COMENTARIO, O CUALQUIER OTRA COSA FUERA DEL OBJETO JSON. ` +
	`El objeto JSON debe tener exactamente dos claves de nivel superior: 'intent' (un string con la intención del usuario) y 'entities' (un diccionario que contenga las entidades extraídas como pares clave-valor). ` +
	`Las intenciones posibles son: 'search_product', 'compare_products', 'request_recommendation', 'view_cart', 'greet', 'farewell', 'other'. ` +
	`Las entidades comunes a extraer son: 'nombre_producto', 'marca', 'categoria', 'color', 'talla', 'precio_maximo', 'caracteristicas_adicionales'. ` +
	`Para la entidad 'categoria', si el usuario menciona un tipo de producto como 'botas de montaña', 'televisor LED', o 'zapatillas para correr', intenta extraer la categoría más específica posible (ej. 'botas de montaña', 'televisor LED', 'zapatillas para correr') o la categoría principal (ej. 'botas', 'televisor', 'zapatillas') como valor para la clave 'categoria' en el diccionario 'entities'. ` +
	`Para la entidad 'marca', si el usuario menciona un nombre específico junto al tipo de producto (ej. 'televisor SuperVision'), considera ese nombre como la marca. Extrae el nombre tal cual lo dice el usuario como valor para la clave 'marca' en 'entities'. ` +
	`Si una entidad no se encuentra, no incluyas su clave en el diccionario 'entities'. ` +
	`Si la intención no es clara o no hay entidades útiles, usa la intención 'other' y un diccionario 'entities' vacío. ` +
	`La estructura general del JSON que debes devolver es: {"intent": "valor_de_la_intencion", "entities": {"nombre_entidad_1": "valor_entidad_1"}}. ` +
	`REPITO: Tu respuesta DEBE SER SOLO EL OBJETO JSON y nada más.`

// Extractor turns a transcribed utterance into an intent plus entity slots.
// It never fails: every error path degrades to a tagged error intent with
// empty entities, so the pipeline always moves forward.
type Extractor struct {
	model ChatModel
}

func NewExtractor(model ChatModel) *Extractor {
	return &Extractor{model: model}
}

type ExtractResult struct {
	Intent   domain.Intent
	Entities domain.Entities
	Log      string
}

func (e *Extractor) Extract(ctx context.Context, userInput string) ExtractResult {
	if e.model == nil {
		return ExtractResult{
			Intent:   domain.IntentErrorLLM,
			Entities: domain.Entities{},
			Log:      "nlu_error: chat model not initialized",
		}
	}

	raw, err := e.model.Invoke(ctx, extractorSystemPrompt, "Analiza esta consulta: "+userInput)
	if err != nil {
		return ExtractResult{
			Intent:   domain.IntentErrorUnexpected,
			Entities: domain.Entities{},
			Log:      fmt.Sprintf("nlu_error: %v", err),
		}
	}

	raw = strings.TrimSpace(raw)
	candidate := isolateJSONObject(raw)
	if candidate == "" {
		// No balanced object found; try the raw reply and let the parse
		// fail loudly instead of guessing.
		candidate = raw
	}

	var parsed struct {
		Intent   string          `json:"intent"`
		Entities domain.Entities `json:"entities"`
	}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return ExtractResult{
			Intent:   domain.IntentErrorFormat,
			Entities: domain.Entities{},
			Log: fmt.Sprintf("nlu_error: invalid json: attempted='%s' raw='%s'",
				preview(candidate, logPreviewLen), preview(raw, logPreviewLen)),
		}
	}

	intent := domain.Intent(parsed.Intent)
	if parsed.Intent == "" {
		intent = domain.IntentOther
	}
	entities := parsed.Entities
	if entities == nil {
		entities = domain.Entities{}
	}

	return ExtractResult{
		Intent:   intent,
		Entities: entities,
		Log: fmt.Sprintf("nlu: input='%s' intent='%s' entities='%s' parsed='%s' raw='%s'",
			userInput, intent, compactJSON(entities),
			preview(candidate, logPreviewLen), preview(raw, logPreviewLen)),
	}
}

// isolateJSONObject returns the first balanced {...} block in s, tolerating
// prose wrapped around the model's JSON. Plain brace counting: a brace
// inside a JSON string literal will fool it, which is accepted here since
// extracted slot values don't contain braces in practice.
func isolateJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
