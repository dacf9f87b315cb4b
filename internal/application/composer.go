package application

import (
	"context"
	"fmt"
	"strings"

	"shop-assistant/internal/domain"
)

// Fixed replies used when the composer does not consult the model.
const (
	ReplyRephrase = "Lo siento, tuve algunos problemas para entender completamente tu solicitud de voz. " +
		"¿Podrías intentar reformularla o ser un poco más específico?"
	ReplyGreeting  = "¡Hola! Soy tu asistente de compras inteligente. ¿Cómo puedo ayudarte hoy?"
	ReplyFarewell  = "¡Hasta pronto! Que tengas un excelente día."
	ReplyModelDown = "Lo siento, estoy experimentando un problema técnico y no puedo generar una respuesta en este momento."
	ReplyFailed    = "Lo siento, no pude generar una respuesta en este momento."
)

const composerInstruction = "Basándote en el contexto anterior, formula una respuesta ÚNICA, CONVERSACIONAL, AMIGABLE y DIRECTA para el usuario. " +
	"NO simules múltiples turnos de conversación. NO uses prefijos como 'Bot:'. NO uses comillas innecesarias alrededor de toda tu respuesta. " +
	"Simplemente proporciona la frase que el asistente debería decir."

const noResultsSystemPrompt = "Eres un asistente de compras virtual servicial y empático. " +
	"Tu tarea es informar al usuario de manera clara y amigable que no se encontraron productos para su búsqueda. " +
	"Anímale a intentar con diferentes términos, a ser más general, o pregunta si puedes ayudarle con otra cosa."

const directReplySystemPrompt = "Eres un asistente de compras virtual servicial y empático. " +
	"Responde de forma concisa, amigable y directa a la consulta del usuario basándote en la intención y el contexto proporcionado."

const resultsSystemPrompt = "Eres un asistente de compras virtual experto, amigable y servicial. " +
	"Basándote en la consulta del usuario y los productos encontrados (listados en el contexto), " +
	"genera una respuesta ÚNICA, FLUIDA, CONVERSACIONAL y DIRECTA. " +
	"Presenta la información de manera clara y útil. Si hay productos, menciona uno o dos de los más relevantes. " +
	"Puedes concluir preguntando si desea más detalles sobre alguno en particular, si quiere ver otras opciones, o si hay algo más en lo que puedas asistir. " +
	"Ejemplo de una buena respuesta si encuentras 'Botas de Montaña TerraTrek': 'Encontré las Botas de Montaña TerraTrek. Son impermeables y cuestan $180.00. " +
	"¿Te gustaría saber más detalles sobre estas botas o prefieres que busque otras opciones?'"

// Composer turns the accumulated state into user-facing text. Error intents
// and bare greetings resolve to fixed strings without touching the model;
// everything else is a context-conditioned model call whose reply gets
// sanitized before leaving the stage.
type Composer struct {
	model ChatModel
}

func NewComposer(model ChatModel) *Composer {
	return &Composer{model: model}
}

type ComposeResult struct {
	Response string
	Log      string
}

func (c *Composer) Compose(ctx context.Context, userInput string, intent domain.Intent, entities domain.Entities, results []domain.Product) ComposeResult {
	if intent.IsError() {
		return fixedReply(intent, ReplyRephrase)
	}

	if (intent == domain.IntentGreet || intent == domain.IntentFarewell) && len(results) == 0 {
		if intent == domain.IntentGreet {
			return fixedReply(intent, ReplyGreeting)
		}
		return fixedReply(intent, ReplyFarewell)
	}

	if c.model == nil {
		return ComposeResult{
			Response: ReplyModelDown,
			Log:      "response_error: chat model not initialized",
		}
	}

	system, user := buildComposerPrompt(userInput, intent, entities, results)

	raw, err := c.model.Invoke(ctx, system, user)
	if err != nil {
		return ComposeResult{
			Response: ReplyFailed,
			Log:      fmt.Sprintf("response_error: %v", err),
		}
	}

	response := sanitizeReply(raw)
	return ComposeResult{
		Response: response,
		Log: fmt.Sprintf("response: intent='%s' found=%d generated='%s'",
			intent, len(results), preview(response, logPreviewLen)),
	}
}

func fixedReply(intent domain.Intent, text string) ComposeResult {
	return ComposeResult{
		Response: text,
		Log:      fmt.Sprintf("response: intent='%s' generated='%s'", intent, text),
	}
}

func buildComposerPrompt(userInput string, intent domain.Intent, entities domain.Entities, results []domain.Product) (system, user string) {
	var context strings.Builder
	fmt.Fprintf(&context, "La consulta original del usuario (transcrita de voz) fue: '%s'.\n", userInput)
	if intent != "" {
		fmt.Fprintf(&context, "La intención identificada fue: '%s'.\n", intent)
	}
	if len(entities) > 0 {
		fmt.Fprintf(&context, "Las entidades relevantes extraídas fueron: %s.\n", compactJSON(entities))
	}

	switch {
	case len(results) == 0 && intent.NeedsCatalog():
		context.WriteString("No se encontraron productos en el catálogo que coincidan exactamente con la búsqueda del usuario.\n")
		system = noResultsSystemPrompt

	case len(results) == 0:
		context.WriteString("No se requirió consultar el catálogo para esta interacción.\n")
		system = directReplySystemPrompt

	default:
		context.WriteString("Se encontraron los siguientes productos que podrían interesarle al usuario:\n")
		for i, product := range results {
			if i == 2 {
				break
			}
			name := product.Nombre
			if name == "" {
				name = "Nombre no disponible"
			}
			fmt.Fprintf(&context, "  - %s", name)
			if product.Marca != "" {
				fmt.Fprintf(&context, " (Marca: %s)", product.Marca)
			}
			if product.Precio > 0 {
				fmt.Fprintf(&context, ", Precio: $%.2f", product.Precio)
			}
			context.WriteString("\n")
		}
		if len(results) > 2 {
			fmt.Fprintf(&context, "  ... y %d producto(s) más similares.\n", len(results)-2)
		}
		system = resultsSystemPrompt
	}

	return system, context.String() + "\n" + composerInstruction
}

// replyPrefixes are role artifacts some models prepend despite instructions.
// Longest first so "Respuesta del asistente:" is stripped whole.
var replyPrefixes = []string{"Respuesta del asistente:", "Respuesta:", "Bot:"}

func sanitizeReply(raw string) string {
	reply := strings.TrimSpace(raw)

	for _, prefix := range replyPrefixes {
		if len(reply) >= len(prefix) && strings.EqualFold(reply[:len(prefix)], prefix) {
			reply = strings.TrimSpace(reply[len(prefix):])
		}
	}

	if len(reply) >= 2 {
		first, last := reply[0], reply[len(reply)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			reply = reply[1 : len(reply)-1]
		}
	}

	return reply
}
