package application

import "context"

// ChatModel is a single chat-completion call: a system instruction plus one
// user message in, free text out. Both pipeline stages that talk to a model
// go through this interface so providers stay interchangeable.
type ChatModel interface {
	Invoke(ctx context.Context, system, user string) (string, error)
}
