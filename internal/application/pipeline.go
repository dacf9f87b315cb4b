package application

import (
	"context"

	"shop-assistant/internal/domain"
)

// Pipeline threads a shared state record through the three stages in fixed
// order: extract, match, compose. All three always run; any skip logic
// lives inside the stage itself, never here. The orchestrator merges each
// stage's result into the state and appends its call-log line, so the log
// grows by exactly one entry per stage.
type Pipeline struct {
	extractor *Extractor
	matcher   *Matcher
	composer  *Composer
}

func NewPipeline(extractor *Extractor, matcher *Matcher, composer *Composer) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		matcher:   matcher,
		composer:  composer,
	}
}

func (p *Pipeline) Run(ctx context.Context, userInput string) *domain.State {
	state := domain.NewState(userInput)

	extracted := p.extractor.Extract(ctx, state.UserInput)
	state.Intent = extracted.Intent
	state.Entities = extracted.Entities
	state.AppendLog(extracted.Log)

	matched := p.matcher.Match(state.Intent, state.Entities)
	state.CatalogResults = matched.Results
	state.AppendLog(matched.Log)

	composed := p.composer.Compose(ctx, state.UserInput, state.Intent, state.Entities, state.CatalogResults)
	state.FinalResponse = composed.Response
	state.AppendLog(composed.Log)

	return state
}
