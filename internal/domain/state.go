package domain

// State is the single record threaded through the pipeline. Each field is
// written by exactly one stage and never rewritten by a later one:
// UserInput is set at construction, Intent and Entities by the extractor,
// CatalogResults by the matcher, FinalResponse by the composer. CallLog is
// append-only; every stage contributes exactly one line per run.
type State struct {
	UserInput      string
	Intent         Intent
	Entities       Entities
	CatalogResults []Product
	FinalResponse  string
	CallLog        []string
}

func NewState(userInput string) *State {
	return &State{
		UserInput: userInput,
		CallLog:   []string{},
	}
}

func (s *State) AppendLog(line string) {
	s.CallLog = append(s.CallLog, line)
}
