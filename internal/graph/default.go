package graph

import _ "embed"

// defaultQuestions is the requirements-elicitation questionnaire shipped
// with the binary, used when no graph path is configured.
//
//go:embed questions.json
var defaultQuestions []byte

// Default returns the embedded questionnaire. The embedded source is
// validated by tests, so a parse failure here means a broken build.
func Default() (Graph, error) {
	return Load(defaultQuestions)
}
