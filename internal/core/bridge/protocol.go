package bridge

import (
	"encoding/json"
	"strings"

	"github.com/scraper-sky/2d-scene-editor/internal/core/prompt"
)

// EditRequest is the body sent to the relay.
type EditRequest struct {
	SceneDefs   json.RawMessage `json:"sceneDefs"`
	Instruction string          `json:"instruction"`
}

// EditResponse is the relay's success body. UpdatedJSON is the model's raw
// text and may still be wrapped in markdown fences.
type EditResponse struct {
	UpdatedJSON string `json:"updatedJson"`
}

// ErrorResponse is the relay's failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BuildRequest pairs an encoded scene with the user's instruction. It has no
// side effects.
func BuildRequest(sceneDoc []byte, instruction string) (EditRequest, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return EditRequest{}, prompt.ErrEmptyInstruction
	}
	doc := make(json.RawMessage, len(sceneDoc))
	copy(doc, sceneDoc)
	return EditRequest{SceneDefs: doc, Instruction: instruction}, nil
}

const fence = "```"

// StripFences removes a leading ``` marker with its optional language tag
// and a trailing ``` marker, then trims surrounding whitespace. Text without
// fences only loses its surrounding whitespace, so applying it twice is the
// same as applying it once.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, fence); ok {
		text = strings.TrimLeftFunc(rest, isTagRune)
	}
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutSuffix(text, fence); ok {
		text = rest
	}
	return strings.TrimSpace(text)
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+'
}
