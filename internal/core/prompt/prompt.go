// Package prompt turns a scene document and a user instruction into the
// chat messages sent to the generation provider. Everything here is pure.
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

var ErrEmptyInstruction = errors.New("instruction is empty")

// Message is one chat turn in the provider's format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System is the fixed instruction block: the exact entity schema and the
// rules for decomposing high-level requests into primitives.
const System = `You edit a 2D scene stored as a JSON array. Every element follows this schema exactly:

[{
  "id": string,
  "type": "sprite" | "primitive",
  // type "sprite":    "key": string (texture asset name)
  // type "primitive": one of
  //   circle:    "shape": "circle",    "radius": number
  //   rectangle: "shape": "rectangle", "width": number, "height": number
  //   triangle:  "shape": "triangle",  "width": number, "height": number
  "fillColor"?: number (packed 0xRRGGBB as a decimal integer, primitives only),
  "position": [number, number, number],
  "rotation": [number, number, number],
  "scale":    [number, number, number]
}]

Break high-level requests into several primitives:
- a house is a rectangle for the body plus a triangle for the roof; windows and doors may be added
- a person is a circle for the head and rectangles for the body, arms and legs

Every "id" must be unique across the array (for example "houseBody1", "roof1", "person1_head").
Keep existing entities unless the instruction says otherwise.
Reply with the complete updated JSON array only, with no prose and no markdown.`

// Build returns the system and user messages for one edit. scene must be a
// JSON document; it is re-indented for readability.
func Build(scene []byte, instruction string) ([]Message, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(scene), "", "  "); err != nil {
		return nil, err
	}

	var user strings.Builder
	user.WriteString("Current scene:\n```json\n")
	user.Write(pretty.Bytes())
	user.WriteString("\n```\nInstruction: ")
	user.WriteString(instruction)

	return []Message{
		{Role: RoleSystem, Content: System},
		{Role: RoleUser, Content: user.String()},
	}, nil
}
