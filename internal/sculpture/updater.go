package sculpture

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// MetadataDelimiter separates the conversational reply from the JSON
// state block when MetadataUpdater is enabled.
const MetadataDelimiter = "---"

var (
	// ErrNoMetadata is returned when a reply carries no state block.
	ErrNoMetadata = errors.New("reply has no sculpture metadata block")
	// ErrInvalidMetadata is returned when the state block is not valid JSON.
	ErrInvalidMetadata = errors.New("invalid sculpture metadata")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Turn is one completed chat exchange.
type Turn struct {
	UserInput string
	Reply     string
}

// Updater is the state-update step run after every text-mode chat turn.
//
// Instructions is appended to the system prompt so the model knows how to
// report changes. Apply may mutate state and returns the reply text that
// should be shown to the user and stored in the conversation log. On error
// the state must be left untouched and the returned reply is still usable.
type Updater interface {
	Instructions() string
	Apply(state *State, turn Turn) (string, error)
}

// NopUpdater never changes the state.
type NopUpdater struct{}

// Instructions returns an empty string.
func (NopUpdater) Instructions() string { return "" }

// Apply returns the reply unchanged.
func (NopUpdater) Apply(_ *State, turn Turn) (string, error) { return turn.Reply, nil }

// Metadata is the JSON block the model appends after MetadataDelimiter.
// Empty fields mean "unchanged".
type Metadata struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Elements     map[string]string `json:"elements"`
	Decorations  []string          `json:"decorations"`
	Textures     []string          `json:"textures"`
	Modification string            `json:"modification"`
}

const metadataInstructions = `

After your reply, output a line containing only "---" followed by one JSON object describing the sculpture after this turn:
{"name": "", "description": "", "elements": {"tip": "", "upper_body": "", "middle_body": "", "lower_body": "", "base": ""}, "decorations": [], "textures": [], "modification": ""}
Leave a field empty when it did not change. "modification" is a one-line summary of what the user asked to change this turn, or empty.`

// MetadataUpdater parses a trailing JSON block out of the model reply and
// merges it into the state.
type MetadataUpdater struct{}

// Instructions tells the model to emit the metadata block.
func (MetadataUpdater) Instructions() string { return metadataInstructions }

// Apply strips the metadata block from the reply and merges it into state.
func (MetadataUpdater) Apply(state *State, turn Turn) (string, error) {
	text, meta, err := SplitMetadata(turn.Reply)
	if err != nil {
		return turn.Reply, err
	}
	meta.mergeInto(state)
	return text, nil
}

// SplitMetadata separates the conversational text from the trailing JSON
// block. The last delimiter line wins.
func SplitMetadata(reply string) (string, Metadata, error) {
	var meta Metadata

	lines := strings.Split(reply, "\n")
	idx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == MetadataDelimiter {
			idx = i
			break
		}
	}
	if idx == -1 {
		return reply, meta, ErrNoMetadata
	}

	raw := strings.TrimSpace(strings.Join(lines[idx+1:], "\n"))
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return reply, meta, ErrNoMetadata
	}

	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return reply, Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	text := strings.TrimSpace(strings.Join(lines[:idx], "\n"))
	return text, meta, nil
}

func (m Metadata) mergeInto(s *State) {
	if v := strings.TrimSpace(m.Name); v != "" {
		s.Name = v
	}
	if v := strings.TrimSpace(m.Description); v != "" {
		s.Description = v
	}
	for key, value := range m.Elements {
		if v := strings.TrimSpace(value); v != "" {
			s.SetElement(key, v)
		}
	}
	if len(m.Decorations) > 0 {
		s.Elements.Decorations = cloneStrings(m.Decorations)
	}
	if len(m.Textures) > 0 {
		s.Textures = cloneStrings(m.Textures)
	}
	if v := strings.TrimSpace(m.Modification); v != "" {
		s.Modifications = append(s.Modifications, v)
	}
}
