// Package sculpture holds the structured description of the ice sculpture
// being designed across a conversation.
//
// The state is re-rendered into the system prompt on every chat turn so the
// stateless remote model keeps continuity. It changes only through an
// Updater; with the default NopUpdater it stays at its initial values.
package sculpture

// Element keys the prompt vocabulary is restricted to.
const (
	ElementTip         = "tip"
	ElementUpperBody   = "upper_body"
	ElementMiddleBody  = "middle_body"
	ElementLowerBody   = "lower_body"
	ElementBase        = "base"
	ElementDecorations = "decorations"
)

// DefaultTextures is the texture list every new sculpture starts with.
var DefaultTextures = []string{"clear", "frosty"}

// Elements describes the carved structure from top to bottom.
type Elements struct {
	Tip         string   `json:"tip"`
	UpperBody   string   `json:"upper_body"`
	MiddleBody  string   `json:"middle_body"`
	LowerBody   string   `json:"lower_body"`
	Base        string   `json:"base"`
	Decorations []string `json:"decorations"`
}

// State is the sculpture being iteratively designed.
type State struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Elements      Elements `json:"elements"`
	Textures      []string `json:"textures"`
	Modifications []string `json:"modifications"`
}

// New returns a state with every field at its neutral default.
func New() State {
	textures := make([]string, len(DefaultTextures))
	copy(textures, DefaultTextures)

	return State{
		Elements: Elements{
			Decorations: []string{},
		},
		Textures:      textures,
		Modifications: []string{},
	}
}

// Clone returns a deep copy. Nil slices come back empty so the JSON form
// always carries arrays.
func (s State) Clone() State {
	c := s
	c.Elements.Decorations = cloneStrings(s.Elements.Decorations)
	c.Textures = cloneStrings(s.Textures)
	c.Modifications = cloneStrings(s.Modifications)
	return c
}

// SetElement assigns one of the five structural elements by key.
// Returns false for unknown keys (including "decorations", which is a list).
func (s *State) SetElement(key, value string) bool {
	switch key {
	case ElementTip:
		s.Elements.Tip = value
	case ElementUpperBody:
		s.Elements.UpperBody = value
	case ElementMiddleBody:
		s.Elements.MiddleBody = value
	case ElementLowerBody:
		s.Elements.LowerBody = value
	case ElementBase:
		s.Elements.Base = value
	default:
		return false
	}
	return true
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
