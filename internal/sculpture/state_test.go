package sculpture

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New()

	assert.Empty(t, s.Name)
	assert.Empty(t, s.Description)
	assert.Equal(t, Elements{Decorations: []string{}}, s.Elements)
	assert.Equal(t, []string{"clear", "frosty"}, s.Textures)
	assert.Empty(t, s.Modifications)
}

func TestNew_DoesNotShareDefaultTextures(t *testing.T) {
	s := New()
	s.Textures[0] = "opaque"

	assert.Equal(t, "clear", DefaultTextures[0])
}

func TestState_JSONShape(t *testing.T) {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(New())
	require.NoError(t, err)

	want := `{"name":"","description":"","elements":{"tip":"","upper_body":"","middle_body":"","lower_body":"","base":"","decorations":[]},"textures":["clear","frosty"],"modifications":[]}`
	assert.JSONEq(t, want, string(data))
}

func TestState_Clone(t *testing.T) {
	orig := New()
	orig.Name = "Swan"
	orig.Elements.Decorations = append(orig.Elements.Decorations, "crown")
	orig.Modifications = append(orig.Modifications, "add crown")

	c := orig.Clone()
	c.Elements.Decorations[0] = "wreath"
	c.Textures[1] = "matte"
	c.Modifications[0] = "changed"

	assert.Equal(t, "Swan", c.Name)
	assert.Equal(t, []string{"crown"}, orig.Elements.Decorations)
	assert.Equal(t, []string{"clear", "frosty"}, orig.Textures)
	assert.Equal(t, []string{"add crown"}, orig.Modifications)
}

func TestState_CloneNilSlices(t *testing.T) {
	c := State{}.Clone()

	assert.NotNil(t, c.Elements.Decorations)
	assert.NotNil(t, c.Textures)
	assert.NotNil(t, c.Modifications)
}

func TestState_SetElement(t *testing.T) {
	tests := []struct {
		key    string
		wantOK bool
		get    func(State) string
	}{
		{ElementTip, true, func(s State) string { return s.Elements.Tip }},
		{ElementUpperBody, true, func(s State) string { return s.Elements.UpperBody }},
		{ElementMiddleBody, true, func(s State) string { return s.Elements.MiddleBody }},
		{ElementLowerBody, true, func(s State) string { return s.Elements.LowerBody }},
		{ElementBase, true, func(s State) string { return s.Elements.Base }},
		{ElementDecorations, false, nil},
		{"wings", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s := New()
			ok := s.SetElement(tt.key, "carved star")
			assert.Equal(t, tt.wantOK, ok)
			if tt.get != nil {
				assert.Equal(t, "carved star", tt.get(s))
			}
		})
	}
}
