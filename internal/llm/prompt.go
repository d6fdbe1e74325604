package llm

import (
	"fmt"
	"strings"

	"github.com/hurricanerix/icecarve/internal/sculpture"
)

// FallbackTheme names the sculpture in image prompts until it has a name.
const FallbackTheme = "Abstract Ice Sculpture"

// AnalysisPrompt is sent with an uploaded photo to turn it into a sculpture plan.
const AnalysisPrompt = `You are an expert ice sculptor.
Analyze this image to help convert it into a realistic ice sculpture. Identify:
1. Main sculpture-worthy components
2. Best parts for ice carving
3. Modifications or engravings that would enhance it
4. Ice-specific considerations for weight, balance, fragility`

const systemRules = `You are Ice Sculptures Rendering, a visual artist assistant who specializes in generating and modifying photo-realistic ice sculptures. Stay 100% in-character and always follow these instructions:

1. All sculptures must look like they're made of ice: clear, frosty, or textured.
2. Respect the current sculpture's memory. Never forget previous changes or details.
3. Follow modifications like adding names, symbols, or crowns precisely.
4. Only describe components like: tip, upper body, middle body, lower body, base, decorations.
5. Confirm and summarize user changes before finalizing the sculpture.
6. Never suggest impossible ice structures. Realism is key.
7. Respond in a friendly, helpful artist tone and never break ice-themed character.`

const imageConstraints = `- Style: Expert-level ice carving
- Materials: Made entirely of clear and frosty ice
- Texture: Realistic ice surface and reflections
- Lighting: Studio lighting to enhance refraction
- Background: Plain or softly lit to emphasize the sculpture
- Components: Tip, upper body, middle body, lower body, base, and any decorations

Notes:
- The sculpture must appear physically possible to carve from real ice.
- Avoid cartoonish or impossible forms.`

// BuildSystemPrompt renders the fixed behaviour rules followed by the
// current sculpture state. Field values are copied verbatim.
func BuildSystemPrompt(state sculpture.State) string {
	var b strings.Builder

	b.WriteString(systemRules)
	b.WriteString("\n\nCurrent Sculpture State:\n")
	fmt.Fprintf(&b, "- Name: %s\n", state.Name)
	fmt.Fprintf(&b, "- Description: %s\n", state.Description)
	b.WriteString("- Elements:\n")
	fmt.Fprintf(&b, "  - %s: %s\n", sculpture.ElementTip, state.Elements.Tip)
	fmt.Fprintf(&b, "  - %s: %s\n", sculpture.ElementUpperBody, state.Elements.UpperBody)
	fmt.Fprintf(&b, "  - %s: %s\n", sculpture.ElementMiddleBody, state.Elements.MiddleBody)
	fmt.Fprintf(&b, "  - %s: %s\n", sculpture.ElementLowerBody, state.Elements.LowerBody)
	fmt.Fprintf(&b, "  - %s: %s\n", sculpture.ElementBase, state.Elements.Base)
	writeList(&b, "  ", sculpture.ElementDecorations, state.Elements.Decorations)
	fmt.Fprintf(&b, "- Textures: %s\n", strings.Join(state.Textures, ", "))
	writeList(&b, "", "Modifications", state.Modifications)

	return b.String()
}

// BuildImagePrompt renders the image-generation prompt for the current
// state. An unnamed sculpture uses FallbackTheme; an empty description
// uses the raw user input.
func BuildImagePrompt(state sculpture.State, userInput string) string {
	theme := state.Name
	if theme == "" {
		theme = FallbackTheme
	}
	description := state.Description
	if description == "" {
		description = userInput
	}

	var b strings.Builder
	b.WriteString("Create a photorealistic image of an ice sculpture based on the following:\n\n")
	fmt.Fprintf(&b, "- Theme or Name: %s\n", theme)
	fmt.Fprintf(&b, "- Description: %s\n", description)
	b.WriteString(imageConstraints)
	return b.String()
}

// writeList renders label followed by one nested bullet per item, so an
// item is never split or merged with its neighbours. An empty list
// renders as "[]".
func writeList(b *strings.Builder, indent, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s- %s: []\n", indent, label)
		return
	}
	fmt.Fprintf(b, "%s- %s:\n", indent, label)
	for _, item := range items {
		fmt.Fprintf(b, "%s  - %s\n", indent, item)
	}
}
