package worker

import "strings"

// DefaultMode is assumed when a task omits or misspells the writing mode.
const DefaultMode = "prose"

// modePrompts are the per-mode system instructions prepended to every
// generation.
var modePrompts = map[string]string{
	"prose":      "You are a skilled author. Write vivid, engaging prose that captures the reader's imagination.",
	"screenplay": "You are a professional screenwriter. Format all output in proper Fountain screenplay format.",
	"comic":      "You are a comic book writer. Include panel descriptions, visual cues, and dynamic dialogue.",
	"playwright": "You are a theatrical playwright. Include stage directions, blocking notes, and dramatic dialogue.",
	"children":   "You are a children's book author. Use simple words (under 3 syllables) and engaging storytelling.",
	"game":       "You are a game narrative designer. Support branching logic with {{conditional}} markers.",
}

// stopSequences demarcate role boundaries so the model does not speak for
// the user or the system.
var stopSequences = []string{"[USER]:", "[SYSTEM]:", "\n\n\n"}

// BuildPrompt composes the final prompt: mode system instruction, retrieved
// context, shadow-node block, user prompt, response marker — in that order.
func BuildPrompt(userPrompt, mode, context, shadowNodes string) string {
	system, ok := modePrompts[mode]
	if !ok {
		system = modePrompts[DefaultMode]
	}
	parts := []string{"[SYSTEM]: " + system}
	if context != "" {
		parts = append(parts, "\n[CONTEXT]:\n"+context)
	}
	if shadowNodes != "" {
		parts = append(parts, "\n[SHADOW NODES - OPEN LOOPS]:\n"+shadowNodes)
	}
	parts = append(parts, "\n[USER]:\n"+userPrompt)
	parts = append(parts, "\n[ASSISTANT]:")
	return strings.Join(parts, "\n")
}
