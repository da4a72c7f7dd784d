// Package intent routes user input before any model wakes up. Explicit
// commands ("system: ...", "computer, ...") and implicit format cues
// (INT./EXT. sluglines, PAGE/PANEL markers, ACT/SCENE headings) are
// resolved with string matching alone, so command handling stays
// instant even when every slot is cold.
package intent

import (
	"regexp"
	"strings"

	"hearthd/internal/license"
)

// Action classifies what the input asks the daemon to do.
type Action string

const (
	// ActionGenerate means plain prose input: send it to the model.
	ActionGenerate Action = "generate"
	// ActionSwitchMode changes the writing mode for following turns.
	ActionSwitchMode Action = "switch_mode"
	// ActionStatus asks for the orchestrator snapshot.
	ActionStatus Action = "status"
	// ActionCollapse asks the daemon to go fully cold.
	ActionCollapse Action = "collapse"
	// ActionDenied is a recognized command the license does not cover.
	ActionDenied Action = "denied"
)

// Intent is the routing decision for one input.
type Intent struct {
	Action Action
	// Mode is set for ActionSwitchMode (and for implicit format cues,
	// where Action stays generate but the mode should follow the cue).
	Mode string
	// Message carries the denial text for ActionDenied.
	Message string
}

// Explicit command triggers, matched case-insensitively at the start of
// the input.
var triggers = []string{"system:", "computer,"}

var writingModes = map[string]string{
	"prose":      "prose",
	"screenplay": "screenplay",
	"comic":      "comic",
	"playwright": "playwright",
	"play":       "playwright",
	"children":   "children",
	"game":       "game",
}

// Modes that cost extra money.
var gatedModes = map[string]string{
	"comic": license.FeatureComicMode,
}

// Implicit format cues, strongest first.
var formatCues = []struct {
	re   *regexp.Regexp
	mode string
}{
	{regexp.MustCompile(`(?m)^\s*(INT\.|EXT\.)`), "screenplay"},
	{regexp.MustCompile(`(?mi)^\s*(PAGE|PANEL)\s+(ONE|TWO|THREE|\d+)`), "comic"},
	{regexp.MustCompile(`(?mi)^\s*(ACT|SCENE)\s+([IVXLC]+|\d+)\b`), "playwright"},
}

// Parse classifies one input line. Pure and allocation-light; callers may
// run it on every keystroke.
func Parse(input string, lic *license.Validator) Intent {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)

	for _, trig := range triggers {
		if strings.HasPrefix(lower, trig) {
			return parseCommand(strings.TrimSpace(trimmed[len(trig):]), lic)
		}
	}

	for _, cue := range formatCues {
		if cue.re.MatchString(trimmed) {
			if feature, gated := gatedModes[cue.mode]; gated {
				if acc := lic.CheckAccess(feature); !acc.Allowed {
					// A cue is a hint, not a command: fall back to plain
					// generation instead of refusing the text outright.
					return Intent{Action: ActionGenerate}
				}
			}
			return Intent{Action: ActionGenerate, Mode: cue.mode}
		}
	}
	return Intent{Action: ActionGenerate}
}

func parseCommand(cmd string, lic *license.Validator) Intent {
	lower := strings.ToLower(strings.TrimRight(cmd, ".!"))

	switch {
	case lower == "status", lower == "report status":
		return Intent{Action: ActionStatus}
	case lower == "collapse", lower == "shut down", lower == "shutdown", lower == "go cold", lower == "go to sleep":
		return Intent{Action: ActionCollapse}
	}

	// "switch to X mode", "X mode", "enter X mode"
	if mode := extractMode(lower); mode != "" {
		if feature, gated := gatedModes[mode]; gated {
			if acc := lic.CheckAccess(feature); !acc.Allowed {
				return Intent{Action: ActionDenied, Mode: mode, Message: acc.Message}
			}
		}
		return Intent{Action: ActionSwitchMode, Mode: mode}
	}

	// Unrecognized commands degrade to generation so typing
	// "system: reboot the narrative" still produces words.
	return Intent{Action: ActionGenerate}
}

func extractMode(lower string) string {
	for _, word := range strings.Fields(lower) {
		if mode, ok := writingModes[word]; ok && strings.Contains(lower, "mode") {
			return mode
		}
	}
	return ""
}
