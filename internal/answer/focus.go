// internal/answer/focus.go
package answer

import "strings"

// FocusMode narrows the answer style toward one source category. The zero
// value is the general web mode.
type FocusMode int

const (
	FocusWeb FocusMode = iota
	FocusAcademic
	FocusNews
	FocusVideo
	FocusSocial
)

// ParseFocusMode maps a wire string to a FocusMode, defaulting to web for
// anything unrecognized.
func ParseFocusMode(s string) FocusMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "academic":
		return FocusAcademic
	case "news":
		return FocusNews
	case "video", "videos":
		return FocusVideo
	case "social":
		return FocusSocial
	default:
		return FocusWeb
	}
}

func (f FocusMode) String() string {
	switch f {
	case FocusAcademic:
		return "academic"
	case FocusNews:
		return "news"
	case FocusVideo:
		return "video"
	case FocusSocial:
		return "social"
	default:
		return "web"
	}
}

// promptFragment is appended to the system prompt. The switch is exhaustive
// over the known modes; adding a mode without a fragment is a compile-time
// decision, not a silent lookup miss.
func (f FocusMode) promptFragment() string {
	switch f {
	case FocusAcademic:
		return "Prioritize scholarly sources, papers and technical explanations. Use precise terminology."
	case FocusNews:
		return "Prioritize recent events and reporting. Lead with what happened and when."
	case FocusVideo:
		return "Prioritize video content descriptions and summarize what each video covers."
	case FocusSocial:
		return "Prioritize discussion threads and community opinions, clearly attributed as such."
	default:
		return "Provide a balanced overview drawn from general web sources."
	}
}
