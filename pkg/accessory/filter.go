package accessory

import "strings"

// Name keyword heuristics for audio-likeness. This is a filter, not a
// guarantee: unknown devices default to allow.
var (
	denyKeywords = []string{
		"keyboard",
		"mouse",
		"trackpad",
		"magic keyboard",
		"magic mouse",
		"pencil",
		"controller",
		"gamepad",
		"remote",
	}
	allowKeywords = []string{
		"airpods",
		"earbud",
		"headphone",
		"headset",
		"buds",
		"beats",
		"wh-",
		"wf-",
		"soundcore",
		"momentum",
	}
)

// audioLike reports whether a device name looks like an audio accessory.
func audioLike(name string) bool {
	n := strings.ToLower(name)
	for _, kw := range denyKeywords {
		if strings.Contains(n, kw) {
			return false
		}
	}
	for _, kw := range allowKeywords {
		if strings.Contains(n, kw) {
			return true
		}
	}
	// Default allow: better a spurious row than a missing earbud.
	return true
}
