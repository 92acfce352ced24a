// Package ssml builds the speech markup sent to the TTS provider when a
// synthesis request carries prosody hints.
package ssml

import (
	"strconv"
	"strings"
)

// Directive holds the optional styling hints of a synthesis request.
// Empty strings and a non-positive BreakMs mean "not set".
type Directive struct {
	Emotion string // e.g. "warm", "calm", "excited"
	Rate    string // e.g. "slow", "120%"
	Pitch   string // e.g. "-2st", "high"
	BreakMs int    // pause appended after the text, in milliseconds
}

// IsZero reports whether no hint is set, in which case Wrap returns the
// text untouched.
func (d Directive) IsZero() bool {
	return d.Emotion == "" && d.Rate == "" && d.Pitch == "" && d.BreakMs <= 0
}

// Wrap returns text unchanged when d is zero. Otherwise the text is nested
// as <prosody> inside <speechify:style>, followed by an optional <break/>,
// all inside <speak>. Text and attribute values are interpolated verbatim.
func Wrap(text string, d Directive) string {
	if d.IsZero() {
		return text
	}

	core := text
	if d.Rate != "" || d.Pitch != "" {
		var b strings.Builder
		b.WriteString("<prosody")
		if d.Rate != "" {
			b.WriteString(` rate="` + d.Rate + `"`)
		}
		if d.Pitch != "" {
			b.WriteString(` pitch="` + d.Pitch + `"`)
		}
		b.WriteString(">" + core + "</prosody>")
		core = b.String()
	}

	if d.Emotion != "" {
		core = `<speechify:style emotion="` + d.Emotion + `">` + core + "</speechify:style>"
	}

	if d.BreakMs > 0 {
		core += `<break time="` + strconv.Itoa(d.BreakMs) + `ms"/>`
	}

	return "<speak>" + core + "</speak>"
}
