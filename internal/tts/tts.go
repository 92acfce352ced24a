package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Provider defines the remote text-to-speech operations the service relies on.
type Provider interface {
	// ListVoices returns every voice visible to the API key.
	ListVoices(ctx context.Context) ([]Voice, error)

	// CreateVoice clones a voice from an audio sample.
	CreateVoice(ctx context.Context, req CloneRequest) (Voice, error)

	// Synthesize renders plain text or speech markup with the given voice.
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}

var (
	// ErrMissingVoiceID is returned when a clone response carries no voice id.
	ErrMissingVoiceID = errors.New("tts: voice id missing from clone response")
	// ErrMissingAudio is returned when a speech response carries no audio payload.
	ErrMissingAudio = errors.New("tts: audio_data missing from speech response")
	// ErrNoAPIKey is returned when the client was built without a credential.
	ErrNoAPIKey = errors.New("tts: api key is not configured")
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("speechify API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("speechify API error: status %d - %s", e.StatusCode, e.Body)
}

// Voice is a provider voice as returned by the list and clone endpoints.
type Voice struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Locale      string  `json:"locale"`
	Type        string  `json:"type"` // shared, personal
	Gender      string  `json:"gender,omitempty"`
	Models      []Model `json:"models,omitempty"`
}

// Model is a synthesis model a voice supports.
type Model struct {
	Name      string     `json:"name"`
	Languages []Language `json:"languages,omitempty"`
}

// Language is a locale supported by a model.
type Language struct {
	Locale       string `json:"locale"`
	PreviewAudio string `json:"preview_audio,omitempty"`
}

// Gender values accepted by the clone endpoint.
const (
	GenderMale         = "male"
	GenderFemale       = "female"
	GenderNotSpecified = "notSpecified"
)

// ValidGender reports whether g is accepted by the clone endpoint.
func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderNotSpecified:
		return true
	}
	return false
}

// Audio formats accepted by the speech endpoint.
var audioFormats = []string{"mp3", "wav", "ogg", "aac"}

// ValidAudioFormat reports whether f is a supported output format.
func ValidAudioFormat(f string) bool {
	for _, v := range audioFormats {
		if f == v {
			return true
		}
	}
	return false
}

// Consent identifies the person who agreed to have their voice cloned.
type Consent struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CloneRequest describes a voice clone.
type CloneRequest struct {
	Name       string
	Gender     string
	Locale     string
	Consent    Consent
	Sample     io.Reader
	SampleName string
}

// SpeechRequest describes a synthesis call. Input may be plain text or SSML.
type SpeechRequest struct {
	Input       string `json:"input"`
	VoiceID     string `json:"voice_id"`
	Language    string `json:"language,omitempty"`
	Model       string `json:"model,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
}

// SpeechResult is the decoded synthesis response.
type SpeechResult struct {
	AudioData               string `json:"audio_data"` // base64
	AudioFormat             string `json:"audio_format"`
	BillableCharactersCount int    `json:"billable_characters_count"`
}

// VoiceFilter narrows a voice listing.
type VoiceFilter struct {
	Locale          string
	NameLike        string
	IncludePersonal bool
}

// FilterVoices applies f to voices. Matching is case-insensitive; personal
// clones are dropped unless IncludePersonal is set.
func FilterVoices(voices []Voice, f VoiceFilter) []Voice {
	out := make([]Voice, 0, len(voices))
	nameLike := strings.ToLower(f.NameLike)
	for _, v := range voices {
		if !f.IncludePersonal && strings.EqualFold(v.Type, "personal") {
			continue
		}
		if f.Locale != "" && !strings.EqualFold(v.Locale, f.Locale) {
			continue
		}
		if nameLike != "" && !strings.Contains(strings.ToLower(v.DisplayName), nameLike) {
			continue
		}
		out = append(out, v)
	}
	return out
}
