package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/voiceclone/voiceclone/internal/costs"
	"github.com/voiceclone/voiceclone/internal/ssml"
	"github.com/voiceclone/voiceclone/internal/tts"
	"github.com/voiceclone/voiceclone/internal/voice"
)

// voiceOut is one entry of the voice listing.
type voiceOut struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
	Type        string `json:"type"`
}

type cloneResponse struct {
	VoiceID string `json:"voice_id"`
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	Lang    string `json:"lang"`
	Model   string `json:"model"`
	Format  string `json:"format"`

	// Optional prosody hints
	Emotion string `json:"emotion"`
	Rate    string `json:"rate"`
	Pitch   string `json:"pitch"`
	BreakMs *int   `json:"break_ms"`
}

type synthesizeResponse struct {
	FileURL  string `json:"file_url"`
	Filename string `json:"filename"`
}

func (r *Router) handleTTSHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// handleListVoices returns provider voices filtered by locale, name_like
// and include_personal query parameters.
func (r *Router) handleListVoices(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	filter := tts.VoiceFilter{
		Locale:   q.Get("locale"),
		NameLike: q.Get("name_like"),
	}
	if v := q.Get("include_personal"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_personal must be a boolean")
			return
		}
		filter.IncludePersonal = b
	}

	voices, err := r.voice.ListVoices(req.Context(), filter)
	if err != nil {
		r.handleServiceError(w, req, err, "list voices")
		return
	}

	out := make([]voiceOut, 0, len(voices))
	for _, v := range voices {
		out = append(out, voiceOut{ID: v.ID, DisplayName: v.DisplayName, Locale: v.Locale, Type: v.Type})
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": out})
}

// handleClone creates a voice from the uploaded "sample" file.
func (r *Router) handleClone(w http.ResponseWriter, req *http.Request) {
	file, hdr, ok := r.readSample(w, req)
	if !ok {
		return
	}
	defer file.Close()

	voiceID, err := r.voice.Clone(req.Context(), file, hdr.Filename)
	if err != nil {
		r.handleServiceError(w, req, err, "clone voice")
		return
	}
	writeJSON(w, http.StatusCreated, cloneResponse{VoiceID: voiceID})
}

// handleCloneSynthesize clones a voice from "sample" and speaks "text" with it.
func (r *Router) handleCloneSynthesize(w http.ResponseWriter, req *http.Request) {
	file, hdr, ok := r.readSample(w, req)
	if !ok {
		return
	}
	defer file.Close()

	text := req.FormValue("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	breakMs, err := parseOptionalInt(req.FormValue("break_ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "break_ms must be an integer")
		return
	}

	in := voice.SynthesisInput{
		Text:        text,
		Language:    req.FormValue("lang"),
		Model:       req.FormValue("model"),
		AudioFormat: req.FormValue("audio_format"),
		Prosody: ssml.Directive{
			Emotion: req.FormValue("emotion"),
			Rate:    req.FormValue("rate"),
			Pitch:   req.FormValue("pitch"),
			BreakMs: breakMs,
		},
	}

	res, err := r.voice.CloneAndSynthesize(req.Context(), file, hdr.Filename, in)
	if err != nil {
		r.handleServiceError(w, req, err, "clone and synthesize")
		return
	}
	r.logCost(req, "clone-synthesize", res)
	writeJSON(w, http.StatusCreated, r.synthesizeResponse(res))
}

// handleSynthesize speaks text with an existing voice.
func (r *Router) handleSynthesize(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	var body synthesizeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if body.VoiceID == "" {
		writeError(w, http.StatusBadRequest, "voice_id is required")
		return
	}

	in := voice.SynthesisInput{
		Text:        body.Text,
		VoiceID:     body.VoiceID,
		Language:    body.Lang,
		Model:       body.Model,
		AudioFormat: body.Format,
		Prosody: ssml.Directive{
			Emotion: body.Emotion,
			Rate:    body.Rate,
			Pitch:   body.Pitch,
		},
	}
	if body.BreakMs != nil {
		in.Prosody.BreakMs = *body.BreakMs
	}

	res, err := r.voice.Synthesize(req.Context(), in)
	if err != nil {
		r.handleServiceError(w, req, err, "synthesize")
		return
	}
	r.logCost(req, "synthesize", res)
	writeJSON(w, http.StatusOK, r.synthesizeResponse(res))
}

// logCost reports the estimated total of a request, clone fees included.
func (r *Router) logCost(req *http.Request, op string, res *voice.SynthesisResult) {
	r.logger.InfoContext(req.Context(), "tts: request cost",
		slog.String("op", op),
		slog.String("voice_id", res.VoiceID),
		slog.Int("billable_chars", res.BillableCharacters),
		slog.Int("cost_cents", costs.RoundedCents(res.Costs.TotalCents)),
	)
}

func (r *Router) synthesizeResponse(res *voice.SynthesisResult) synthesizeResponse {
	base := strings.TrimRight(r.cfg.PublicBaseURL, "/")
	return synthesizeResponse{
		FileURL:  base + "/" + res.Filename,
		Filename: res.Filename,
	}
}

// readSample parses the multipart body and returns the "sample" file part.
// It writes the error response itself when ok is false.
func (r *Router) readSample(w http.ResponseWriter, req *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	if err := req.ParseMultipartForm(r.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "expected multipart/form-data body")
		return nil, nil, false
	}

	file, hdr, err := req.FormFile("sample")
	if err != nil {
		writeError(w, http.StatusBadRequest, "sample file is required")
		return nil, nil, false
	}
	return file, hdr, true
}

// handleServiceError maps service errors onto HTTP status codes.
func (r *Router) handleServiceError(w http.ResponseWriter, req *http.Request, err error, op string) {
	var apiErr *tts.APIError
	switch {
	case errors.Is(err, voice.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tts.ErrNoAPIKey):
		writeError(w, http.StatusServiceUnavailable, "Speechify API key is required. Set SPEECHIFY_API_KEY or API_KEY.")
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		msg := apiErr.Body
		if msg == "" {
			msg = "Speechify API error"
		}
		r.logger.WarnContext(req.Context(), fmt.Sprintf("tts: %s: provider rejected request", op), "status", status)
		if status >= 500 {
			captureError(req, err, op)
		}
		writeError(w, status, msg)
	default:
		r.logger.ErrorContext(req.Context(), fmt.Sprintf("tts: %s failed", op), "error", err)
		captureError(req, err, op)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}
