package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const (
	speechifyAPIURL = "https://api.sws.speechify.com"
	maxErrorBody    = 4096
	maxResponseBody = 64 * 1024 * 1024 // base64 audio can be large
)

// SpeechifyClient implements the Provider interface using Speechify's API.
type SpeechifyClient struct {
	apiKey      string
	baseURL     string
	language    string
	model       string
	audioFormat string
	httpClient  *http.Client
}

// SpeechifyConfig holds configuration for the Speechify client.
type SpeechifyConfig struct {
	APIKey      string
	BaseURL     string // defaults to the public API
	Language    string // e.g. "ko-KR"
	Model       string // e.g. "simba-multilingual"
	AudioFormat string // mp3, wav, ogg, aac
	HTTPClient  *http.Client
}

// NewSpeechifyClient creates a new Speechify client. Empty fields fall back
// to the service defaults.
func NewSpeechifyClient(cfg SpeechifyConfig) *SpeechifyClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = speechifyAPIURL
	}
	language := cfg.Language
	if language == "" {
		language = "ko-KR"
	}
	model := cfg.Model
	if model == "" {
		model = "simba-multilingual"
	}
	format := cfg.AudioFormat
	if format == "" {
		format = "mp3"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &SpeechifyClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		language:    language,
		model:       model,
		audioFormat: format,
		httpClient:  httpClient,
	}
}

// ListVoices fetches all voices available to the API key.
func (c *SpeechifyClient) ListVoices(ctx context.Context) ([]Voice, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/v1/voices", nil)
	if err != nil {
		return nil, err
	}

	var voices []Voice
	if err := c.do(httpReq, &voices); err != nil {
		return nil, err
	}
	return voices, nil
}

// CreateVoice uploads a sample and creates a personal voice clone.
func (c *SpeechifyClient) CreateVoice(ctx context.Context, req CloneRequest) (Voice, error) {
	if req.Sample == nil {
		return Voice{}, fmt.Errorf("tts: clone sample is required")
	}

	consent, err := json.Marshal(req.Consent)
	if err != nil {
		return Voice{}, fmt.Errorf("failed to marshal consent: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := []struct{ k, v string }{
		{"name", req.Name},
		{"gender", req.Gender},
		{"locale", req.Locale},
		{"consent", string(consent)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.k, f.v); err != nil {
			return Voice{}, fmt.Errorf("failed to write field %s: %w", f.k, err)
		}
	}

	sampleName := filepath.Base(req.SampleName)
	if sampleName == "." || sampleName == "/" || sampleName == "" {
		sampleName = "sample.wav"
	}
	part, err := mw.CreateFormFile("sample", sampleName)
	if err != nil {
		return Voice{}, fmt.Errorf("failed to create sample part: %w", err)
	}
	if _, err := io.Copy(part, req.Sample); err != nil {
		return Voice{}, fmt.Errorf("failed to copy sample: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Voice{}, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/voices", &body)
	if err != nil {
		return Voice{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var v Voice
	if err := c.do(httpReq, &v); err != nil {
		return Voice{}, err
	}
	if v.ID == "" {
		return Voice{}, ErrMissingVoiceID
	}
	return v, nil
}

// Synthesize converts text or SSML to speech. Empty language, model and
// format fields take the client defaults.
func (c *SpeechifyClient) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error) {
	if req.Language == "" {
		req.Language = c.language
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if req.AudioFormat == "" {
		req.AudioFormat = c.audioFormat
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var res SpeechResult
	if err := c.do(httpReq, &res); err != nil {
		return nil, err
	}
	if res.AudioData == "" {
		return nil, ErrMissingAudio
	}
	if res.AudioFormat == "" {
		res.AudioFormat = req.AudioFormat
	}
	return &res, nil
}

func (c *SpeechifyClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (c *SpeechifyClient) do(httpReq *http.Request, out any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) // Limit error response size
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
