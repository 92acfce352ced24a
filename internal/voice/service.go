// Package voice orchestrates voice listing, cloning and synthesis on top of
// a TTS provider and the local audio store.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/voiceclone/voiceclone/internal/audio"
	"github.com/voiceclone/voiceclone/internal/costs"
	"github.com/voiceclone/voiceclone/internal/observe"
	"github.com/voiceclone/voiceclone/internal/ssml"
	"github.com/voiceclone/voiceclone/internal/tts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// ErrInvalidInput marks caller mistakes (missing text, unknown format).
var ErrInvalidInput = errors.New("invalid input")

// Defaults are the startup-time values applied to clone and synthesis
// requests that do not carry their own.
type Defaults struct {
	CloneName    string
	CloneLocale  string
	CloneGender  string
	ConsentName  string
	ConsentEmail string

	Language    string
	Model       string
	AudioFormat string
}

// SynthesisInput is one synthesis request. Empty Language, Model and
// AudioFormat fall back to Defaults.
type SynthesisInput struct {
	Text        string
	VoiceID     string
	Language    string
	Model       string
	AudioFormat string
	Prosody     ssml.Directive
}

// SynthesisResult describes the written audio file.
type SynthesisResult struct {
	VoiceID            string
	Filename           string
	AudioFormat        string
	BillableCharacters int
	Costs              costs.Costs
}

// Service is safe for concurrent use.
type Service struct {
	provider tts.Provider
	store    *audio.Store
	defaults Defaults
	metrics  *observe.Metrics
	logger   *slog.Logger
}

// NewService wires a Service. metrics may be nil.
func NewService(p tts.Provider, store *audio.Store, d Defaults, m *observe.Metrics, logger *slog.Logger) *Service {
	if d.CloneGender == "" {
		d.CloneGender = tts.GenderNotSpecified
	}
	if d.AudioFormat == "" {
		d.AudioFormat = "mp3"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{provider: p, store: store, defaults: d, metrics: m, logger: logger}
}

// ListVoices fetches the provider catalogue and applies f.
func (s *Service) ListVoices(ctx context.Context, f tts.VoiceFilter) ([]tts.Voice, error) {
	var voices []tts.Voice
	err := s.call(ctx, "list_voices", func(ctx context.Context) error {
		var err error
		voices, err = s.provider.ListVoices(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tts.FilterVoices(voices, f), nil
}

// Clone stores the sample temporarily, creates a voice from it with the
// configured clone defaults, and removes the sample again.
func (s *Service) Clone(ctx context.Context, sample io.Reader, filename string) (string, error) {
	path, cleanup, err := s.store.SaveUpload(sample, filename)
	if err != nil {
		return "", err
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var v tts.Voice
	err = s.call(ctx, "create_voice", func(ctx context.Context) error {
		var err error
		v, err = s.provider.CreateVoice(ctx, tts.CloneRequest{
			Name:   s.defaults.CloneName,
			Gender: s.defaults.CloneGender,
			Locale: s.defaults.CloneLocale,
			Consent: tts.Consent{
				FullName: s.defaults.ConsentName,
				Email:    s.defaults.ConsentEmail,
			},
			Sample:     f,
			SampleName: filename,
		})
		return err
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "voice: cloned",
		slog.String("voice_id", v.ID),
		slog.String("name", s.defaults.CloneName),
		slog.Float64("cost_cents", costs.Calculate(costs.Usage{ClonedVoices: 1}).TotalCents),
	)
	return v.ID, nil
}

// Synthesize renders in.Text (wrapped as SSML when prosody hints are set)
// and writes the decoded audio to the store.
func (s *Service) Synthesize(ctx context.Context, in SynthesisInput) (*SynthesisResult, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if in.VoiceID == "" {
		return nil, fmt.Errorf("%w: voice_id is required", ErrInvalidInput)
	}
	if in.Language == "" {
		in.Language = s.defaults.Language
	}
	if in.Model == "" {
		in.Model = s.defaults.Model
	}
	if in.AudioFormat == "" {
		in.AudioFormat = s.defaults.AudioFormat
	}
	if !tts.ValidAudioFormat(in.AudioFormat) {
		return nil, fmt.Errorf("%w: unsupported audio format %q", ErrInvalidInput, in.AudioFormat)
	}

	input := ssml.Wrap(in.Text, in.Prosody)

	var res *tts.SpeechResult
	err := s.call(ctx, "synthesize", func(ctx context.Context) error {
		var err error
		res, err = s.provider.Synthesize(ctx, tts.SpeechRequest{
			Input:       input,
			VoiceID:     in.VoiceID,
			Language:    in.Language,
			Model:       in.Model,
			AudioFormat: in.AudioFormat,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	name, err := s.store.WriteBase64(in.VoiceID, input, in.AudioFormat, res.AudioData)
	if err != nil {
		return nil, err
	}

	c := costs.Calculate(costs.Usage{BillableCharacters: res.BillableCharactersCount})
	if s.metrics != nil {
		s.metrics.BillableCharacters.Add(ctx, int64(res.BillableCharactersCount))
		if info, err := os.Stat(s.store.Path(name)); err == nil {
			s.metrics.AudioBytes.Add(ctx, info.Size())
		}
	}
	s.logger.InfoContext(ctx, "voice: synthesized",
		slog.String("voice_id", in.VoiceID),
		slog.String("file", name),
		slog.Bool("ssml", input != in.Text),
		slog.Int("billable_chars", res.BillableCharactersCount),
		slog.Float64("cost_cents", c.TotalCents),
	)

	return &SynthesisResult{
		VoiceID:            in.VoiceID,
		Filename:           name,
		AudioFormat:        in.AudioFormat,
		BillableCharacters: res.BillableCharactersCount,
		Costs:              c,
	}, nil
}

// CloneAndSynthesize clones a voice from sample and immediately uses it to
// synthesize in. in.VoiceID is ignored.
func (s *Service) CloneAndSynthesize(ctx context.Context, sample io.Reader, filename string, in SynthesisInput) (*SynthesisResult, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if in.AudioFormat != "" && !tts.ValidAudioFormat(in.AudioFormat) {
		return nil, fmt.Errorf("%w: unsupported audio format %q", ErrInvalidInput, in.AudioFormat)
	}
	voiceID, err := s.Clone(ctx, sample, filename)
	if err != nil {
		return nil, err
	}
	in.VoiceID = voiceID
	res, err := s.Synthesize(ctx, in)
	if err != nil {
		return nil, err
	}
	res.Costs = costs.Calculate(costs.Usage{
		BillableCharacters: res.BillableCharacters,
		ClonedVoices:       1,
	})
	return res, nil
}

// call runs one provider operation inside a span and records its latency
// and outcome.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := observe.StartSpan(ctx, "speechify."+op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "voice: provider call failed",
			slog.String("operation", op),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
	}

	if s.metrics != nil {
		s.metrics.ProviderDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("operation", op)))
		s.metrics.ProviderRequests.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", op),
				attribute.String("status", status),
			))
	}
	if err != nil {
		return fmt.Errorf("speechify %s: %w", op, err)
	}
	return nil
}
