package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/voiceclone/voiceclone/internal/audio"
	"github.com/voiceclone/voiceclone/internal/httpapi"
	"github.com/voiceclone/voiceclone/internal/observe"
	"github.com/voiceclone/voiceclone/internal/tts"
	"github.com/voiceclone/voiceclone/internal/voice"
)

type App struct {
	cfg        Config
	logger     *slog.Logger
	store      *audio.Store
	telemetry  *observe.Telemetry
	voice      *voice.Service
	httpClient *http.Client // Shared HTTP client with connection pooling for Speechify
}

func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SpeechifyAPIKey == "" {
		logger.Warn("SPEECHIFY_API_KEY is not set; /tts endpoints will answer 503")
	}

	store, err := audio.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	tel, err := observe.InitProvider(observe.ProviderConfig{ServiceName: "voiceclone"})
	if err != nil {
		return nil, err
	}

	// Keeps TCP connections alive to reduce latency for repeated calls to a single host.
	httpClient := &http.Client{
		Timeout: cfg.ProviderTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	provider := tts.NewSpeechifyClient(tts.SpeechifyConfig{
		APIKey:      cfg.SpeechifyAPIKey,
		BaseURL:     cfg.SpeechifyBaseURL,
		Language:    cfg.DefaultLang,
		Model:       cfg.DefaultModel,
		AudioFormat: cfg.DefaultFormat,
		HTTPClient:  httpClient,
	})

	svc := voice.NewService(provider, store, voice.Defaults{
		CloneName:    cfg.CloneName,
		CloneLocale:  cfg.CloneLocale,
		CloneGender:  cfg.CloneGender,
		ConsentName:  cfg.ConsentName,
		ConsentEmail: cfg.ConsentEmail,
		Language:     cfg.DefaultLang,
		Model:        cfg.DefaultModel,
		AudioFormat:  cfg.DefaultFormat,
	}, tel.Metrics, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		telemetry:  tel,
		voice:      svc,
		httpClient: httpClient,
	}, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		PublicBaseURL:  a.cfg.PublicBaseURL,
		OutputDir:      a.store.Dir(),
		MaxUploadBytes: a.cfg.MaxUploadBytes,
		Metrics:        a.telemetry.Metrics,
		MetricsHandler: a.telemetry.Handler(),
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.voice)
}

func (a *App) Close(ctx context.Context) error {
	a.httpClient.CloseIdleConnections()
	return a.telemetry.Shutdown(ctx)
}
