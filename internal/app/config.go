package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/voiceclone/voiceclone/internal/tts"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	PublicBaseURL string `yaml:"public_base_url"` // prefix of returned file links
	OutputDir     string `yaml:"output_dir"`
	LogLevel      string `yaml:"log_level"`
	Environment   string `yaml:"environment"`
	SentryDSN     string `yaml:"sentry_dsn"`

	// Speechify
	SpeechifyAPIKey  string        `yaml:"speechify_api_key"`
	SpeechifyBaseURL string        `yaml:"speechify_base_url"`
	ProviderTimeout  time.Duration `yaml:"provider_timeout"`

	// Clone defaults (the caller only uploads a sample)
	CloneName    string `yaml:"clone_name"`
	CloneLocale  string `yaml:"clone_locale"`
	CloneGender  string `yaml:"clone_gender"`
	ConsentName  string `yaml:"consent_name"`
	ConsentEmail string `yaml:"consent_email"`

	// Synthesis defaults
	DefaultLang   string `yaml:"default_lang"`
	DefaultModel  string `yaml:"default_model"`
	DefaultFormat string `yaml:"default_format"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:        ":8000",
		PublicBaseURL:   "http://localhost:8000/static",
		OutputDir:       "outputs",
		LogLevel:        "info",
		Environment:     "development",
		ProviderTimeout: 60 * time.Second,
		CloneName:       "my-ko-clone",
		CloneLocale:     "ko-KR",
		CloneGender:     tts.GenderNotSpecified,
		DefaultLang:     "ko-KR",
		DefaultModel:    "simba-multilingual",
		DefaultFormat:   "mp3",
		MaxUploadBytes:  20 << 20,
	}
}

// LoadConfig reads the optional YAML file named by CONFIG_FILE and then
// applies environment overrides on top.
func LoadConfig() (Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return LoadConfigFromEnv(), nil
	}
	cfg := defaultConfig()
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadConfigFromEnv builds the configuration from defaults and environment
// variables alone.
func LoadConfigFromEnv() Config {
	cfg := defaultConfig()
	applyEnv(&cfg)
	return cfg
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	// LOCALHOST is the historical name of the public base URL.
	cfg.PublicBaseURL = getenv("PUBLIC_BASE_URL", getenv("LOCALHOST", cfg.PublicBaseURL))
	cfg.OutputDir = getenv("OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.Environment = getenv("ENVIRONMENT", cfg.Environment)
	cfg.SentryDSN = getenv("SENTRY_DSN", cfg.SentryDSN)

	cfg.SpeechifyAPIKey = getenv("SPEECHIFY_API_KEY", getenv("API_KEY", cfg.SpeechifyAPIKey))
	cfg.SpeechifyBaseURL = getenv("SPEECHIFY_BASE_URL", cfg.SpeechifyBaseURL)
	cfg.ProviderTimeout = getenvDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout)

	cfg.CloneName = getenv("CLONE_NAME", cfg.CloneName)
	cfg.CloneLocale = getenv("CLONE_LOCALE", cfg.CloneLocale)
	cfg.CloneGender = getenv("CLONE_GENDER", cfg.CloneGender)
	cfg.ConsentName = getenv("CONSENT_NAME", cfg.ConsentName)
	cfg.ConsentEmail = getenv("CONSENT_EMAIL", cfg.ConsentEmail)

	cfg.DefaultLang = getenv("DEFAULT_LANG", cfg.DefaultLang)
	cfg.DefaultModel = getenv("DEFAULT_MODEL", cfg.DefaultModel)
	cfg.DefaultFormat = getenv("DEFAULT_FORMAT", cfg.DefaultFormat)

	cfg.MaxUploadBytes = getenvInt64Clamped("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes, 1<<10, 512<<20)
}

// Validate returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is empty"))
	}
	if c.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("OUTPUT_DIR is empty"))
	}
	if !tts.ValidGender(c.CloneGender) {
		errs = append(errs, fmt.Errorf("CLONE_GENDER %q must be male, female or notSpecified", c.CloneGender))
	}
	if !tts.ValidAudioFormat(c.DefaultFormat) {
		errs = append(errs, fmt.Errorf("DEFAULT_FORMAT %q must be mp3, wav, ogg or aac", c.DefaultFormat))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROVIDER_TIMEOUT %s must be positive", c.ProviderTimeout))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getenvInt64Clamped(k string, def, min, max int64) int64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
