// Package config loads the briefcast configuration from a TOML or YAML file
// and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Modes accepted by the pluggable adapters.
const (
	ModeMock       = "mock"
	ModeOpenAI     = "openai"
	ModeAnthropic  = "anthropic"
	ModeOllama     = "ollama"
	ModeElevenLabs = "elevenlabs"
	ModeLocal      = "local"
	ModeS3         = "s3"
	ModeSQLite     = "sqlite"
	ModeMemory     = "memory"
)

// Config is the process configuration.
type Config struct {
	Environment string                    `toml:"environment" yaml:"environment"`
	HTTP        HTTPConfig                `toml:"http" yaml:"http"`
	Auth        AuthConfig                `toml:"auth" yaml:"auth"`
	Storage     StorageConfig             `toml:"storage" yaml:"storage"`
	Telemetry   TelemetryConfig           `toml:"telemetry" yaml:"telemetry"`
	Bus         BusConfig                 `toml:"bus" yaml:"bus"`
	LLM         LLMConfig                 `toml:"llm" yaml:"llm"`
	Speech      SpeechConfig              `toml:"speech" yaml:"speech"`
	ObjectStore ObjectStoreConfig         `toml:"objectstore" yaml:"objectstore"`
	Pipeline    PipelineConfig            `toml:"pipeline" yaml:"pipeline"`
	Transcripts TranscriptsConfig         `toml:"transcripts" yaml:"transcripts"`
	Providers   map[string]ProviderConfig `toml:"providers" yaml:"providers"`
	Prompts     PromptsConfig             `toml:"prompts" yaml:"prompts"`
}

type HTTPConfig struct {
	Bind string `toml:"bind" yaml:"bind"`
	Port int    `toml:"port" yaml:"port"`
	// PublicURL is the externally visible base URL, used for OAuth redirects
	// and local media links.
	PublicURL         string `toml:"public_url" yaml:"public_url"`
	ShutdownTimeoutMS int    `toml:"shutdown_timeout_ms" yaml:"shutdown_timeout_ms"`
	// HeartbeatMS is the event stream keep-alive interval.
	HeartbeatMS int `toml:"heartbeat_ms" yaml:"heartbeat_ms"`
}

// Addr returns the listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Bind, h.Port)
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret" yaml:"jwt_secret"`
	Issuer          string `toml:"issuer" yaml:"issuer"`
	SessionTTLHours int    `toml:"session_ttl_hours" yaml:"session_ttl_hours"`
	// RefreshSkewSeconds treats tokens as expired this long before expiry.
	RefreshSkewSeconds int `toml:"refresh_skew_seconds" yaml:"refresh_skew_seconds"`
}

type StorageConfig struct {
	Driver string `toml:"driver" yaml:"driver"`
	Path   string `toml:"path" yaml:"path"`
}

type TelemetryConfig struct {
	LogLevel     string `toml:"log_level" yaml:"log_level"`
	LogFormat    string `toml:"log_format" yaml:"log_format"`
	ServiceName  string `toml:"service_name" yaml:"service_name"`
	OTLPEndpoint string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure" yaml:"otlp_insecure"`
	TraceStdout  bool   `toml:"trace_stdout" yaml:"trace_stdout"`
	Metrics      bool   `toml:"metrics" yaml:"metrics"`
}

type BusConfig struct {
	Enabled          bool     `toml:"enabled" yaml:"enabled"`
	Servers          []string `toml:"servers" yaml:"servers"`
	Subject          string   `toml:"subject" yaml:"subject"`
	Token            string   `toml:"token" yaml:"token"`
	ConnectTimeoutMS int      `toml:"connect_timeout_ms" yaml:"connect_timeout_ms"`
}

type LLMConfig struct {
	Mode        string  `toml:"mode" yaml:"mode"` // mock, openai, anthropic, ollama
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	BaseURL     string  `toml:"base_url" yaml:"base_url"`
	Model       string  `toml:"model" yaml:"model"`
	TimeoutMS   int     `toml:"timeout_ms" yaml:"timeout_ms"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `toml:"temperature" yaml:"temperature"`
}

type SpeechConfig struct {
	Mode         string            `toml:"mode" yaml:"mode"` // mock, elevenlabs
	APIKey       string            `toml:"api_key" yaml:"api_key"`
	BaseURL      string            `toml:"base_url" yaml:"base_url"`
	ModelID      string            `toml:"model_id" yaml:"model_id"`
	OutputFormat string            `toml:"output_format" yaml:"output_format"`
	Voices       map[string]string `toml:"voices" yaml:"voices"`
	TimeoutMS    int               `toml:"timeout_ms" yaml:"timeout_ms"`
}

type ObjectStoreConfig struct {
	Mode string `toml:"mode" yaml:"mode"` // local, s3
	// Directory is the local store root, served under /media.
	Directory string `toml:"directory" yaml:"directory"`
	Bucket    string `toml:"bucket" yaml:"bucket"`
	Region    string `toml:"region" yaml:"region"`
	// Endpoint points the S3 client at a compatible service.
	Endpoint string `toml:"endpoint" yaml:"endpoint"`
	// PublicBaseURL prefixes object keys in returned URLs when set.
	PublicBaseURL   string `toml:"public_base_url" yaml:"public_base_url"`
	UploadAttempts  int    `toml:"upload_attempts" yaml:"upload_attempts"`
	UploadBackoffMS int    `toml:"upload_backoff_ms" yaml:"upload_backoff_ms"`
}

type PipelineConfig struct {
	Timezone            string `toml:"timezone" yaml:"timezone"`
	Concurrency         int    `toml:"concurrency" yaml:"concurrency"`
	FetchTimeoutMS      int    `toml:"fetch_timeout_ms" yaml:"fetch_timeout_ms"`
	VideoFetchTimeoutMS int    `toml:"video_fetch_timeout_ms" yaml:"video_fetch_timeout_ms"`
	ItemLimit           int    `toml:"item_limit" yaml:"item_limit"`
	LookbackHours       int    `toml:"lookback_hours" yaml:"lookback_hours"`
	ScriptConcurrency   int    `toml:"script_concurrency" yaml:"script_concurrency"`
	ScriptTimeoutMS     int    `toml:"script_timeout_ms" yaml:"script_timeout_ms"`
	ScriptDelayMS       int    `toml:"script_delay_ms" yaml:"script_delay_ms"`
	InterestTimeoutMS   int    `toml:"interest_timeout_ms" yaml:"interest_timeout_ms"`
	SpeechTimeoutMS     int    `toml:"speech_timeout_ms" yaml:"speech_timeout_ms"`
	RequireAudio        bool   `toml:"require_audio" yaml:"require_audio"`
}

type TranscriptsConfig struct {
	BaseURL  string `toml:"base_url" yaml:"base_url"`
	Language string `toml:"language" yaml:"language"`
	// DelayMS spaces caption requests apart.
	DelayMS int `toml:"delay_ms" yaml:"delay_ms"`
}

// ProviderConfig holds the OAuth client of one provider. Google services
// fall back to the "google" entry.
type ProviderConfig struct {
	ClientID     string   `toml:"client_id" yaml:"client_id"`
	ClientSecret string   `toml:"client_secret" yaml:"client_secret"`
	RedirectURL  string   `toml:"redirect_url" yaml:"redirect_url"`
	Scopes       []string `toml:"scopes" yaml:"scopes"`
}

type PromptsConfig struct {
	// Directory holds user-editable prompt templates. Empty uses ~/.briefcast/prompts.
	Directory string `toml:"directory" yaml:"directory"`
	Watch     bool   `toml:"watch" yaml:"watch"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:              "0.0.0.0",
			Port:              8080,
			PublicURL:         "http://localhost:8080",
			ShutdownTimeoutMS: 10000,
			HeartbeatMS:       15000,
		},
		Auth: AuthConfig{
			Issuer:             "briefcast",
			SessionTTLHours:    24 * 7,
			RefreshSkewSeconds: 120,
		},
		Storage: StorageConfig{
			Driver: ModeSQLite,
			Path:   "./data",
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			LogFormat:    "console",
			ServiceName:  "briefcast",
			OTLPInsecure: true,
			Metrics:      true,
		},
		Bus: BusConfig{
			Servers:          []string{"nats://localhost:4222"},
			Subject:          "briefcast.progress",
			ConnectTimeoutMS: 2000,
		},
		LLM: LLMConfig{
			Mode:        ModeMock,
			TimeoutMS:   120000,
			MaxTokens:   1200,
			Temperature: 0.7,
		},
		Speech: SpeechConfig{
			Mode:         ModeMock,
			ModelID:      "eleven_v3",
			OutputFormat: "mp3_44100_128",
			Voices:       map[string]string{},
			TimeoutMS:    300000,
		},
		ObjectStore: ObjectStoreConfig{
			Mode:            ModeLocal,
			Directory:       "./data/media",
			UploadAttempts:  3,
			UploadBackoffMS: 500,
		},
		Pipeline: PipelineConfig{
			Timezone:            "UTC",
			Concurrency:         3,
			FetchTimeoutMS:      30000,
			VideoFetchTimeoutMS: 180000,
			ItemLimit:           10,
			LookbackHours:       24,
			ScriptConcurrency:   2,
			ScriptTimeoutMS:     180000,
			InterestTimeoutMS:   120000,
			SpeechTimeoutMS:     300000,
			RequireAudio:        true,
		},
		Transcripts: TranscriptsConfig{
			Language: "en",
			DelayMS:  500,
		},
		Providers: map[string]ProviderConfig{},
		Prompts: PromptsConfig{
			Watch: true,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path or a missing file yields defaults.
// The format is chosen by extension: .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config file: %w", err)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// Validate rejects impossible values.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(c.HTTP.Port > 0 && c.HTTP.Port <= 65535, "http.port must be between 1 and 65535")
	check(c.HTTP.HeartbeatMS > 0, "http.heartbeat_ms must be positive")
	check(oneOf(c.Storage.Driver, ModeSQLite, ModeMemory), "storage.driver must be sqlite or memory")
	check(c.Storage.Driver != ModeSQLite || c.Storage.Path != "", "storage.path is required for sqlite")
	check(oneOf(c.LLM.Mode, ModeMock, ModeOpenAI, ModeAnthropic, ModeOllama), "llm.mode must be mock, openai, anthropic or ollama")
	check(oneOf(c.Speech.Mode, ModeMock, ModeElevenLabs), "speech.mode must be mock or elevenlabs")
	check(oneOf(c.ObjectStore.Mode, ModeLocal, ModeS3), "objectstore.mode must be local or s3")
	check(c.ObjectStore.Mode != ModeS3 || c.ObjectStore.Bucket != "", "objectstore.bucket is required for s3")
	check(c.ObjectStore.UploadAttempts >= 1, "objectstore.upload_attempts must be at least 1")
	check(c.ObjectStore.UploadBackoffMS >= 0, "objectstore.upload_backoff_ms must not be negative")
	check(c.LLM.TimeoutMS > 0, "llm.timeout_ms must be positive")
	check(c.Pipeline.Concurrency >= 1, "pipeline.concurrency must be at least 1")
	check(c.Pipeline.ScriptConcurrency >= 1, "pipeline.script_concurrency must be at least 1")
	check(c.Pipeline.FetchTimeoutMS > 0, "pipeline.fetch_timeout_ms must be positive")
	check(c.Pipeline.VideoFetchTimeoutMS > 0, "pipeline.video_fetch_timeout_ms must be positive")
	check(c.Pipeline.ScriptTimeoutMS > 0, "pipeline.script_timeout_ms must be positive")
	check(c.Pipeline.InterestTimeoutMS > 0, "pipeline.interest_timeout_ms must be positive")
	check(c.Pipeline.SpeechTimeoutMS > 0, "pipeline.speech_timeout_ms must be positive")
	check(c.Pipeline.ItemLimit >= 1, "pipeline.item_limit must be at least 1")
	check(c.Pipeline.LookbackHours >= 1, "pipeline.lookback_hours must be at least 1")
	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.timezone: %w", err))
	}
	check(!c.Bus.Enabled || len(c.Bus.Servers) > 0, "bus.servers is required when the bus is enabled")
	check(oneOf(c.Telemetry.LogFormat, "console", "json"), "telemetry.log_format must be console or json")

	return errors.Join(errs...)
}

// Location returns the pipeline timezone, or UTC when it does not load.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Pipeline.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Provider returns the OAuth client for a provider id. Google services fall
// back to the shared "google" entry.
func (c Config) Provider(id, family string) (ProviderConfig, bool) {
	if p, ok := c.Providers[id]; ok && p.ClientID != "" {
		return p, true
	}
	if family != "" {
		if p, ok := c.Providers[family]; ok && p.ClientID != "" {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
