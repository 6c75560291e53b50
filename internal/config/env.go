package config

import (
	"os"
	"strconv"
	"strings"
)

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Environment, "BRIEFCAST_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "BRIEFCAST_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "BRIEFCAST_HTTP_PORT")
	overrideString(&cfg.HTTP.PublicURL, "BRIEFCAST_HTTP_PUBLIC_URL")
	overrideString(&cfg.Auth.JWTSecret, "BRIEFCAST_AUTH_JWT_SECRET")
	overrideString(&cfg.Auth.Issuer, "BRIEFCAST_AUTH_ISSUER")
	overrideString(&cfg.Storage.Driver, "BRIEFCAST_STORAGE_DRIVER")
	overrideString(&cfg.Storage.Path, "BRIEFCAST_STORAGE_PATH")
	overrideString(&cfg.Telemetry.LogLevel, "BRIEFCAST_LOG_LEVEL")
	overrideString(&cfg.Telemetry.LogFormat, "BRIEFCAST_LOG_FORMAT")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "BRIEFCAST_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.TraceStdout, "BRIEFCAST_TRACE_STDOUT")
	overrideBool(&cfg.Bus.Enabled, "BRIEFCAST_BUS_ENABLED")
	overrideStringSlice(&cfg.Bus.Servers, "BRIEFCAST_BUS_SERVERS")
	overrideString(&cfg.Bus.Token, "BRIEFCAST_BUS_TOKEN")
	overrideString(&cfg.LLM.Mode, "BRIEFCAST_LLM_MODE")
	overrideString(&cfg.LLM.BaseURL, "BRIEFCAST_LLM_BASE_URL")
	overrideString(&cfg.LLM.Model, "BRIEFCAST_LLM_MODEL")
	overrideString(&cfg.LLM.APIKey, "BRIEFCAST_LLM_API_KEY")
	overrideString(&cfg.Speech.Mode, "BRIEFCAST_SPEECH_MODE")
	overrideString(&cfg.Speech.APIKey, "ELEVENLABS_API_KEY")
	overrideString(&cfg.Speech.APIKey, "BRIEFCAST_SPEECH_API_KEY")
	overrideString(&cfg.ObjectStore.Mode, "BRIEFCAST_OBJECTSTORE_MODE")
	overrideString(&cfg.ObjectStore.Bucket, "BRIEFCAST_OBJECTSTORE_BUCKET")
	overrideString(&cfg.ObjectStore.Region, "AWS_REGION")
	overrideString(&cfg.ObjectStore.Region, "BRIEFCAST_OBJECTSTORE_REGION")
	overrideString(&cfg.ObjectStore.Endpoint, "BRIEFCAST_OBJECTSTORE_ENDPOINT")
	overrideString(&cfg.Pipeline.Timezone, "BRIEFCAST_PIPELINE_TIMEZONE")
	overrideInt(&cfg.Pipeline.Concurrency, "BRIEFCAST_PIPELINE_CONCURRENCY")
	overrideBool(&cfg.Pipeline.RequireAudio, "BRIEFCAST_PIPELINE_REQUIRE_AUDIO")
	overrideString(&cfg.Prompts.Directory, "BRIEFCAST_PROMPTS_DIRECTORY")

	// Conventional provider keys apply only when the matching mode is selected.
	switch cfg.LLM.Mode {
	case ModeOpenAI:
		if cfg.LLM.APIKey == "" {
			overrideString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		}
	case ModeAnthropic:
		if cfg.LLM.APIKey == "" {
			overrideString(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
		}
	}

	for _, id := range []string{"google", "notion", "github"} {
		prefix := "BRIEFCAST_" + strings.ToUpper(id) + "_"
		p := cfg.Providers[id]
		overrideString(&p.ClientID, prefix+"CLIENT_ID")
		overrideString(&p.ClientSecret, prefix+"CLIENT_SECRET")
		if p.ClientID != "" {
			if cfg.Providers == nil {
				cfg.Providers = map[string]ProviderConfig{}
			}
			cfg.Providers[id] = p
		}
	}
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	value, ok := os.LookupEnv(envKey)
	if !ok {
		return
	}
	var trimmed []string
	for _, p := range strings.Split(value, ",") {
		if s := strings.TrimSpace(p); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) > 0 {
		*target = trimmed
	}
}
