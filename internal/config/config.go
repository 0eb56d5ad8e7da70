package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	TokenTTL       time.Duration

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Text-generation collaborator for the model-assisted scorer.
	LLMAPIKey     string
	LLMBaseURL    string
	LLMModels     []string // ordered fallback list
	LLMTimeout    time.Duration
	LLMMaxExcerpt int // max chars of submission text included in the prompt

	SeedDefaults bool
}

func FromEnv() Config {
	apiKey := os.Getenv("LLM_API_KEY")
	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		// Credential-prefix routing: Groq keys start with "gsk_", everything
		// else is assumed OpenAI-compatible at the default endpoint.
		if strings.HasPrefix(apiKey, "gsk_") {
			baseURL = "https://api.groq.com/openai"
		} else {
			baseURL = "https://api.openai.com"
		}
	}

	return Config{
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:       time.Duration(envInt("TOKEN_TTL_MINUTES", 480)) * time.Minute,

		AdminUser:     envOr("ADMIN_USER", "demo"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000"),

		LLMAPIKey:     apiKey,
		LLMBaseURL:    strings.TrimRight(baseURL, "/"),
		LLMModels:     csvOr("LLM_MODELS", defaultModelsFor(apiKey)),
		LLMTimeout:    time.Duration(envInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		LLMMaxExcerpt: envInt("LLM_MAX_EXCERPT", 4000),

		SeedDefaults: envBool("SEED_DEFAULTS", true),
	}
}

func defaultModelsFor(apiKey string) string {
	if strings.HasPrefix(apiKey, "gsk_") {
		return "llama-3.3-70b-versatile,llama-3.1-8b-instant"
	}
	return "gpt-4o,gpt-4o-mini"
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
