package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	RubricPath  string // empty = embedded default rubric
	Institution string

	CORSOrigins []string

	AuthSecret        string
	EvaluatorUser     string
	EvaluatorPassHash string // bcrypt; empty = generate a password at startup
	SessionTTL        time.Duration

	MaxUploadBytes int64
	ExtractTimeout time.Duration
	ExcerptChars   int

	LogLevel  string
	LogFormat string // text|json
}

// Load reads an optional .env file in the working directory and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func FromEnv() (Config, error) {
	ttl, err := envDuration("SESSION_TTL", 8*time.Hour)
	if err != nil {
		return Config{}, err
	}
	timeout, err := envDuration("EXTRACT_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	maxUpload, err := envInt("MAX_UPLOAD_BYTES", 20<<20)
	if err != nil {
		return Config{}, err
	}
	excerpt, err := envInt("EXCERPT_CHARS", 2500)
	if err != nil {
		return Config{}, err
	}
	secret := os.Getenv("AUTH_HMAC_SECRET")
	if secret == "" {
		// tokens then only survive until restart, which matches session lifetime
		secret = randomHex(32)
	}
	return Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		PublicURL:         strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		RubricPath:        os.Getenv("RUBRIC_PATH"),
		Institution:       envOr("INSTITUTION", "UCCuyo"),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:3000"),
		AuthSecret:        secret,
		EvaluatorUser:     envOr("EVALUATOR_USER", "evaluador"),
		EvaluatorPassHash: os.Getenv("EVALUATOR_PASS_HASH"),
		SessionTTL:        ttl,
		MaxUploadBytes:    int64(maxUpload),
		ExtractTimeout:    timeout,
		ExcerptChars:      excerpt,
		LogLevel:          strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(envOr("LOG_FORMAT", "text")),
	}, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.EvaluatorUser == "" {
		errs = append(errs, errors.New("EVALUATOR_USER is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.ExtractTimeout <= 0 {
		errs = append(errs, errors.New("EXTRACT_TIMEOUT must be positive"))
	}
	if c.ExcerptChars <= 0 {
		errs = append(errs, errors.New("EXCERPT_CHARS must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug|info|warn|error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of text|json", c.LogFormat))
	}
	return errors.Join(errs...)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
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

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("config: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
