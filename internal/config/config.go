package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration required by the API and worker process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Minio     MinioConfig
	OpenAI    OpenAIConfig
	Adapters  AdapterConfig
	Auth      AuthConfig
	Pipeline  PipelineConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type QueueConfig struct {
	Stream      string
	DLQStream   string
	Group       string
	Consumer    string
	MaxAttempts int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	CompletionModel string
}

// AdapterConfig points at the external systems the pipeline coordinates.
type AdapterConfig struct {
	RecordingSourceURL string
	TranscribeURL      string
	// TranscribeRefineModel enables a second refinement pass when set.
	TranscribeRefineModel string
	DirectoryURL          string
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// PipelineConfig holds the orchestrator knobs.
// Chunk sizing is configuration, never hard-coded in stage logic.
type PipelineConfig struct {
	Workers            int
	ChunkSizeTokens    int
	ChunkOverlapTokens int
	EmbeddingsEnabled  bool
	// AgentExtensionPrefix is the token prefix that marks an internal
	// extension inside raw CDR fields (e.g. "ext" matches "ext2041").
	AgentExtensionPrefix string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Queue.Stream = strings.TrimSpace(os.Getenv("QUEUE_STREAM"))
	c.Queue.DLQStream = strings.TrimSpace(os.Getenv("QUEUE_DLQ_STREAM"))
	c.Queue.Group = strings.TrimSpace(os.Getenv("QUEUE_GROUP"))
	c.Queue.Consumer = strings.TrimSpace(os.Getenv("QUEUE_CONSUMER"))
	c.Queue.MaxAttempts = optInt("QUEUE_MAX_ATTEMPTS", 3)

	c.Minio.Endpoint = strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	c.Minio.AccessKey = strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	c.Minio.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	c.Minio.Bucket = strings.TrimSpace(os.Getenv("MINIO_BUCKET"))
	c.Minio.UseSSL = optBool("MINIO_USE_SSL", false)

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	c.OpenAI.EmbeddingModel = strings.TrimSpace(os.Getenv("EMBEDDING_MODEL"))
	c.OpenAI.CompletionModel = strings.TrimSpace(os.Getenv("COMPLETION_MODEL"))

	c.Adapters.RecordingSourceURL = strings.TrimSpace(os.Getenv("RECORDING_SOURCE_URL"))
	c.Adapters.TranscribeURL = strings.TrimSpace(os.Getenv("TRANSCRIBE_URL"))
	c.Adapters.TranscribeRefineModel = strings.TrimSpace(os.Getenv("TRANSCRIBE_REFINE_MODEL"))
	c.Adapters.DirectoryURL = strings.TrimSpace(os.Getenv("DIRECTORY_URL"))

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))

	c.Pipeline.Workers = optInt("PIPELINE_WORKERS", 4)
	c.Pipeline.ChunkSizeTokens = optInt("CHUNK_SIZE_TOKENS", 400)
	c.Pipeline.ChunkOverlapTokens = optInt("CHUNK_OVERLAP_TOKENS", 40)
	c.Pipeline.EmbeddingsEnabled = optBool("EMBEDDINGS_ENABLED", true)
	c.Pipeline.AgentExtensionPrefix = strings.TrimSpace(os.Getenv("AGENT_EXTENSION_PREFIX"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Queue.Stream == "" {
		c.Queue.Stream = "call_jobs"
	}
	if c.Queue.DLQStream == "" {
		c.Queue.DLQStream = c.Queue.Stream + "_dlq"
	}
	if c.Queue.Group == "" {
		c.Queue.Group = "call_workers"
	}
	if c.Queue.Consumer == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "worker-1"
		}
		c.Queue.Consumer = host
	}
	if c.Queue.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_MAX_ATTEMPTS must be positive, got %d", c.Queue.MaxAttempts))
	}

	if c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("MINIO_ENDPOINT is required"))
	}
	if c.Minio.AccessKey == "" {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY is required"))
	}
	if c.Minio.SecretKey == "" {
		errs = append(errs, errors.New("MINIO_SECRET_KEY is required"))
	}
	if c.Minio.Bucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required"))
	}

	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.CompletionModel == "" {
		c.OpenAI.CompletionModel = "gpt-4o-mini"
	}

	if c.Adapters.RecordingSourceURL == "" {
		errs = append(errs, errors.New("RECORDING_SOURCE_URL is required"))
	}
	if c.Adapters.TranscribeURL == "" {
		errs = append(errs, errors.New("TRANSCRIBE_URL is required"))
	}
	if c.Adapters.DirectoryURL == "" {
		errs = append(errs, errors.New("DIRECTORY_URL is required"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Pipeline.Workers <= 0 {
		errs = append(errs, fmt.Errorf("PIPELINE_WORKERS must be positive, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.ChunkSizeTokens <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE_TOKENS must be positive, got %d", c.Pipeline.ChunkSizeTokens))
	}
	if c.Pipeline.ChunkOverlapTokens < 0 || c.Pipeline.ChunkOverlapTokens >= c.Pipeline.ChunkSizeTokens {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP_TOKENS must be in [0, CHUNK_SIZE_TOKENS), got %d", c.Pipeline.ChunkOverlapTokens))
	}
	if c.Pipeline.AgentExtensionPrefix == "" {
		c.Pipeline.AgentExtensionPrefix = "ext"
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func optBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
