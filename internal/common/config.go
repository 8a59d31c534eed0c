package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment" validate:"omitempty,oneof=development production"`
	Server       ServerConfig       `toml:"server"`
	Storage      StorageConfig      `toml:"storage"`
	Logging      LoggingConfig      `toml:"logging"`
	Retrieval    RetrievalConfig    `toml:"retrieval"`
	Routing      RoutingConfig      `toml:"routing"`
	Conversation ConversationConfig `toml:"conversation"`
	Personas     PersonasConfig     `toml:"personas"`
	Gemini       GeminiConfig       `toml:"gemini"`
	Claude       ClaudeConfig       `toml:"claude"`
	LLM          LLMConfig          `toml:"llm"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Corpus       CorpusConfig       `toml:"corpus"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"required,min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// RetrievalConfig controls document retrieval for context assembly
type RetrievalConfig struct {
	MaxDocuments  int `toml:"max_documents" validate:"min=1,max=50"` // Documents per query (default: 4)
	SnippetLength int `toml:"snippet_length"`                        // Max chars per fragment in prompts (0 = unlimited)
}

// RoutingConfig holds the routing policy: sales trigger phrases and the
// conversation-shape escalation thresholds. These encode business policy,
// not algorithm, so they are configuration rather than constants.
type RoutingConfig struct {
	DefaultPersona     string   `toml:"default_persona"`      // Fallback on unknown classification (default: "writer")
	SalesTriggers      []string `toml:"sales_triggers"`       // Phrases that route straight to the sales persona
	ReadinessKeywords  []string `toml:"readiness_keywords"`   // Agent-turn keywords counted toward sales escalation
	MinExchanges       int      `toml:"min_exchanges"`        // Exchanges before escalation heuristics apply (default: 2)
	ForceExchanges     int      `toml:"force_exchanges"`      // Exchanges after which sales routing is deterministic (default: 3)
	ReadinessThreshold int      `toml:"readiness_threshold"`  // Keyword hits required for escalation (default: 3)
	HistoryQueryLimit  int      `toml:"history_query_limit"`  // User queries listed for meta/history answers (default: 10)
	SalesRoutingEnable bool     `toml:"sales_routing_enable"` // Enable sales trigger + escalation path
}

// ConversationConfig controls session history behavior
type ConversationConfig struct {
	HistoryWindow  int  `toml:"history_window" validate:"min=1"` // Turn pairs included in prompts (default: 5)
	Persist        bool `toml:"persist"`                         // Persist turns to Badger (default: false, memory only)
	DefaultSession bool `toml:"default_session"`                 // Allow requests without a session id (default: true)
}

// PersonasConfig points at an optional YAML definitions file that
// overrides or extends the built-in persona set
type PersonasConfig struct {
	DefinitionsFile string `toml:"definitions_file"` // e.g. "personas.yaml" (optional)
}

// GeminiConfig represents Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`   // Default Gemini model
	Timeout     string  `toml:"timeout"` // e.g. "60s"
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// ClaudeConfig represents Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`   // Default Claude model
	Timeout     string  `toml:"timeout"` // e.g. "120s"
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// LLMConfig holds provider-agnostic LLM settings
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider" validate:"omitempty,oneof=claude gemini"`
	RateLimit       float64 `toml:"rate_limit"`  // Requests per second across providers (0 = unlimited)
	MaxRetries      int     `toml:"max_retries"` // Retry attempts on rate-limited completions
}

// MetricsConfig controls query metrics tracking and retention
type MetricsConfig struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"` // Records older than this are swept (default: 30)
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for the retention sweep (default: "0 3 * * *")
}

// CorpusConfig controls document ingestion
type CorpusConfig struct {
	Dir        string   `toml:"dir"`        // Directory of corpus files to ingest on startup
	Extensions []string `toml:"extensions"` // File extensions to scan (default: [".md", ".txt", ".pdf"])
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/parley",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Retrieval: RetrievalConfig{
			MaxDocuments:  4,
			SnippetLength: 0,
		},
		Routing: RoutingConfig{
			DefaultPersona:     "writer",
			SalesTriggers:      []string{},
			ReadinessKeywords:  []string{},
			MinExchanges:       2,
			ForceExchanges:     3,
			ReadinessThreshold: 3,
			HistoryQueryLimit:  10,
			SalesRoutingEnable: false,
		},
		Conversation: ConversationConfig{
			HistoryWindow:  5,
			Persist:        false,
			DefaultSession: true,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     "60s",
			Temperature: 0.0,
			MaxTokens:   8192,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "120s",
			Temperature: 0.5,
			MaxTokens:   8192,
		},
		LLM: LLMConfig{
			DefaultProvider: "claude",
			RateLimit:       5,
			MaxRetries:      3,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			RetentionDays: 30,
			SweepSchedule: "0 3 * * *",
		},
		Corpus: CorpusConfig{
			Dir:        "./corpus",
			Extensions: []string{".md", ".txt", ".pdf"},
		},
	}
}

// LoadFromFile loads configuration from a single TOML file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple TOML files, merging in order
// (later files override earlier ones), then applies environment overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for structural errors
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variables over file configuration
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PARLEY_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("PARLEY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PARLEY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("PARLEY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("PARLEY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("PARLEY_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, part := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM provider keys
	if key := os.Getenv("PARLEY_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("PARLEY_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if provider := os.Getenv("PARLEY_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}

	// Corpus configuration
	if dir := os.Getenv("PARLEY_CORPUS_DIR"); dir != "" {
		config.Corpus.Dir = dir
	}

	// Personas definitions
	if file := os.Getenv("PARLEY_PERSONAS_FILE"); file != "" {
		config.Personas.DefinitionsFile = file
	}
}

// ApplyFlagOverrides applies command-line flag values over the loaded config.
// Flags have the highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
