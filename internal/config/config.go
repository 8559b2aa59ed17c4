package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/chatlab/internal/pathutil"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Log          LogConfig          `koanf:"log" yaml:"log"`
	Models       ModelsConfig       `koanf:"models" yaml:"models"`
	Chat         ChatConfig         `koanf:"chat" yaml:"chat"`
	Conversation ConversationConfig `koanf:"conversation" yaml:"conversation"`
	Reminders    RemindersConfig    `koanf:"reminders" yaml:"reminders"`
	Eval         EvalConfig         `koanf:"eval" yaml:"eval"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

type ModelsConfig struct {
	Default    string          `koanf:"default" yaml:"default"`
	Eval       string          `koanf:"eval" yaml:"eval"`
	Fallback   string          `koanf:"fallback" yaml:"fallback"`
	MaxRetries int             `koanf:"max_retries" yaml:"max_retries"`
	Registry   []ModelRegistry `koanf:"registry" yaml:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name" yaml:"name"`
	Provider       string `koanf:"provider" yaml:"provider"`
	BaseURL        string `koanf:"base_url" yaml:"base_url,omitempty"`
	APIKey         string `koanf:"api_key" yaml:"api_key,omitempty"`
	RequestTimeout string `koanf:"request_timeout" yaml:"request_timeout,omitempty"`
}

type ChatConfig struct {
	System      string  `koanf:"system" yaml:"system"`
	Temperature float64 `koanf:"temperature" yaml:"temperature"`
	MaxTokens   int     `koanf:"max_tokens" yaml:"max_tokens"`
	Stream      bool    `koanf:"stream" yaml:"stream"`
}

type ConversationConfig struct {
	MaxRounds   int     `koanf:"max_rounds" yaml:"max_rounds"`
	MaxTokens   int     `koanf:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `koanf:"temperature" yaml:"temperature"`
	System      string  `koanf:"system" yaml:"system"`
}

type RemindersConfig struct {
	StorePath   string `koanf:"store_path" yaml:"store_path"`
	LockTimeout string `koanf:"lock_timeout" yaml:"lock_timeout"`
}

type EvalConfig struct {
	DatasetPath     string `koanf:"dataset_path" yaml:"dataset_path"`
	ResultsPath     string `koanf:"results_path" yaml:"results_path"`
	DatasetSize     int    `koanf:"dataset_size" yaml:"dataset_size"`
	Topic           string `koanf:"topic" yaml:"topic"`
	MaxTokens       int    `koanf:"max_tokens" yaml:"max_tokens"`
	MaxParseRetries int    `koanf:"max_parse_retries" yaml:"max_parse_retries"`
	Concurrency     int    `koanf:"concurrency" yaml:"concurrency"`
	LockTimeout     string `koanf:"lock_timeout" yaml:"lock_timeout"`
}

const (
	DefaultLogLevel                 = "info"
	DefaultModelDefault             = "claude-sonnet-4-5"
	DefaultModelEval                = "claude-haiku-4-5"
	DefaultModelMaxRetries          = 0
	DefaultModelRequestTimeout      = "120s"
	DefaultOpenAIBaseURL            = "https://api.openai.com/v1"
	DefaultOllamaBaseURL            = "http://localhost:11434/v1"
	DefaultOllamaAPIKey             = "ollama"
	DefaultChatTemperature          = 0.0
	DefaultChatMaxTokens            = 1000
	DefaultConversationMaxRounds    = 10
	DefaultConversationMaxTokens    = 1000
	DefaultConversationTemperature  = 0.0
	DefaultConversationSystemPrompt = ""
	DefaultRemindersLockTimeout     = "5s"
	DefaultEvalDatasetPath          = "generated_dataset.json"
	DefaultEvalResultsPath          = "eval_results.json"
	DefaultEvalDatasetSize          = 3
	DefaultEvalTopic                = "AWS"
	DefaultEvalMaxTokens            = 1000
	DefaultEvalMaxParseRetries      = 2
	DefaultEvalConcurrency          = 1
	DefaultEvalLockTimeout          = "10s"
	DefaultEnvFile                  = ".env"
	envPrefix                       = "CHATLAB_"
	legacyDefaultModelEnv           = "CLAUDE_MODEL"
	legacyEvalModelEnv              = "HAIKU_MODEL"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	home, _ := pathutil.HomeDir()

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"log.level":          DefaultLogLevel,
		"models.default":     DefaultModelDefault,
		"models.eval":        DefaultModelEval,
		"models.max_retries": DefaultModelMaxRetries,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "anthropic"},
			{Name: DefaultModelEval, Provider: "anthropic"},
			{Name: "gpt-4o-mini", Provider: "openai"},
			{Name: "gemini-2.0-flash", Provider: "gemini"},
			{Name: "local-llama", Provider: "ollama", BaseURL: DefaultOllamaBaseURL},
		},
		"chat.temperature":         DefaultChatTemperature,
		"chat.max_tokens":          DefaultChatMaxTokens,
		"conversation.max_rounds":  DefaultConversationMaxRounds,
		"conversation.max_tokens":  DefaultConversationMaxTokens,
		"conversation.temperature": DefaultConversationTemperature,
		"conversation.system":      DefaultConversationSystemPrompt,
		"reminders.store_path":     filepath.Join(home, ".chatlab", "reminders.json"),
		"reminders.lock_timeout":   DefaultRemindersLockTimeout,
		"eval.dataset_path":        DefaultEvalDatasetPath,
		"eval.results_path":        DefaultEvalResultsPath,
		"eval.dataset_size":        DefaultEvalDatasetSize,
		"eval.topic":               DefaultEvalTopic,
		"eval.max_tokens":          DefaultEvalMaxTokens,
		"eval.max_parse_retries":   DefaultEvalMaxParseRetries,
		"eval.concurrency":         DefaultEvalConcurrency,
		"eval.lock_timeout":        DefaultEvalLockTimeout,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else if home != "" {
		globalPath := filepath.Join(home, ".chatlab", "config.yaml")
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	// .env values override the process environment, as the scripts always did.
	loadEnvFile()

	// Environment Variables
	k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)

	if model := strings.TrimSpace(os.Getenv(legacyDefaultModelEnv)); model != "" {
		k.Set("models.default", model)
	}
	if model := strings.TrimSpace(os.Getenv(legacyEvalModelEnv)); model != "" {
		k.Set("models.eval", model)
	}

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "anthropic"
		}
	}
	ensureRegistered(&cfg, cfg.Models.Default)
	ensureRegistered(&cfg, cfg.Models.Eval)

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	injectAPIKey(&cfg, "anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	injectAPIKey(&cfg, "openai", os.Getenv("OPENAI_API_KEY"))
	injectAPIKey(&cfg, "gemini", os.Getenv("GEMINI_API_KEY"))

	return &cfg, nil
}

func loadEnvFile() {
	path := strings.TrimSpace(os.Getenv(envPrefix + "ENV_FILE"))
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Overload(path); err != nil {
		slog.Warn("Failed to load env file", "path", path, "error", err)
	}
}

// ensureRegistered adds an anthropic registry entry for a model selected
// only by name (e.g. through CLAUDE_MODEL).
func ensureRegistered(cfg *Config, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, m := range cfg.Models.Registry {
		if m.Name == name {
			return
		}
	}
	cfg.Models.Registry = append(cfg.Models.Registry, ModelRegistry{Name: name, Provider: providerForModel(name)})
}

func providerForModel(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "gpt"), strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"), strings.HasPrefix(lower, "o4"):
		return "openai"
	case strings.HasPrefix(lower, "gemini"):
		return "gemini"
	default:
		return "anthropic"
	}
}

func injectAPIKey(cfg *Config, provider, key string) {
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	fields := []*string{
		&cfg.Reminders.StorePath,
		&cfg.Eval.DatasetPath,
		&cfg.Eval.ResultsPath,
	}
	for _, field := range fields {
		expanded, err := pathutil.Expand(*field)
		if err != nil {
			return err
		}
		if expanded != "" {
			*field = expanded
		}
	}

	return nil
}
