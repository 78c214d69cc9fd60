package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	LogLevel   string
	CORSOrigin string
	PublicURL  string

	AIProvider        string
	AIModel           string
	AIAPIKey          string
	AIBaseURL         string
	OllamaHost        string
	SystemPrompt      string
	GenerationTimeout time.Duration
	HumanizeChance    float64

	DatabaseURL string
	TopicsFile  string

	VoteTime        time.Duration
	GameOverGrace   time.Duration
	IdleRoomTimeout time.Duration
	DebugControls   bool

	AdminUser string
	AdminPass string

	ExportEnabled bool
	ExportFile    string
}

// LoadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// SetDefaults registers every key with its default so that v.AutomaticEnv
// picks up the matching upper-case environment variable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("public_url", "")
	v.SetDefault("ai_provider", "openai")
	v.SetDefault("ai_model", "open-mixtral-8x7b")
	v.SetDefault("ai_api_key", "")
	v.SetDefault("mistral_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("ai_base_url", "https://api.mistral.ai")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("system_prompt", "")
	v.SetDefault("generation_timeout", 20*time.Second)
	v.SetDefault("humanize_chance", 0.2)
	v.SetDefault("database_url", "")
	v.SetDefault("topics_file", "")
	v.SetDefault("vote_time", 60)
	v.SetDefault("game_over_grace", 60*time.Second)
	v.SetDefault("idle_room_timeout", 10*time.Minute)
	v.SetDefault("debug_controls", false)
	v.SetDefault("admin_user", "")
	v.SetDefault("admin_pass", "")
	v.SetDefault("export_enabled", true)
	v.SetDefault("export_file", "./botornot-results.txt")
}

// FromViper reads the configuration. v must have AutomaticEnv enabled and
// SetDefaults applied.
func FromViper(v *viper.Viper) Config {
	c := Config{}
	c.Port = v.GetString("port")
	c.LogLevel = strings.ToLower(v.GetString("log_level"))
	c.CORSOrigin = v.GetString("cors_origin")
	c.PublicURL = strings.TrimRight(v.GetString("public_url"), "/")

	c.AIProvider = strings.ToLower(v.GetString("ai_provider"))
	c.AIModel = v.GetString("ai_model")
	c.AIAPIKey = firstNonEmpty(v.GetString("ai_api_key"), v.GetString("mistral_api_key"), v.GetString("openai_api_key"))
	c.AIBaseURL = v.GetString("ai_base_url")
	c.OllamaHost = v.GetString("ollama_host")
	c.SystemPrompt = v.GetString("system_prompt")
	c.GenerationTimeout = v.GetDuration("generation_timeout")
	c.HumanizeChance = v.GetFloat64("humanize_chance")

	c.DatabaseURL = v.GetString("database_url")
	c.TopicsFile = v.GetString("topics_file")

	c.VoteTime = time.Duration(v.GetInt("vote_time")) * time.Second
	c.GameOverGrace = v.GetDuration("game_over_grace")
	c.IdleRoomTimeout = v.GetDuration("idle_room_timeout")
	c.DebugControls = v.GetBool("debug_controls")

	c.AdminUser = v.GetString("admin_user")
	c.AdminPass = v.GetString("admin_pass")

	c.ExportEnabled = v.GetBool("export_enabled")
	c.ExportFile = v.GetString("export_file")
	return c
}

// FromEnv is FromViper over a fresh environment-backed viper.
func FromEnv() Config {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return FromViper(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
