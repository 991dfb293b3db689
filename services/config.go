package services

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Vendor    VendorConfig
	Scoring   ScoringPolicy
	Monitor   MonitorConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	AllowedOrigins string
}

// VendorConfig points at the voice transport provider's call-data API.
type VendorConfig struct {
	BaseURL string
	APIKey  string
	// WebhookSecret authenticates inbound call-completed deliveries.
	WebhookSecret string
	Timeout       time.Duration
}

// MonitorConfig controls the in-memory session activity monitor.
type MonitorConfig struct {
	InactivityTimeout time.Duration
	CheckInterval     time.Duration
	// AutoTriggerExchanges is the number of finalized candidate turns after
	// which a completed session is evaluated automatically.
	AutoTriggerExchanges int
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("vendor.base_url", "")
	viper.SetDefault("vendor.api_key", "")
	viper.SetDefault("vendor.webhook_secret", "")
	viper.SetDefault("vendor.timeout_seconds", "15")
	viper.SetDefault("monitor.inactivity_timeout_minutes", "5")
	viper.SetDefault("monitor.check_interval_seconds", "30")
	viper.SetDefault("monitor.auto_trigger_exchanges", "6")
	setScoringDefaults()

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("vendor.base_url", "VENDOR_BASE_URL")
	viper.BindEnv("vendor.api_key", "VENDOR_API_KEY")
	viper.BindEnv("vendor.webhook_secret", "VENDOR_WEBHOOK_SECRET")
	viper.BindEnv("scoring.pass_threshold", "SCORING_PASS_THRESHOLD")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
		Vendor: VendorConfig{
			BaseURL:       viper.GetString("vendor.base_url"),
			APIKey:        viper.GetString("vendor.api_key"),
			WebhookSecret: viper.GetString("vendor.webhook_secret"),
			Timeout:       time.Duration(viper.GetInt("vendor.timeout_seconds")) * time.Second,
		},
		Scoring: loadScoringPolicy(),
		Monitor: MonitorConfig{
			InactivityTimeout:    time.Duration(viper.GetInt("monitor.inactivity_timeout_minutes")) * time.Minute,
			CheckInterval:        time.Duration(viper.GetInt("monitor.check_interval_seconds")) * time.Second,
			AutoTriggerExchanges: viper.GetInt("monitor.auto_trigger_exchanges"),
		},
	}
}

// setScoringDefaults registers the reference scoring policy. The weights and
// thresholds live in one place so the decision policy stays auditable.
func setScoringDefaults() {
	viper.SetDefault("scoring.weight_technical", "0.35")
	viper.SetDefault("scoring.weight_communication", "0.25")
	viper.SetDefault("scoring.weight_experience", "0.25")
	viper.SetDefault("scoring.weight_engagement", "0.15")
	viper.SetDefault("scoring.pass_threshold", "65")
	viper.SetDefault("scoring.top_performer_threshold", "90")
	viper.SetDefault("scoring.vendor_signal_floor", "70")
	viper.SetDefault("scoring.vendor_signal_ceiling", "60")
	viper.SetDefault("scoring.min_session_seconds", "120")
}

func loadScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		WeightTechnical:       viper.GetFloat64("scoring.weight_technical"),
		WeightCommunication:   viper.GetFloat64("scoring.weight_communication"),
		WeightExperience:      viper.GetFloat64("scoring.weight_experience"),
		WeightEngagement:      viper.GetFloat64("scoring.weight_engagement"),
		PassThreshold:         viper.GetInt("scoring.pass_threshold"),
		TopPerformerThreshold: viper.GetInt("scoring.top_performer_threshold"),
		VendorSignalFloor:     viper.GetInt("scoring.vendor_signal_floor"),
		VendorSignalCeiling:   viper.GetInt("scoring.vendor_signal_ceiling"),
		MinSessionSeconds:     viper.GetInt("scoring.min_session_seconds"),
	}
}
