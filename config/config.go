package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig       `json:"server"`
	DataSource    DataSourceConfig   `json:"data_source"`
	Analysis      AnalysisConfig     `json:"analysis"`
	Scheduler     SchedulerConfig    `json:"scheduler"`
	Cache         CacheConfig        `json:"cache"`
	Redis         RedisConfig        `json:"redis"`
	MongoDB       MongoDBConfig      `json:"mongodb"`
	Notifications NotificationConfig `json:"notifications"`
	Profiles      ProfilesConfig     `json:"profiles"`
	Mycodo        MycodoConfig       `json:"mycodo"`

	// Run holds one-shot CLI options; flags only, never the config file.
	Run RunConfig `json:"-"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// DataSourceConfig selects how sensor series are delivered. "export" reads
// the Mycodo measurement export directory; "memory" is for tests and demos.
// "api", "influxdb" and "daemon" are recognized but not implemented here.
type DataSourceConfig struct {
	Method    string `json:"method"`
	ExportDir string `json:"export_dir"`
}

type AnalysisConfig struct {
	WindowDays         int     `json:"window_days"`
	OptimalFraction    float64 `json:"optimal_fraction"`
	AcceptableFraction float64 `json:"acceptable_fraction"`
	RisingRate         float64 `json:"rising_rate_per_day"`
	FallingRate        float64 `json:"falling_rate_per_day"`
	MinTrendSamples    int     `json:"min_trend_samples"`
	ResampleMinutes    int     `json:"resample_minutes"` // 0 disables resampling
}

type SchedulerConfig struct {
	Enabled       bool `json:"enabled"`
	IntervalHours int  `json:"interval_hours"`
	RunOnStart    bool `json:"run_on_start"`
}

type CacheConfig struct {
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type MongoDBConfig struct {
	URI           string `json:"uri"`
	Database      string `json:"database"`
	Enabled       bool   `json:"enabled"`
	RetentionDays int    `json:"retention_days"` // 0 keeps runs forever
}

type NotificationConfig struct {
	MinBand         string     `json:"min_band"`         // notify at or below this band
	CooldownMinutes int        `json:"cooldown_minutes"` // per profile
	DiscordToken    string     `json:"discord_token"`
	DiscordChannel  string     `json:"discord_channel"`
	WebhookURL      string     `json:"webhook_url"`
	MQTT            MQTTConfig `json:"mqtt"`
}

type MQTTConfig struct {
	Broker      string `json:"broker"` // empty disables publishing
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         int    `json:"qos"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

type ProfilesConfig struct {
	Path string `json:"path"`
}

// MycodoConfig describes the Mycodo install this analyzer runs next to.
// Version is optional; when set it is checked against the supported range.
type MycodoConfig struct {
	Version string `json:"version"`
}

// RunConfig carries one-shot invocation options from the command line.
type RunConfig struct {
	Once    bool
	Profile string
	Output  string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var (
		configPath string
		serverPort int
		serverHost string
		profile    string
		days       int
		output     string
		once       bool
		interval   int
	)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")
	fs.StringVar(&profile, "profile", "", "Profile to analyze (one-shot mode)")
	fs.IntVar(&days, "days", 0, "Analysis window in days")
	fs.StringVar(&output, "output", "", "Write one-shot report JSON to this file")
	fs.BoolVar(&once, "once", false, "Run a single analysis and exit")
	fs.IntVar(&interval, "interval", 0, "Scheduler interval in hours")
	_ = fs.Parse(os.Args[1:])

	// Default configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:           8300,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		DataSource: DataSourceConfig{
			Method:    "export",
			ExportDir: "exports",
		},
		Analysis: AnalysisConfig{
			WindowDays:         7,
			OptimalFraction:    0.9,
			AcceptableFraction: 0.6,
			RisingRate:         0.05,
			FallingRate:        -0.05,
			MinTrendSamples:    2,
			ResampleMinutes:    60,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			IntervalHours: 24,
			RunOnStart:    true,
		},
		Cache: CacheConfig{
			TTL: 300,
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
			Enabled:  true,
			UseTLS:   false,
		},
		MongoDB: MongoDBConfig{
			URI:           "mongodb://localhost:27017",
			Database:      "plant_analyzer",
			Enabled:       true,
			RetentionDays: 90,
		},
		Notifications: NotificationConfig{
			MinBand:         "acceptable",
			CooldownMinutes: 60,
			MQTT: MQTTConfig{
				ClientID:    "plant-analyzer",
				TopicPrefix: "mycodo/analysis",
				QoS:         1,
			},
		},
		Profiles: ProfilesConfig{
			Path: "config/profiles.json",
		},
	}

	// Load from config file if exists
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config/config.json"
	}
	if isFlagPassed(fs, "config") {
		path = configPath
	}

	if _, err := os.Stat(path); err == nil {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Load from environment variables (overrides config file)
	loadEnv(cfg)

	// Command-line flags override everything
	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}
	if isFlagPassed(fs, "profile") {
		cfg.Run.Profile = profile
	}
	if isFlagPassed(fs, "days") {
		cfg.Analysis.WindowDays = days
	}
	if isFlagPassed(fs, "output") {
		cfg.Run.Output = output
	}
	if isFlagPassed(fs, "once") {
		cfg.Run.Once = once
	}
	if isFlagPassed(fs, "interval") {
		cfg.Scheduler.IntervalHours = interval
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	// Server configuration
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Data source configuration
	if val := os.Getenv("DATA_SOURCE_METHOD"); val != "" {
		cfg.DataSource.Method = val
	}
	if val := os.Getenv("EXPORT_DIR"); val != "" {
		cfg.DataSource.ExportDir = val
	}

	// Analysis configuration
	if val := os.Getenv("ANALYSIS_WINDOW_DAYS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.WindowDays = p
		}
	}
	if val := os.Getenv("ANALYSIS_OPTIMAL_FRACTION"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Analysis.OptimalFraction = f
		}
	}
	if val := os.Getenv("ANALYSIS_ACCEPTABLE_FRACTION"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Analysis.AcceptableFraction = f
		}
	}
	if val := os.Getenv("ANALYSIS_RESAMPLE_MINUTES"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.ResampleMinutes = p
		}
	}

	// Scheduler configuration
	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		cfg.Scheduler.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("SCHEDULER_INTERVAL_HOURS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Scheduler.IntervalHours = p
		}
	}
	if val := os.Getenv("SCHEDULER_RUN_ON_START"); val != "" {
		cfg.Scheduler.RunOnStart = val == "true" || val == "1"
	}

	// Cache configuration
	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	// Redis configuration
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_USE_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	// MongoDB configuration
	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("MONGODB_RETENTION_DAYS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.MongoDB.RetentionDays = p
		}
	}

	// Notification configuration
	if val := os.Getenv("NOTIFY_MIN_BAND"); val != "" {
		cfg.Notifications.MinBand = val
	}
	if val := os.Getenv("NOTIFY_COOLDOWN_MINUTES"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Notifications.CooldownMinutes = p
		}
	}
	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Notifications.DiscordToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Notifications.DiscordChannel = val
	}
	if val := os.Getenv("WEBHOOK_URL"); val != "" {
		cfg.Notifications.WebhookURL = val
	}
	if val := os.Getenv("MQTT_BROKER"); val != "" {
		cfg.Notifications.MQTT.Broker = val
	}
	if val := os.Getenv("MQTT_CLIENT_ID"); val != "" {
		cfg.Notifications.MQTT.ClientID = val
	}
	if val := os.Getenv("MQTT_TOPIC_PREFIX"); val != "" {
		cfg.Notifications.MQTT.TopicPrefix = val
	}
	if val := os.Getenv("MQTT_QOS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Notifications.MQTT.QoS = p
		}
	}
	if val := os.Getenv("MQTT_USERNAME"); val != "" {
		cfg.Notifications.MQTT.Username = val
	}
	if val := os.Getenv("MQTT_PASSWORD"); val != "" {
		cfg.Notifications.MQTT.Password = val
	}

	// Profiles configuration
	if val := os.Getenv("PROFILES_PATH"); val != "" {
		cfg.Profiles.Path = val
	}

	// Mycodo configuration
	if val := os.Getenv("MYCODO_VERSION"); val != "" {
		cfg.Mycodo.Version = val
	}
}

// Helper methods for duration conversion
func (c *Config) AnalysisWindow() time.Duration {
	return time.Duration(c.Analysis.WindowDays) * 24 * time.Hour
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalHours) * time.Hour
}

func (c *Config) ResampleInterval() time.Duration {
	return time.Duration(c.Analysis.ResampleMinutes) * time.Minute
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func (c *Config) NotifyCooldown() time.Duration {
	return time.Duration(c.Notifications.CooldownMinutes) * time.Minute
}
