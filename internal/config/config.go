package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	LDAP       LDAPConfig       `yaml:"ldap"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Reminder   ReminderConfig   `yaml:"reminder"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// ExtractionConfig configures the vision model used to read timetable images.
type ExtractionConfig struct {
	Provider       string `yaml:"provider"` // gemini, openai, anthropic, ollama
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ReminderConfig configures the daily deadline reminder job.
type ReminderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression
	DueDays  int    `yaml:"due_days"` // forward window for "due soon"
	Region   string `yaml:"region"`   // working-day calendar region code
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "parttimestudent.db",
		},
		JWT: JWTConfig{
			Secret:     "parttimestudent-secret-change-in-production",
			ExpireHour: 24,
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(uid=%s)",
		},
		Extraction: ExtractionConfig{
			Provider:       "gemini",
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 60,
		},
		Reminder: ReminderConfig{
			Enabled:  true,
			Schedule: "0 8 * * *",
			DueDays:  7,
			Region:   "US",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if provider := os.Getenv("EXTRACTION_PROVIDER"); provider != "" {
		c.Extraction.Provider = provider
	}
	if apiKey := os.Getenv("EXTRACTION_API_KEY"); apiKey != "" {
		c.Extraction.APIKey = apiKey
	}
	if baseURL := os.Getenv("EXTRACTION_BASE_URL"); baseURL != "" {
		c.Extraction.BaseURL = baseURL
	}
	if model := os.Getenv("EXTRACTION_MODEL"); model != "" {
		c.Extraction.Model = model
	}
	if timeout := os.Getenv("EXTRACTION_TIMEOUT_SECONDS"); timeout != "" {
		if sec, err := strconv.Atoi(timeout); err == nil && sec > 0 {
			c.Extraction.TimeoutSeconds = sec
		}
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
