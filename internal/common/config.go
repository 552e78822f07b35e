package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Browser     BrowserConfig   `toml:"browser"`
	Target      TargetConfig    `toml:"target"`
	Bot         BotConfig       `toml:"bot"`
	SMTP        SMTPConfig      `toml:"smtp"`
	KeepAlive   KeepAliveConfig `toml:"keepalive"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// BrowserConfig controls the headless Chrome sessions
type BrowserConfig struct {
	Headless          bool          `toml:"headless"`
	NoSandbox         bool          `toml:"no_sandbox"`
	UserAgent         string        `toml:"user_agent"`
	UserDataDir       string        `toml:"user_data_dir"`      // shared session profile dir
	DownloadDir       string        `toml:"download_dir"`       // root for per-session download dirs
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // per-navigation cap
	DownloadTimeout   time.Duration `toml:"download_timeout"`   // wait for exported file
	BlockedURLs       []string      `toml:"blocked_urls"`       // analytics/images/fonts patterns
}

// TargetConfig describes the external site being automated
type TargetConfig struct {
	BaseURL            string `toml:"base_url"`
	LoginURL           string `toml:"login_url"`
	FeedURL            string `toml:"feed_url"`
	OwnProfilePath     string `toml:"own_profile_path"`     // identity-relative path, redirects to the concrete profile
	ProfilePathPattern string `toml:"profile_path_pattern"` // regexp a bot-mode locator must match
}

// BotConfig holds the shared bot identity credentials
type BotConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// SMTPConfig holds outbound email settings
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	UseTLS   bool   `toml:"use_tls"`
}

// KeepAliveConfig controls the scheduled shared-session login probe
type KeepAliveConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // standard 5-field cron expression
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in scriba.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 3000,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         true,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			UserDataDir:       "./data/browser",
			DownloadDir:       "./data/downloads",
			NavigationTimeout: 45 * time.Second,
			DownloadTimeout:   30 * time.Second,
			BlockedURLs: []string{
				"*://*.doubleclick.net/*",
				"*://*.google-analytics.com/*",
				"*://*.googletagmanager.com/*",
				"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp",
				"*.woff", "*.woff2", "*.ttf",
			},
		},
		Target: TargetConfig{
			BaseURL:            "https://www.linkedin.com",
			LoginURL:           "https://www.linkedin.com/login",
			FeedURL:            "https://www.linkedin.com/feed/",
			OwnProfilePath:     "/in/me/",
			ProfilePathPattern: `^https://(www\.)?linkedin\.com/in/[A-Za-z0-9\-_%]+/?$`,
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Scriba",
			UseTLS:   true,
		},
		KeepAlive: KeepAliveConfig{
			Enabled:  false,
			Schedule: "0 */6 * * *", // every 6 hours
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
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

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIBA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SCRIBA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRIBA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("SCRIBA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if headless := os.Getenv("SCRIBA_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if userAgent := os.Getenv("SCRIBA_BROWSER_USER_AGENT"); userAgent != "" {
		config.Browser.UserAgent = userAgent
	}
	if downloadDir := os.Getenv("SCRIBA_BROWSER_DOWNLOAD_DIR"); downloadDir != "" {
		config.Browser.DownloadDir = downloadDir
	}
	if navTimeout := os.Getenv("SCRIBA_BROWSER_NAVIGATION_TIMEOUT"); navTimeout != "" {
		if d, err := time.ParseDuration(navTimeout); err == nil {
			config.Browser.NavigationTimeout = d
		}
	}

	// Bot identity comes from the environment in deployments; the .env file
	// loaded at startup feeds these same variables. The LINKEDIN_*/EMAIL_*
	// names are kept for compatibility with existing deployments.
	if username := os.Getenv("SCRIBA_BOT_USERNAME"); username != "" {
		config.Bot.Username = username
	} else if username := os.Getenv("LINKEDIN_EMAIL"); username != "" {
		config.Bot.Username = username
	}
	if password := os.Getenv("SCRIBA_BOT_PASSWORD"); password != "" {
		config.Bot.Password = password
	} else if password := os.Getenv("LINKEDIN_PASSWORD"); password != "" {
		config.Bot.Password = password
	}

	if host := os.Getenv("SCRIBA_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if port := os.Getenv("SCRIBA_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if username := os.Getenv("SCRIBA_SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	} else if username := os.Getenv("EMAIL_USER"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("SCRIBA_SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	} else if password := os.Getenv("EMAIL_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if from := os.Getenv("SCRIBA_SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}

	if enabled := os.Getenv("SCRIBA_KEEPALIVE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.KeepAlive.Enabled = e
		}
	}
	if schedule := os.Getenv("SCRIBA_KEEPALIVE_SCHEDULE"); schedule != "" {
		config.KeepAlive.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
