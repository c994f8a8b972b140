package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"digest_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"press_digest" description:"Database name"`

	// Application configuration
	SearchesDir       string `long:"searches-dir" env:"SEARCHES_DIR" default:"./searches" description:"Directory containing search definition files"`
	ListsFile         string `long:"lists-file" env:"LISTS_FILE" description:"Outlet and platform lists (defaults to the built-in lists)"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://digest.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Upstream media API
	MediaAPIURL     string        `long:"media-api-url" env:"MEDIA_API_URL" description:"Media monitoring search endpoint"`
	MediaAPIKey     string        `long:"media-api-key" env:"MEDIA_API_KEY" description:"Media monitoring API key"`
	MediaAPITimeout time.Duration `long:"media-api-timeout" env:"MEDIA_API_TIMEOUT" default:"30s" description:"Timeout for media API requests"`

	// Batch cache
	RedisAddr string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the batch cache (optional)"`
	CacheTTL  time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"15m" description:"Lifetime of cached batches"`

	// Outbound mail
	SMTPHost     string `long:"smtp-host" env:"SMTP_HOST" description:"SMTP server host (digests disabled when empty)"`
	SMTPPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUser     string `long:"smtp-user" env:"SMTP_USER" description:"SMTP user"`
	SMTPPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
	MailFrom     string `long:"mail-from" env:"MAIL_FROM" description:"Sender address for digests"`

	// Curation
	InitialPageSize int `long:"initial-page-size" env:"INITIAL_PAGE_SIZE" default:"100" description:"Initial visible window per panel"`
	MaxPageSize     int `long:"max-page-size" env:"MAX_PAGE_SIZE" default:"500" description:"Largest visible window per panel"`
	PanelSize       int `long:"panel-size" env:"PANEL_SIZE" default:"100" description:"Target number of articles per panel"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Press Digest/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Mexico_City)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses the given command line together with the environment.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		SearchesDir:       raw.SearchesDir,
		ListsFile:         raw.ListsFile,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		MediaAPIURL:       raw.MediaAPIURL,
		MediaAPIKey:       raw.MediaAPIKey,
		MediaAPITimeout:   raw.MediaAPITimeout,
		RedisAddr:         raw.RedisAddr,
		CacheTTL:          raw.CacheTTL,
		SMTPHost:          raw.SMTPHost,
		SMTPPort:          raw.SMTPPort,
		SMTPUser:          raw.SMTPUser,
		SMTPPassword:      raw.SMTPPassword,
		MailFrom:          raw.MailFrom,
		InitialPageSize:   raw.InitialPageSize,
		MaxPageSize:       raw.MaxPageSize,
		PanelSize:         raw.PanelSize,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.InitialPageSize <= 0 || c.MaxPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.InitialPageSize > c.MaxPageSize {
		return fmt.Errorf("initial page size %d exceeds max page size %d", c.InitialPageSize, c.MaxPageSize)
	}
	if c.PanelSize < 0 {
		return fmt.Errorf("panel size must not be negative")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
