package cfg

import "time"

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SearchesDir       string
	ListsFile         string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Upstream media API
	MediaAPIURL     string
	MediaAPIKey     string
	MediaAPITimeout time.Duration

	// Batch cache
	RedisAddr string
	CacheTTL  time.Duration

	// Outbound mail
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	// Curation
	InitialPageSize int
	MaxPageSize     int
	PanelSize       int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// MailEnabled reports whether digests can be sent.
func (c *Cfg) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}
