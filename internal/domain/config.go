package domain

import "time"

// Config represents the application configuration
type Config struct {
	Search        SearchConfig       `mapstructure:"search" yaml:"search"`
	Sources       SourcesConfig      `mapstructure:"sources" yaml:"sources"`
	Clients       []ClientConfig     `mapstructure:"clients" yaml:"clients"`
	DefaultClient string             `mapstructure:"default_client" yaml:"default_client"`
	Requests      RequestConfig      `mapstructure:"requests" yaml:"requests"`
	History       HistoryConfig      `mapstructure:"history" yaml:"history"`
	Server        ServerConfig       `mapstructure:"server" yaml:"server"`
	Notification  NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Logging       LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// SearchConfig holds the defaults used to build the first query of a session
type SearchConfig struct {
	Source    SourceKind `mapstructure:"source" yaml:"source"`
	Category  Category   `mapstructure:"category" yaml:"category"`
	Filter    Filter     `mapstructure:"filter" yaml:"filter"`
	Sort      SortKey    `mapstructure:"sort" yaml:"sort"`
	Direction SortDir    `mapstructure:"direction" yaml:"direction"`
}

// DefaultQuery returns a first-page query for term using the configured defaults
func (c SearchConfig) DefaultQuery(term string) QuerySpec {
	return QuerySpec{
		Term:      term,
		Category:  c.Category,
		Filter:    c.Filter,
		Sort:      c.Sort,
		Direction: c.Direction,
		Page:      1,
		Source:    c.Source,
	}
}

// SourcesConfig contains the endpoints of the index backends
type SourcesConfig struct {
	HTML      SourceEndpoint `mapstructure:"html" yaml:"html"`
	RSS       SourceEndpoint `mapstructure:"rss" yaml:"rss"`
	UserAgent string         `mapstructure:"user_agent" yaml:"user_agent"`
}

// SourceEndpoint describes a single index backend
type SourceEndpoint struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// RequestConfig contains the coordinator policy constants
type RequestConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout" yaml:"submit_timeout"`
}

// HistoryConfig contains submission history settings
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Method  string `mapstructure:"method" yaml:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir" yaml:"logs_dir"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Source:    SourceHTML,
			Category:  CategoryAll,
			Filter:    FilterNone,
			Sort:      SortDate,
			Direction: SortDesc,
		},
		Sources: SourcesConfig{
			HTML:      SourceEndpoint{BaseURL: "https://nyaa.si"},
			RSS:       SourceEndpoint{BaseURL: "https://nyaa.si"},
			UserAgent: "nyaa-go/1.0",
		},
		Clients: []ClientConfig{
			{
				Name: "default",
				Kind: ClientDirect,
			},
		},
		DefaultClient: "default",
		Requests: RequestConfig{
			MaxAttempts:   3,
			BaseDelay:     500 * time.Millisecond,
			FetchTimeout:  10 * time.Second,
			SubmitTimeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.config/nyaa/history.db",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.config/nyaa/logs",
		},
	}
}

// FindClient returns the client configuration with the given name
func (c *Config) FindClient(name string) (ClientConfig, bool) {
	for _, cc := range c.Clients {
		if cc.Name == name {
			return cc, true
		}
	}
	return ClientConfig{}, false
}
