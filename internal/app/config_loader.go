package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/nyaa-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/nyaa")
		v.AddConfigPath("/etc/nyaa")
	}

	v.SetEnvPrefix("NYAA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// A configured client list replaces the defaults instead of merging
	// into them element by element.
	if v.IsSet("clients") {
		config.Clients = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnv registers the scalar keys so NYAA_* variables override them
// even when the config file does not mention them.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"search.source", "search.category", "search.filter", "search.sort", "search.direction",
		"sources.html.base_url", "sources.rss.base_url", "sources.user_agent",
		"default_client",
		"requests.max_attempts", "requests.base_delay", "requests.fetch_timeout", "requests.submit_timeout",
		"history.enabled", "history.database_path",
		"server.host", "server.port",
		"notification.enabled", "notification.method",
		"logging.level", "logging.format", "logging.output_path", "logging.logs_dir",
	} {
		v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	switch config.Logging.OutputPath {
	case "stdout", "stderr", "none", "":
	default:
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	for i := range config.Clients {
		if sp := config.Clients[i].Options.SavePath; sp != nil {
			expanded := expandPath(*sp)
			config.Clients[i].Options.SavePath = &expanded
		}
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// maxAttemptsLimit bounds requests.max_attempts
const maxAttemptsLimit = 10

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if !domain.ValidateSource(config.Search.Source) {
		return fmt.Errorf("unsupported default source: %q", config.Search.Source)
	}
	if err := config.Search.DefaultQuery("").Validate(); err != nil {
		return fmt.Errorf("invalid search defaults: %w", err)
	}

	if config.Requests.MaxAttempts < 1 || config.Requests.MaxAttempts > maxAttemptsLimit {
		return fmt.Errorf("max attempts must be between 1 and %d", maxAttemptsLimit)
	}
	if config.Requests.BaseDelay <= 0 || config.Requests.BaseDelay > MaxRetryDelay {
		return fmt.Errorf("base delay must be positive and at most %s", MaxRetryDelay)
	}
	if config.Requests.FetchTimeout <= 0 || config.Requests.SubmitTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	if len(config.Clients) == 0 {
		return fmt.Errorf("no download client configured")
	}
	seen := make(map[string]bool, len(config.Clients))
	for _, c := range config.Clients {
		if c.Name == "" {
			return fmt.Errorf("download client without a name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate download client: %s", c.Name)
		}
		seen[c.Name] = true
		if !domain.ValidateClientKind(c.Kind) {
			return fmt.Errorf("client %s: unsupported kind %q", c.Name, c.Kind)
		}
	}
	if config.DefaultClient == "" {
		config.DefaultClient = config.Clients[0].Name
	}
	if !seen[config.DefaultClient] {
		return fmt.Errorf("default client %q is not configured", config.DefaultClient)
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("search", config.Search)
	v.Set("sources", config.Sources)
	v.Set("clients", config.Clients)
	v.Set("default_client", config.DefaultClient)
	v.Set("requests", config.Requests)
	v.Set("history", config.History)
	v.Set("server", config.Server)
	v.Set("notification", config.Notification)
	v.Set("logging", config.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
