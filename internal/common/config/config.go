package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/denisblondeau/AzureWebPubSubDemo-Publisher/pkg/helper"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// PublisherConfig represents the root configuration for the publisher client
	PublisherConfig struct {
		PubSub PubSubConfig `yaml:"pubsub"`
		Logger LoggerConfig `yaml:"logger"`
	}

	// PubSubConfig represents the Web PubSub connection configuration.
	// Hostname and AccessKey come from the service keys in the Azure portal;
	// Hub and Group have to match the subscriber side.
	PubSubConfig struct {
		Hostname   string           `yaml:"hostname"`
		AccessKey  string           `yaml:"access_key"`
		Hub        string           `yaml:"hub"`
		Group      string           `yaml:"group"`
		Permission PermissionConfig `yaml:"permission"`
	}

	// PermissionConfig selects the role requested in the access token.
	// An empty group means the global role (valid for any group).
	PermissionConfig struct {
		Kind  string `yaml:"kind"`  // sendToGroup / joinLeaveGroup
		Group string `yaml:"group"` // group scope, empty for global
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps, e.g., "UTC", default is local
		TimeFormat string `yaml:"time_format"` // time format for log timestamps, default is "2006-01-02 15:04:05"
	}
)

// Permission kinds accepted by PermissionConfig.Kind.
const (
	PermissionSendToGroup    = "sendToGroup"
	PermissionJoinLeaveGroup = "joinLeaveGroup"
)

// HubURL returns the WebSocket endpoint for the configured hub.
func (c *PubSubConfig) HubURL() string {
	return fmt.Sprintf("wss://%s/client/hubs/%s", c.Hostname, c.Hub)
}

// LoadConfig loads configuration from a YAML file with environment variable support
func LoadConfig(filename string) (*PublisherConfig, string, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfgPath := helper.GetCfgPath(filename)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, cfgPath, err
	}

	// Resolve environment variables
	data = resolveEnv(data)
	var cfg PublisherConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cfgPath, err
	}

	setDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, cfgPath, err
	}

	return &cfg, cfgPath, nil
}

// setDefaults fills in the values the YAML file may omit
func setDefaults(cfg *PublisherConfig) {
	if cfg.PubSub.Permission.Kind == "" {
		cfg.PubSub.Permission.Kind = PermissionSendToGroup
	}
	if cfg.PubSub.Permission.Group == "" {
		cfg.PubSub.Permission.Group = cfg.PubSub.Group
	}
}

// validate performs configuration validation
func validate(cfg *PublisherConfig) error {
	if cfg.PubSub.Hostname == "" {
		return fmt.Errorf("pubsub.hostname cannot be empty")
	}
	if cfg.PubSub.AccessKey == "" {
		return fmt.Errorf("pubsub.access_key cannot be empty")
	}
	if cfg.PubSub.Hub == "" {
		return fmt.Errorf("pubsub.hub cannot be empty")
	}
	if cfg.PubSub.Group == "" {
		return fmt.Errorf("pubsub.group cannot be empty")
	}
	switch cfg.PubSub.Permission.Kind {
	case PermissionSendToGroup, PermissionJoinLeaveGroup:
	default:
		return fmt.Errorf("invalid permission kind: %s", cfg.PubSub.Permission.Kind)
	}
	return nil
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
