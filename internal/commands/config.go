package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ToolConfig holds user-level petrel preferences, read from the user config
// directory with PETREL_* environment overrides. Everything is optional.
type ToolConfig struct {
	DefaultTemplate string // template used by 'petrel new' when --template is omitted
	DiffLines       int    // per-file diff preview cap (0 keeps the built-in default)
}

// LoadToolConfig reads $XDG_CONFIG_HOME/petrel/config.yml (or the platform
// equivalent). A missing file yields zero-valued defaults.
func LoadToolConfig() (*ToolConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "petrel"))
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PETREL")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	return &ToolConfig{
		DefaultTemplate: v.GetString("default_template"),
		DiffLines:       v.GetInt("diff_lines"),
	}, nil
}
