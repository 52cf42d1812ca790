package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	fileName  = ".workloadtracker"
	envPrefix = "WT"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the tracker REST API.
//   - Username: default login name, prompted for when empty.
//   - TokenFile: where the session token is kept between runs. Empty means
//     the user config dir.
//   - Timeout: per-request HTTP timeout.
type Config struct {
	ServerURL string        `mapstructure:"server_url"`
	Username  string        `mapstructure:"username"`
	TokenFile string        `mapstructure:"token_file"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Defaults are applied before any file, env or flag.
func Defaults() map[string]any {
	return map[string]any{
		"server_url": "http://localhost:3001",
		"username":   "",
		"token_file": "",
		"timeout":    30 * time.Second,
	}
}

// Load reads the configuration. configFile overrides the default file
// location; a missing default file is not an error, a missing explicit one
// is. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(fileName)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	return &c, nil
}

// bindFlags binds each flag under its snake_case key, so --server-url
// overrides server_url.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// TokenPath resolves where the session token lives.
func (c *Config) TokenPath() (string, error) {
	if c.TokenFile != "" {
		return c.TokenFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workloadtracker", "token"), nil
}
