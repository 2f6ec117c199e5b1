// Package config loads the javango configuration from an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/gitm/javango/internal/logging"
	"github.com/gitm/javango/internal/sqlsource"
)

// EnvPrefix prefixes environment overrides: JAVANGO_DATABASE_HOST sets
// database.host.
const EnvPrefix = "JAVANGO_"

// Config is the complete configuration.
type Config struct {
	Database sqlsource.Config `mapstructure:"database"`
	Log      logging.Config   `mapstructure:"log"`

	// Models is a CUE file or directory of model declarations. Empty
	// means the built-in Books model only.
	Models string `mapstructure:"models"`
}

// rdsFallbacks maps the hosting platform's connection variables to keys.
// They apply only when neither the file nor a JAVANGO_ variable sets the key.
var rdsFallbacks = map[string]string{
	"RDS_HOSTNAME": "database.host",
	"RDS_PORT":     "database.port",
	"RDS_USERNAME": "database.user",
	"RDS_PASSWORD": "database.password",
	"RDS_DB_NAME":  "database.name",
}

// Load reads path (if non-empty) and then applies environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("database.driver", sqlsource.DriverMySQL)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key, value := pair[0], pair[1]
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		propKey := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, EnvPrefix), "_", "."))
		v.Set(strings.TrimPrefix(propKey, "."), value)
	}

	for env, key := range rdsFallbacks {
		if value, ok := os.LookupEnv(env); ok && !v.IsSet(key) {
			v.Set(key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
