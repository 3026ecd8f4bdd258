// Package config loads server configuration with viper. Precedence:
// command-line flags > INVENTAR_* environment variables > config file >
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config keys. Flag names and file keys are identical; env vars replace
// dashes with underscores (e.g. INVENTAR_UPLOAD_DIR).
const (
	KeyAddr       = "addr"
	KeyDBPath     = "db"
	KeyJWTSecret  = "jwt-secret"
	KeyTokenTTL   = "token-ttl"
	KeyUploadDir  = "upload-dir"
	KeyBcryptCost = "bcrypt-cost"
	KeyLogPath    = "log"
)

// Config is the fully resolved server configuration.
type Config struct {
	Addr       string        // listen address
	DBPath     string        // SQLite database file
	JWTSecret  string        // signing secret; empty means use the persisted one
	TokenTTL   time.Duration // bearer token lifetime
	UploadDir  string        // content area for uploaded images
	BcryptCost int           // 0 means the bcrypt default
	LogPath    string        // optional log file
}

// Load resolves configuration from defaults, an optional config file
// (inventar.yaml in the working directory, or the explicit file given),
// environment variables and the provided flag set.
func Load(flags *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyDBPath, "inventar.sqlite3")
	v.SetDefault(KeyJWTSecret, "")
	v.SetDefault(KeyTokenTTL, 30*time.Minute)
	v.SetDefault(KeyUploadDir, "uploads")
	v.SetDefault(KeyBcryptCost, 0)
	v.SetDefault(KeyLogPath, "")

	v.SetEnvPrefix("INVENTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("inventar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	return &Config{
		Addr:       v.GetString(KeyAddr),
		DBPath:     v.GetString(KeyDBPath),
		JWTSecret:  v.GetString(KeyJWTSecret),
		TokenTTL:   v.GetDuration(KeyTokenTTL),
		UploadDir:  v.GetString(KeyUploadDir),
		BcryptCost: v.GetInt(KeyBcryptCost),
		LogPath:    v.GetString(KeyLogPath),
	}, nil
}
