// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configDir = pflag.String("config", ".", "Directory containing config.toml")
	envFile   = pflag.String("env", ".env", "Env file loaded before the config")

	validLogLevels       = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes    = []string{"s3", "local"}
	validDatabaseTypes   = []string{"sqlite", "postgres"}
	validSessionStores   = []string{"db", "redis", "memory"}
	validClassifierTypes = []string{"mock", "remote"}
)

// ErrNoSecret is returned by Load when session.secret isn't set
var ErrNoSecret = errors.New("no session secret set")

var defaults = map[string]any{
	"app.log_level": "info",

	"host.port":                     8080,
	"host.domain":                   "localhost",
	"host.cors":                     []string{"http://localhost:5173"},
	"host.ssl.enabled":              false,
	"host.ssl.certificate_path":     "",
	"host.ssl.certificate_key_path": "",

	"database.type": "sqlite",
	"database.dsn":  "unmask.db",

	"session.secret": "",
	"session.store":  "db",
	"session.ttl":    "168h",
	"redis.url":      "redis://localhost:6379/0",

	"storage.type":                 "local",
	"storage.local_dir":            "uploads",
	"storage.s3.bucket":            "",
	"storage.s3.region":            "",
	"storage.s3.endpoint":          "",
	"storage.s3.access_key":        "",
	"storage.s3.secret_access_key": "",

	"cloudflare.account_id":             "",
	"cloudflare.turnstile.enabled":      false,
	"cloudflare.turnstile.secret_token": "",

	"upload.max_size":      10,
	"upload.allowed_types": []string{"png", "jpg", "jpeg"},

	"mail.enabled":  false,
	"mail.host":     "",
	"mail.port":     587,
	"mail.username": "",
	"mail.password": "",
	"mail.sender":   "",

	"classifier.type":     "mock",
	"classifier.url":      "",
	"classifier.labels":   []string{},
	"classifier.timeout":  "30s",
	"classifier.workers":  2,
	"classifier.max_jobs": 16,

	"guest.max_detections": 2,
	"codes.ttl":            "15m",

	"security.rate_limit": 10,

	"cleanup.schedule":        "@hourly",
	"cleanup.guest_retention": "720h",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	err := Load(*configDir, *envFile)
	if errors.Is(err, ErrNoSecret) {
		fmt.Println("WARNING: You haven't set a session secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random session secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

// Load reads dir/config.toml, if present, and the env file into the global
// viper instance and validates the result. Env vars are named after the key
// in upper case with dots replaced by underscores (SESSION_SECRET)
func Load(dir, env string) error {
	if env != "" {
		if err := godotenv.Load(env); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s, %w", env, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	for key, val := range defaults {
		v.SetDefault(key, val)
		v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if err := validate(); err != nil {
		return err
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDatabaseTypes, v.GetString("database.type")) {
		return errors.New("invalid database type provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetString("session.secret") == "" {
		return ErrNoSecret
	}

	if !slices.Contains(validSessionStores, v.GetString("session.store")) {
		return errors.New("invalid session store provided")
	}

	for _, key := range []string{"session.ttl", "codes.ttl", "classifier.timeout", "cleanup.guest_retention"} {
		if _, err := time.ParseDuration(v.GetString(key)); err != nil {
			return fmt.Errorf("%s is not a valid duration, %w", key, err)
		}
	}

	if v.GetDuration("session.ttl") <= 0 || v.GetDuration("codes.ttl") <= 0 {
		return errors.New("session.ttl and codes.ttl must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("storage.s3.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("storage.s3.access_key") == "" {
			return errors.New("access key can't be empty")
		}
		if v.GetString("storage.s3.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("storage.s3.region") == "" && v.GetString("storage.s3.endpoint") == "" && v.GetString("cloudflare.account_id") == "" {
			return errors.New("one of storage.s3.region, storage.s3.endpoint or cloudflare.account_id is required")
		}
	case "local":
		if v.GetString("storage.local_dir") == "" {
			return errors.New("storage.local_dir can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("max upload size must be bigger than 0")
	}

	if len(v.GetStringSlice("upload.allowed_types")) == 0 {
		return errors.New("upload.allowed_types can't be empty")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" || v.GetString("mail.sender") == "" {
			return errors.New("mail.host and mail.sender are required when mail is enabled")
		}
	}

	if !slices.Contains(validClassifierTypes, v.GetString("classifier.type")) {
		return errors.New("invalid classifier type provided")
	}

	if v.GetString("classifier.type") == "remote" && v.GetString("classifier.url") == "" {
		return errors.New("classifier.url is required for the remote classifier")
	}

	if v.GetInt("classifier.workers") <= 0 {
		return errors.New("classifier.workers must be bigger than 0")
	}

	if v.GetInt("guest.max_detections") <= 0 {
		return errors.New("guest.max_detections must be bigger than 0")
	}

	if v.GetBool("cloudflare.turnstile.enabled") && v.GetString("cloudflare.turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}
