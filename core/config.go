package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env       string // DEV (default), TEST, QA, PROD
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey []byte
		WorkDir   string
		Build     string
		FirstRun  bool

		FrontendBaseURL string
		DefaultFromName string
		DefaultFromAddr string
		SendgridApiKey  string
		RollbarToken    string
		ProfilePicsDir  string

		EmailVerificationTimeoutDelta time.Duration
		PasswordResetTimeoutDelta     time.Duration

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c ServerConfig) Address() string   { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
func (c DatabaseConfig) Address() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

// NewConfig loads configuration from the environment (and an optional
// config/.env.<env> file) on top of sane defaults. It is read once at
// process start.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Shule")
	v.SetDefault("secretKey", "pa7^2x$)5mh#@u+o9q(w3z&vgn!y*8cebk4r%sfd1jl0ti6_")
	v.SetDefault("firstRun", false)
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Shule")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("profilePicsDir", "assets/profile_pictures")
	v.SetDefault("emailVerificationTimeoutDelta", 24*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 1*time.Hour)

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "shule")
	v.SetDefault("dbUser", "shule")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbDisableTls", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	wd, _ := os.Getwd()
	return &Config{
		Env:       env,
		Debug:     v.GetBool("debug"),
		TestMode:  env == "TEST",
		AppName:   v.GetString("appName"),
		SecretKey: []byte(v.GetString("secretKey")),
		WorkDir:   wd,
		Build:     v.GetString("build"),
		FirstRun:  v.GetBool("firstRun"),

		FrontendBaseURL: v.GetString("frontendBaseUrl"),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		ProfilePicsDir:  v.GetString("profilePicsDir"),

		EmailVerificationTimeoutDelta: v.GetDuration("emailVerificationTimeoutDelta"),
		PasswordResetTimeoutDelta:     v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetInt("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
	}
}

// NewTestConfig returns a Config suitable for unit tests: fixed secret,
// short token lifetimes, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:                           "TEST",
		TestMode:                      true,
		AppName:                       "Shule",
		SecretKey:                     []byte("secret"),
		FrontendBaseURL:               "http://localhost:3000",
		DefaultFromName:               "Shule",
		DefaultFromAddr:               "noreply@localhost",
		EmailVerificationTimeoutDelta: 24 * time.Hour,
		PasswordResetTimeoutDelta:     1 * time.Hour,
		Server: ServerConfig{
			Host:                      "localhost",
			Port:                      8000,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}
