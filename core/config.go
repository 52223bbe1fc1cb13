package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// Config holds all the application settings. It is constructed once in main
	// and passed by reference to every component that needs it.
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string // DEV (local; default), TEST, QA, PROD
		AppName      string
		SecretKey    string
		Build        string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		// primary MySQL backend
		Host     string
		Port     int
		User     string
		Password string
		Name     string

		// embedded SQLite fallback
		SQLitePath string

		PoolSize        int
		ConnMaxLifetime time.Duration

		// seeded administrator identity
		AdminUsername string
		AdminPassword string
	}
)

// NewConfig loads the configuration from the environment, with an optional
// .env.<env> file under config/ taking lower precedence than real env vars.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Madrasa")
	conf.SetDefault("secretKey", "x$+2m(ch00l&-s3cr3t-k3y-ch@ng3-m3!)qpz8#")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":1111")
	conf.SetDefault("shutdownTimeout", 20*time.Second)
	conf.SetDefault("jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 3306)
	conf.SetDefault("dbUser", "root")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbName", "school_db")
	conf.SetDefault("sqlitePath", filepath.Join(Getwd(), "school.db"))
	conf.SetDefault("dbPoolSize", 10)
	conf.SetDefault("dbConnMaxLifetime", 5*time.Minute)
	conf.SetDefault("adminUsername", "admin")
	conf.SetDefault("adminPassword", "admin123")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("build", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:        conf.GetBool("debug"),
		TestMode:     testMode,
		Env:          env,
		AppName:      conf.GetString("appName"),
		SecretKey:    conf.GetString("secretKey"),
		Build:        conf.GetString("build"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Address:                   conf.GetString("serverAddress"),
			ShutdownTimeout:           conf.GetDuration("shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Host:            conf.GetString("dbHost"),
			Port:            conf.GetInt("dbPort"),
			User:            conf.GetString("dbUser"),
			Password:        conf.GetString("dbPassword"),
			Name:            conf.GetString("dbName"),
			SQLitePath:      conf.GetString("sqlitePath"),
			PoolSize:        conf.GetInt("dbPoolSize"),
			ConnMaxLifetime: conf.GetDuration("dbConnMaxLifetime"),
			AdminUsername:   conf.GetString("adminUsername"),
			AdminPassword:   conf.GetString("adminPassword"),
		},
	}
}
