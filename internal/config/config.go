package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath      = "./dev.db"
	defaultPort        = "8080"
	defaultEnv         = "dev"
	defaultCompanyName = "MoveQuote"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	PDFFontPath   string
	CompanyName   string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	return load(".env")
}

func load(dotenvPath string) Config {
	// Missing .env is fine; godotenv never overrides variables already set.
	if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load %s: %v", dotenvPath, err)
	}

	cfg := Config{
		Env:           strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		PDFFontPath:   os.Getenv("PDF_FONT_PATH"),
		CompanyName:   os.Getenv("COMPANY_NAME"),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = defaultCompanyName
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the application runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}
