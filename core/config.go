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

type Config struct {
	AppName string
	Env     string // DEV (default), TEST, QA, PROD
	Debug   bool
	Build   string

	// remote JuaLearn REST API
	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Server struct {
		Host    string
		Address string
	}

	Session struct {
		CookieName string
		CookieTTL  time.Duration
	}

	// local durable store (tokens, identity, theme)
	StorePath string

	DefaultTheme string

	RollbarToken string
}

func (c Config) IsProd() bool { return c.Env == "PROD" }
func (c Config) IsTest() bool { return c.Env == "TEST" }

// NewConfig loads the app configuration from the environment,
// optionally seeded by a config/.env.<env> file.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "JuaLearn")
	conf.SetDefault("build", "dev")
	conf.SetDefault("apiBaseUrl", "https://jua-lern.onrender.com/api/")
	conf.SetDefault("apiTimeout", 30*time.Second)
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":8080")
	conf.SetDefault("sessionCookieName", "jualearn_session")
	conf.SetDefault("sessionCookieTtl", 4*time.Hour)
	conf.SetDefault("storePath", filepath.Join(os.TempDir(), "jualearn", "local.db"))
	conf.SetDefault("defaultTheme", "light")
	conf.SetDefault("rollbarToken", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "PROD", "QA":
		conf.SetDefault("debug", false)
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

	cfg := &Config{
		AppName:      conf.GetString("appName"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		Build:        conf.GetString("build"),
		StorePath:    conf.GetString("storePath"),
		DefaultTheme: conf.GetString("defaultTheme"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
	cfg.API.BaseURL = conf.GetString("apiBaseUrl")
	cfg.API.Timeout = conf.GetDuration("apiTimeout")
	cfg.Server.Host = conf.GetString("serverHost")
	cfg.Server.Address = conf.GetString("serverAddress")
	cfg.Session.CookieName = conf.GetString("sessionCookieName")
	cfg.Session.CookieTTL = conf.GetDuration("sessionCookieTtl")
	return cfg
}
