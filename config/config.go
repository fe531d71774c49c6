package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	API      API
}

type API struct {
	Debug             bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout           time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	HistoricalTimeout time.Duration `env:"API_HISTORICAL_TIMEOUT" envDefault:"1000s"`
	NseApi            NseApi
}

type NseApi struct {
	Url        string `env:"NSE_API_URL" envDefault:"https://www.nseindia.com"`
	WarmupPath string `env:"NSE_API_WARMUP_PATH" envDefault:"/market-data/live-equity-market"`
	UserAgent  string `env:"NSE_API_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.82 Safari/537.36 Edg/93.0.961.52"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
