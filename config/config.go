package config

import (
	"flag"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Config struct {
		App       App
		Server    Server
		Shortener Shortener
		Elastic   Elastic
		Quota     Quota
		Log       Log
	}
	App struct {
		AuthSecret      string `env:"AUTH_SECRET"`
		ShutdownTimeout time.Duration
	}
	Server struct {
		Addr string `env:"SERVER_ADDRESS"`
	}
	Shortener struct {
		BaseURL         string `env:"BASE_URL"`
		SlugLength      int    `env:"SLUG_LENGTH"`
		SlugMaxAttempts int
		CreateRetries   int
	}
	Elastic struct {
		Addresses []string `env:"ELASTIC_ADDRESSES" envSeparator:","`
		Index     string   `env:"ELASTIC_INDEX"`
		Timeout   time.Duration
	}
	Quota struct {
		RedisAddr     string        `env:"REDIS_ADDRESS"`
		RedisPassword string        `env:"REDIS_PASSWORD"`
		CreateLimit   int           `env:"QUOTA_CREATE_LIMIT"`
		Window        time.Duration `env:"QUOTA_WINDOW"`
		Timeout       time.Duration
	}
	Log struct {
		Level  string `env:"LOG_LEVEL"`
		Pretty bool   `env:"LOG_PRETTY"`
	}
)

func Load() (*Config, error) {
	cfg := &Config{
		App: App{
			ShutdownTimeout: time.Second * 3,
		},
		Shortener: Shortener{
			SlugLength:      7,
			SlugMaxAttempts: 5,
			CreateRetries:   2,
		},
		Elastic: Elastic{
			Index:   "links",
			Timeout: time.Second * 2,
		},
		Quota: Quota{
			CreateLimit: 100,
			Window:      time.Hour,
			Timeout:     time.Second * 2,
		},
		Log: Log{
			Level: "info",
		},
	}

	var elasticAddr string

	flag.StringVar(&cfg.Server.Addr, "a", ":8080", "server address")
	flag.StringVar(&cfg.Shortener.BaseURL, "b", "http://localhost:8080", "short URL base, used when the request carries no host")
	flag.StringVar(&elasticAddr, "e", "http://localhost:9200", "elasticsearch address")
	flag.StringVar(&cfg.Quota.RedisAddr, "r", "localhost:6379", "redis address for the usage guard")
	flag.StringVar(&cfg.App.AuthSecret, "s", "0123456789abcdef0123456789abcdef", "secret for caller cookie encryption")
	flag.Parse()

	cfg.Elastic.Addresses = []string{elasticAddr}

	// Env vars take priority
	err := env.Parse(cfg)

	return cfg, err
}
