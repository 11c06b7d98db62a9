package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
}

// ParseFlags reads configuration from command-line flags, with a .env file
// (if present) supplying defaults through the environment.
func ParseFlags() (cfg Config, err error) {
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("SURVEY_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUintOr("SURVEY_PORT", 8080), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("SURVEY_DB_URL", "survey.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", envOr("SURVEY_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUintOr("SURVEY_TOKEN_TTL", 1200), "access token TTL in seconds")
	flag.BoolVar(&cfg.Debug, "debug", os.Getenv("SURVEY_DEBUG") != "", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
