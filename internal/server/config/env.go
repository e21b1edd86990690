package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SHEETKEEPER_"

// parseEnv overlays environment variables onto config. DATABASE_URL is
// honoured when SHEETKEEPER_DATABASE_DSN is unset, as most PaaS set it.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	if v, ok := get("ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := get("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	} else if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := get("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		config.LogFormat = v
	}
	if v, ok := get("LOG_BACKEND"); ok {
		config.LogBackend = v
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := get("BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBCRYPT_COST: %w", EnvPrefix, err)
		}
		config.BcryptCost = n
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration},
		{"READ_TIMEOUT", &config.ReadTimeout},
		{"WRITE_TIMEOUT", &config.WriteTimeout},
		{"SHUTDOWN_TIMEOUT", &config.ShutdownTimeout},
	}
	for _, d := range durations {
		v, ok := get(d.name)
		if !ok {
			continue
		}
		p, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
		}
		*d.dst = p
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
