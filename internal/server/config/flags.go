package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/flagx"
)

// serverFlags are the flags parseFlags understands; everything else in args
// belongs to someone else (the config file flag, admin subcommands).
var serverFlags = []string{"-a", "-d", "-s", "-t", "-l", "-f", "-g", "-o"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-l string   log level
//	-f string   log format (json|text)
//	-g string   log backend (slog|logrus)
//	-o string   comma-separated CORS origins
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.LogBackend, "g", config.LogBackend, "log backend")
	origins := fs.String("o", "", "CORS allowed origins, comma-separated")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
		case "o":
			config.CORSAllowedOrigins = splitList(*origins)
		}
	})
	return nil
}
