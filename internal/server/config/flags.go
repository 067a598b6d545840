package config

import (
	"flag"
	"io"
	"time"

	"github.com/romcom/romcom-auth/internal/flagx"
)

// parseFlags applies command-line overrides.
//
//	-a string   HTTP bind address
//	-g string   gRPC bind address
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-t int      session token lifetime, hours
//	-r int      refresh token lifetime, days
//	-b string   refresh token store (postgres|redis)
//	-u string   Redis URL
//	-e string   environment (local|dev|prod)
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-b", "-u", "-e"})

	fs := flag.NewFlagSet("romcom-auth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	tokenHours := fs.Int("t", int(config.AccessTokenValidityDuration.Hours()), "session token lifetime (hours)")
	refreshDays := fs.Int("r", int(config.RefreshTokenValidityDuration.Hours()/24), "refresh token lifetime (days)")
	fs.StringVar(&config.RefreshTokenStore, "b", config.RefreshTokenStore, "refresh token store: postgres or redis")
	fs.StringVar(&config.RedisURL, "u", config.RedisURL, "Redis URL")
	fs.StringVar(&config.Env, "e", config.Env, "environment")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// durations change only when their flag is present
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*tokenHours) * time.Hour
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshDays) * 24 * time.Hour
		}
	})
	return nil
}
