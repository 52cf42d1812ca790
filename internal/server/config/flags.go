package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/flagx"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3001")
//	-t string   database type, sqlite or mysql
//	-p string   SQLite file path
//	-s string   JWT HMAC secret key
//	-e int      token lifetime, minutes
//
// args are filtered with flagx.FilterArgs first so that -c and any flags
// owned by other components do not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-p", "-s", "-e"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	dbType := string(cfg.Database.Type)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&dbType, "t", dbType, "database type (sqlite|mysql)")
	fs.StringVar(&cfg.Database.Path, "p", cfg.Database.Path, "sqlite database path")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "secret key")
	lifetime := fs.Int("e", int(cfg.JWTExpiresIn.Minutes()), "token lifetime (in minutes)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Database.Type = database.Kind(dbType)

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "e" {
			explicit = true
		}
	})
	if explicit {
		cfg.JWTExpiresIn = time.Duration(*lifetime) * time.Minute
	}
	return nil
}
