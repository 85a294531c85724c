package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/flagx"
)

// parseFlags populates Config from command-line flags:
//
//	-a string   base URL of the blog API
//	-t int      request timeout in seconds; overrides env/JSON only when given
//	-s string   session store: "memory", redis://host:port/db or a file path
//	-l string   log level (debug, info, warn, error)
//	-f string   log format (text, json, console)
//
// os.Args is filtered with flagx.FilterArgs so that -c/-config and unknown
// flags do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-s", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the blog API")
	timeout := fs.Int("t", 0, "request timeout (in seconds)")
	fs.StringVar(&cfg.StoreDSN, "s", cfg.StoreDSN, "session store")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// earlier layers may carry sub-second timeouts; only an explicit -t wins
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
