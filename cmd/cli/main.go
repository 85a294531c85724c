package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/blogclient/internal/buildinfo"
	"github.com/dmitrijs2005/blogclient/internal/client/cli"
	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/client/config"
	"github.com/dmitrijs2005/blogclient/internal/client/credentials"
	"github.com/dmitrijs2005/blogclient/internal/client/services"
	"github.com/dmitrijs2005/blogclient/internal/client/session"
	"github.com/dmitrijs2005/blogclient/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	if err := run(ctx, config.LoadConfig()); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	store, err := credentials.Open(ctx, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer store.Close()

	// the SQLite and Redis backends persist cookies; memory does not
	cookies, _ := store.(client.CookieStore)
	jar, err := client.NewJar(ctx, cfg.ServerBaseURL, cookies)
	if err != nil {
		return err
	}

	httpClient, err := client.New(cfg.ServerBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithJar(jar),
		client.WithLogger(logger),
		client.WithRequestTransforms(
			client.ReloadCookies(jar, session.PathRefresh),
			client.BearerToken(credentials.TokenFunc(store)),
			client.CSRF(jar),
			client.RequestID(),
		),
		client.WithResponseHandlers(client.LogResponses(logger)),
	)
	if err != nil {
		return err
	}

	app := cli.NewApp(os.Stdin, os.Stdout, logger)

	mgr, err := session.NewManager(ctx, httpClient, store,
		session.WithLogger(logger),
		session.WithExpiredHandler(app.OnSessionExpired),
	)
	if err != nil {
		return err
	}
	app.Bind(mgr, services.NewPostService(mgr))

	logger.Debug(ctx, "client started", "server", httpClient.BaseURL(), "store", cfg.StoreDSN, "state", mgr.State())
	app.Root(ctx)
	return nil
}
