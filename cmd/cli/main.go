package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sheetkeeper/internal/client/api"
	"github.com/dmitrijs2005/sheetkeeper/internal/client/cli"
	"github.com/dmitrijs2005/sheetkeeper/internal/client/config"
	"github.com/dmitrijs2005/sheetkeeper/internal/client/session"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	store, err := session.Open(ctx, cfg.SessionPath)
	if err != nil {
		return err
	}
	defer store.Close()

	app := cli.NewApp(api.New(cfg.ServerURL, cfg.Timeout), store, cfg.Token, os.Stdin, os.Stdout)
	return app.Run(ctx, args)
}
