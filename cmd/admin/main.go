package main

import (
	"context"
	"log"
	"os"
	"slices"

	"github.com/dmitrijs2005/sheetkeeper/internal/admin"
	"github.com/dmitrijs2005/sheetkeeper/internal/server"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/config"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
)

func main() {

	ctx := context.Background()
	args := os.Args[1:]

	cmd, _, ok := admin.SplitCommand(args)
	if !ok {
		log.Fatal(admin.ErrUsage)
	}

	// flags before the command configure the database connection
	cfg, err := config.LoadConfig(args[:slices.Index(args, cmd)])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	db, err := server.OpenDatabase(ctx, cfg.DatabaseDSN, rm)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	cmds := admin.NewCommands(services.NewUserService(db, rm, cfg), os.Stdout)
	if err := cmds.Run(ctx, args); err != nil {
		log.Printf("%v", err)
		db.Close()
		os.Exit(1)
	}

}
