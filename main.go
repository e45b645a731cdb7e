// gamezone runs the guessing games either as an HTTP/WebSocket server
// ("serve", the default) or as an interactive terminal loop ("play").
//
//	gamezone [serve] [-port 5175]
//	gamezone play [-games 5]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/assets"
	"github.com/robalobadob/gamezone/internal/config"
	"github.com/robalobadob/gamezone/internal/console"
	"github.com/robalobadob/gamezone/internal/history"
	"github.com/robalobadob/gamezone/internal/httpserver"
	"github.com/robalobadob/gamezone/internal/orchestrator"
	"github.com/robalobadob/gamezone/internal/store"
	"github.com/robalobadob/gamezone/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && (args[0] == "serve" || args[0] == "play") {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameCfg, err := gameConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build game config")
	}

	switch cmd {
	case "play":
		err = play(ctx, cfg, gameCfg, args)
	default:
		err = serve(ctx, cfg, gameCfg, args)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("exited")
	}
}

func gameConfig(cfg config.Config) (orchestrator.Config, error) {
	catalog, err := words.Load(cfg.CatalogFile)
	if err != nil {
		return orchestrator.Config{}, err
	}
	sel, err := cfg.Selector()
	if err != nil {
		return orchestrator.Config{}, err
	}
	numbers := cfg.NumberRange()
	return orchestrator.Config{
		NumberRange:   &numbers,
		Catalog:       catalog,
		NewSelector:   sel,
		QuestionLimit: cfg.WordQuestionLimit,
		Interleave:    cfg.WordInterleave,
	}, nil
}

func serve(ctx context.Context, cfg config.Config, gameCfg orchestrator.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", cfg.Port, "listen port")
	_ = fs.Parse(args)

	db, err := history.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := history.Migrate(db, assets.Migrations()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	srv := httpserver.New(store.NewMemoryStore(store.WithTTL(cfg.SessionTTL)), history.NewStore(db), gameCfg, cfg)
	log.Info().Str("port", *port).Int("words", gameCfg.Catalog.Len()).Msg("starting gamezone server")
	if err := srv.Start(ctx, ":"+*port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func play(ctx context.Context, cfg config.Config, gameCfg orchestrator.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	games := fs.Int("games", cfg.MaxGames, "stop after this many completed games (0 = unlimited)")
	_ = fs.Parse(args)

	// Keep logs off stdout so they never interleave with the game transcript.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	o := orchestrator.New(store.NewMemoryStore(), gameCfg, orchestrator.Hooks{})
	n, err := console.New(o, os.Stdin, os.Stdout, *games).Run(ctx)
	log.Debug().Int("completed", n).Msg("console finished")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
