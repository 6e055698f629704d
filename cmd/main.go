package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"meetpoll/cmd/buildCFG"
	"meetpoll/cmd/middleware"
	"meetpoll/internal/api/api"
	rabbitReader "meetpoll/internal/consumerWorker"
	"meetpoll/internal/mailer"
	"meetpoll/internal/rabbit"
	"meetpoll/internal/repo"
	"meetpoll/internal/service"
)

const envPrefix = "MEETPOLL"

func main() {
	zlog.Init()
	log := zlog.Logger

	app := &cli.App{
		Name:  "meetpoll",
		Usage: "Find a meeting time everyone can make.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the YAML config"},
			&cli.StringFlag{Name: "env", Value: "", Usage: "optional .env file"},
		},
		Commands: []*cli.Command{
			serveCommand(&log),
			migrateCommand(&log),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("meetpoll failed")
	}
}

func loadConfig(c *cli.Context) (buildCFG.Source, error) {
	cfg := config.New()
	if err := cfg.Load(c.String("config"), c.String("env"), envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func serveCommand(log *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return serve(cfg, log)
		},
	}
}

func migrateCommand(log *zerolog.Logger) *cli.Command {
	run := func(up bool) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			dbCfg, err := buildCFG.BuildDBConfig(cfg, log)
			if err != nil {
				return err
			}
			if up {
				return repo.MigrateUp(dbCfg.MasterDSN, dbCfg.MigrationsDir, log)
			}
			return repo.MigrateDown(dbCfg.MasterDSN, dbCfg.MigrationsDir, log)
		}
	}
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back the Postgres schema",
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "apply pending migrations", Action: run(true)},
			{Name: "down", Usage: "roll back all migrations", Action: run(false)},
		},
	}
}

func serve(cfg buildCFG.Source, log *zerolog.Logger) error {
	serverCfg, err := buildCFG.BuildServerConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, closeRepo, err := openRepository(serverCfg.Driver, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, log)
	if err != nil {
		return err
	}
	mailCfg, err := buildCFG.BuildMailConfig(cfg, log)
	if err != nil {
		return err
	}

	var notifier service.Notifier
	var rmq *rabbit.Client
	if rabbitCfg.Enabled {
		rmq, err = rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer rmq.Close()
		notifier = rmq
	}

	serviceInstance := service.NewService(repository, log, notifier)

	if rmq != nil {
		mail := mailer.New(mailer.Config{
			Host:     mailCfg.Host,
			Port:     mailCfg.Port,
			Username: mailCfg.Username,
			Password: mailCfg.Password,
			From:     mailCfg.From,
		}, log)
		reader := rabbitReader.NewReader(rmq, serviceInstance, mail, serverCfg.ShareBaseURL)
		reader.Start(ctx)
		defer reader.Stop()
	}

	var limiter *middleware.RateLimiter
	if serverCfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(ctx, serverCfg.RateLimitRPS, serverCfg.RateLimitBurst)
	}

	app := api.NewRouters(&api.Routers{
		Service:      serviceInstance,
		Limiter:      limiter,
		Ping:         repository.Ping,
		ShareBaseURL: serverCfg.ShareBaseURL,
		Mode:         serverCfg.Mode,
	})

	srv := &http.Server{
		Addr:    ":" + serverCfg.Port,
		Handler: app,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

func openRepository(driver string, cfg buildCFG.Source, log *zerolog.Logger) (repo.Repository, func(), error) {
	if driver == buildCFG.DriverMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return repo.NewMemory(), func() {}, nil
	}

	dbCfg, err := buildCFG.BuildDBConfig(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build DB config: %w", err)
	}
	db, err := dbpg.New(dbCfg.MasterDSN, dbCfg.SlaveDSNs, dbCfg.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	closeDB := func() { _ = db.Master.Close() }

	if err := repo.MigrateUp(dbCfg.MasterDSN, dbCfg.MigrationsDir, log); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	repository, err := repo.NewRepository(db, log)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	log.Info().Msg("Database connected successfully")
	return repository, closeDB, nil
}
