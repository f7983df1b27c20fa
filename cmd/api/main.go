package main

import (
	"context"
	"errors"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/sirupsen/logrus"

	"tripchat/internal/chat"
	"tripchat/internal/config"
	"tripchat/internal/database"
	"tripchat/internal/logging"
	"tripchat/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}
	log := logging.New(cfg.LogLevel, cfg.Env)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DSN)
	if err != nil {
		log.WithError(err).Fatal("DB connect error")
	}

	if err := database.RunMigrations(ctx, db, os.DirFS(cfg.MigrationsDir), log); err != nil {
		log.WithError(err).Fatal("migrations error")
	}

	stores := database.NewStores(db)
	gateway := chat.NewGateway(stores.Messages, stores.Members, chat.Options{
		MaxBodyLength:     cfg.MaxBodyLength,
		AppendTimeout:     cfg.AppendTimeout,
		MembershipTimeout: cfg.MembershipTimeout,
		SendBuffer:        cfg.SendBuffer,
		PresenceEnabled:   cfg.PresenceEnabled,
	}, log)

	srv := server.NewServer(cfg, db, gateway, stores, log)
	go func() {
		if err := srv.Run(); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	// gateway first so websocket clients see a close frame, then drain HTTP, then the pool
	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"tripchat": func(ctx context.Context) error {
			gateway.Close()
			return errors.Join(srv.Shutdown(ctx), db.Close())
		},
	})
	exitCode := <-wait
	log.WithField("exit_code", exitCode).Info("shutdown complete")
	os.Exit(exitCode)
}
