package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/kazuki11111/expiry-tracker/cmd/config"
	migration "github.com/kazuki11111/expiry-tracker/cmd/database/migrate"
	"github.com/kazuki11111/expiry-tracker/internal/utils"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run() error {
	utils.LoadConfig()

	accessLog, err := utils.SetupLogger()
	if err != nil {
		return err
	}
	defer accessLog.Close()

	db, err := config.ConnectDB()
	if err != nil {
		return err
	}
	if err := migration.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := config.NewApp(ctx, db, accessLog)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + utils.GetConfig("APP_PORT")
		log.Infow("server listening", "addr", addr)
		return application.App.Listen(addr)
	})

	g.Go(func() error {
		application.Scheduler.Start(ctx)
		<-ctx.Done()
		application.Scheduler.Stop()
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := application.Scans.SweepExpired(); n > 0 {
					log.Debugw("expired scan sessions removed", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return application.App.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
