package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/employee-directory/internal/adapters/cli"
	"github.com/ogurasousui/employee-directory/internal/adapters/repository/file"
	"github.com/ogurasousui/employee-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/platform/config"
	pg "github.com/ogurasousui/employee-directory/internal/platform/db/postgres"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := cli.NewCommandline(openBackend)
	err := cl.Command().ExecuteContext(ctx)
	cl.Close()
	if err != nil {
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*cli.Backend, error) {
	storeLog := log.With().Str("driver", cfg.Storage.Driver).Str("key", cfg.Storage.Key).Logger()

	switch cfg.Storage.Driver {
	case config.DriverFile:
		slot := file.NewSlotRepository(cfg.Storage.File.Dir, cfg.Storage.Key, cfg.Storage.MaxBytes)
		storeLog.Debug().Str("path", slot.Path()).Msg("using file slot")
		return &cli.Backend{Store: employee.NewStore(slot, employee.WithLogger(storeLog))}, nil

	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		slot := postgres.NewSlotRepository(pool, pg.NewRunner(pool), cfg.Storage.Key, cfg.Storage.MaxBytes)
		storeLog.Debug().Str("host", cfg.Database.Host).Msg("using postgres slot")
		return &cli.Backend{
			Store: employee.NewStore(slot, employee.WithLogger(storeLog)),
			Close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
