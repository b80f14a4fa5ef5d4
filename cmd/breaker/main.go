package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/breaker"
	"main/internal/ledger"
	"main/internal/ops"
	"main/pkg/conn"
)

// The breaker is advisory: any internal failure exits non-zero so the
// scheduler alerts, but admission keeps running regardless.
func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	interval := flag.Duration("interval", 0, "Re-check interval (0=one shot)")
	upgrade := flag.Bool("upgrade", false, "Move an ACTIVE flag to RECOVERY instead of checking")
	flag.Parse()

	if err := run(context.Background(), *configPath, *interval, *upgrade); err != nil {
		log.Printf("breaker: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, interval time.Duration, upgrade bool) error {
	cfg, err := ops.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	st, err := cfg.BuildStore()
	if err != nil {
		return fmt.Errorf("store build failed: %w", err)
	}

	var led ledger.Ledger = ledger.NewMemory()
	if cfg.Ledger.Database != "" {
		client, err := conn.New(conn.Option{
			Host:     cfg.Ledger.Host,
			Port:     cfg.Ledger.Port,
			User:     cfg.Ledger.User,
			Password: cfg.Ledger.Password,
			Database: cfg.Ledger.Database,
			SSLMode:  cfg.Ledger.SSLMode,
		})
		if err != nil {
			return fmt.Errorf("ledger connect failed: %w", err)
		}
		defer client.Close()
		led = ledger.NewPostgres(client.DB())
	}

	brk := breaker.New(st, led, cfg.Breaker)

	if upgrade {
		moved, err := brk.Upgrade(ctx)
		if err != nil {
			return err
		}
		if moved {
			logs.Info("flag upgraded to RECOVERY")
		} else {
			logs.Info("no ACTIVE flag to upgrade")
		}
		return nil
	}

	if err := brk.Check(ctx); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ticker.C:
			if err := brk.Check(ctx); err != nil {
				return err
			}
		}
	}
}
