package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/factory"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvstate"
	"github.com/vncsmyrnk/chainpoll/internal/config"
	"github.com/vncsmyrnk/chainpoll/internal/core/services"
	"github.com/vncsmyrnk/chainpoll/internal/logging"
)

// tallyaudit recounts every ballot and prints the report as JSON. It exits
// with status 1 when any stored tally disagrees with the ballots.
func main() {
	fs := config.BuildFlagSet("tallyaudit")
	timeout := fs.Duration("timeout", 0, "Abort the audit after this long (0 disables)")
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	kv, err := factory.New(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer kv.Close()

	log.Info("starting tally audit", zap.String("store", cfg.Store.Backend))
	report, err := services.NewAuditService(kvstate.New(kv), log).AuditTallies(ctx)
	if err != nil {
		log.Fatal("audit failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal("failed to write report", zap.Error(err))
	}
	if len(report.Discrepancies) > 0 {
		kv.Close()
		os.Exit(1)
	}
}
