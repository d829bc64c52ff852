package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/event"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/factory"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvstate"
	"github.com/vncsmyrnk/chainpoll/internal/config"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
	"github.com/vncsmyrnk/chainpoll/internal/core/services"
	"github.com/vncsmyrnk/chainpoll/internal/logging"
	"github.com/vncsmyrnk/chainpoll/internal/metrics"
)

func main() {
	cfg, err := config.Load(config.BuildFlagSet("server"), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := factory.New(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer kv.Close()
	store := kvstate.New(kv)

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		publisher = event.NewLogPublisher(log)
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.MetricsNamespace, reg)

	handler := http.NewHandler(
		http.NewInstanceHandler(services.NewInstanceService(store, publisher, m, log), log),
		http.NewPollHandler(services.NewPollService(store, publisher, m, log), log),
		http.NewVoteHandler(services.NewVoteService(store, publisher, m, log), log),
		http.RouterConfig{
			Auth:    http.NewAuthenticator([]byte(cfg.JWTSecret)),
			Log:     log,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		},
	)
	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("gracefully shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
