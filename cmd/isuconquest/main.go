package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/logica0419/helpisu"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hash-not-analog/isuconquest/internal/config"
	"github.com/hash-not-analog/isuconquest/internal/handler"
	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/logger"
	"github.com/hash-not-analog/isuconquest/internal/metrics"
	"github.com/hash-not-analog/isuconquest/internal/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:          "isuconquest",
		Short:        "ISUCON Quest game server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	http.DefaultTransport.(*http.Transport).MaxIdleConns = 0           // default: 100
	http.DefaultTransport.(*http.Transport).MaxIdleConnsPerHost = 1024 // default: 2

	time.Local = time.FixedZone("Local", 9*60*60)

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	// connect db
	dbx, err := repository.Connect(cfg.DB, false)
	if err != nil {
		log.Error("failed to connect to db", zap.Error(err))
		return err
	}
	defer dbx.Close()

	// id_generator はトランザクションと別の接続を使う
	idCfg := cfg.DB
	idCfg.MaxOpenConns = cfg.IDGen.MaxOpenConns
	idCfg.MaxIdleConns = cfg.IDGen.MaxOpenConns
	idDB, err := repository.Connect(idCfg, false)
	if err != nil {
		log.Error("failed to connect to id generator db", zap.Error(err))
		return err
	}
	defer idDB.Close()

	d := helpisu.NewDBDisconnectDetector(5, 80)
	d.RegisterDB(dbx.DB)
	go d.Start()

	m := metrics.New(prometheus.DefaultRegisterer)

	ids := idgen.NewCounter(idDB, cfg.IDGen.MaxAttempts)
	ids.OnRetry = m.IDRetries.Inc

	h := handler.New(repository.NewDB(dbx), ids, log, m)
	e := handler.NewServer(h, cfg.Server.AllowOrigins, prometheus.DefaultGatherer)
	e.JSONSerializer = helpisu.NewSonicSerializer()
	e.Server.Addr = cfg.Server.Addr

	errCh := make(chan error, 1)
	go func() {
		log.Info("start server", zap.String("address", e.Server.Addr))
		errCh <- e.StartServer(e.Server)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
