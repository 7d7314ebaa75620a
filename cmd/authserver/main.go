package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"betterauth/internal/crypto"
	"betterauth/internal/devserver"
	"betterauth/internal/logging"
	"betterauth/internal/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr      string
		algorithm string
		logLevel  string
		logFile   string
		opts      devserver.Options
	)
	cmd := &cobra.Command{
		Use:          "authserver",
		Short:        "In-memory authentication server for development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.InitLog(logLevel, logFile); err != nil {
				return err
			}
			alg, err := crypto.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}
			opts.Algorithm = alg

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			opts.Metrics = metrics.New(reg)

			srv, err := devserver.New(opts)
			if err != nil {
				return err
			}
			router := srv.Router()
			router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, router, srv)
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.StringVar(&algorithm, "algorithm", string(crypto.P256), "key algorithm: p256 or ed25519")
	f.StringVar(&logLevel, "log-level", "info", "log level")
	f.StringVar(&logFile, "log-file", "console", "log file path or console")
	f.DurationVar(&opts.AccessLifetime, "access-lifetime", 15*time.Minute, "access token lifetime")
	f.DurationVar(&opts.RefreshLifetime, "refresh-lifetime", 12*time.Hour, "refresh window of a token")
	f.DurationVar(&opts.NonceLifetime, "nonce-lifetime", 30*time.Second, "request nonce and timestamp window")
	return cmd
}

func serve(ctx context.Context, addr string, h http.Handler, srv *devserver.Server) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	log.WithFields(log.Fields{
		"addr":        addr,
		"identity":    srv.Identity(),
		"fingerprint": crypto.Fingerprint(srv.ResponsePublicKey()),
	}).Info("auth server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
