package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hexboard.app/internal/config"
	"hexboard.app/internal/library"
	"hexboard.app/internal/logging"
	"hexboard.app/internal/notify"
	"hexboard.app/internal/share"
	"hexboard.app/internal/store"
	"hexboard.app/internal/transport/httpapi"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/hexboard.yaml", "config path (missing file falls back to defaults)")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		backend    = flag.String("store", "", "store backend: sqlite, file or memory (overrides config)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if v := strings.TrimSpace(*addr); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(*dataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(*backend); v != "" {
		cfg.Store.Backend = v
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	codec, err := share.NewCodec(share.Options{Compress: cfg.Share.Compress})
	if err != nil {
		logger.Fatal("share codec", zap.Error(err))
	}
	defer codec.Close()

	st, err := store.Open(cfg.Store.Backend, cfg.DataDir)
	if err != nil {
		logger.Fatal("open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer st.Close()

	var (
		hub      *notify.Hub
		notifier notify.Notifier = notify.NewLog(logger)
	)
	if cfg.EnableNotifications {
		hub = notify.NewHub(logger)
		notifier = notify.Multi{notifier, hub}
	}

	lib, err := library.New(library.Config{
		Store:    st,
		Codec:    codec,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("library", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewServer(lib, hub, cfg.Origin, logger).Handler())
	if envBool("HEXBOARD_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info("listening",
		zap.String("addr", cfg.Addr),
		zap.String("origin", cfg.Origin),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("notifications", hub != nil),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("ListenAndServe", zap.Error(err))
	}
}

// loadConfig reads the yaml file (if present) and overlays HEXBOARD_*
// environment variables.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Load("")
	}
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
