package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jbkun069/AnimeChatCraft/cfg"
	"github.com/jbkun069/AnimeChatCraft/internal/app/api"
	"github.com/jbkun069/AnimeChatCraft/internal/app/chat"
	"github.com/jbkun069/AnimeChatCraft/pkg/charstore"
	"github.com/jbkun069/AnimeChatCraft/pkg/llm"
	"github.com/jbkun069/AnimeChatCraft/pkg/prompt"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "cfg-path", "cfg/cfg.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", "err", err)
	}

	cfg, err := cfg.Load(cfgPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	llm.RegisterMetrics(reg)
	charstore.RegisterMetrics(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	defer initCancel()

	store, err := charstore.Open(initCtx, &cfg.Store)
	if err != nil {
		log.Fatal("failed to open character store: ", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}

	provider, err := llm.New(initCtx, &cfg.LLM, httpClient)
	if err != nil {
		log.Fatal("failed to init llm provider: ", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	chatSvc := chat.New(logger.WithGroup("chat"), prompt.New(&cfg.Prompt), provider)

	api := api.NewAPI(&cfg.Api, logger.WithGroup("api"), store, chatSvc, reg)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Api.Port),
		Handler:           api.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		logger.Info("Starting server", "addr", srv.Addr, "store", cfg.Store.Backend, "llm", cfg.LLM.Provider)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ListenAndServe finished", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server", "err", err)
	}

	wg.Wait()
}
