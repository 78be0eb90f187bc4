package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GastonDalla/dallatrack/internal/config"
	"github.com/GastonDalla/dallatrack/internal/mcp"
	"github.com/GastonDalla/dallatrack/internal/server"
	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/GastonDalla/dallatrack/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdio instead of HTTP")
	flag.Parse()

	logOut := os.Stdout
	if *mcpStdio {
		// stdout carries the MCP protocol in stdio mode
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("DallaTrack starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the storage backend
	ctx := context.Background()
	var store storage.Store
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := storage.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			log.Error("failed to open sqlite store", "path", cfg.Storage.Path, "error", err)
			os.Exit(1)
		}
		store = s
		log.Info("sqlite store opened", "path", cfg.Storage.Path)
	default:
		dsn := cfg.Database.DSN()
		applied, err := storage.RunMigrations(dsn, "migrations")
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		if applied {
			log.Info("migrations applied")
		} else {
			log.Info("schema up to date")
		}

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		store = db
		log.Info("database connected")
	}
	defer store.Close()

	if *mcpStdio {
		serveMCP(ctx, store, log)
		return
	}

	ctrl := session.NewController(store, store, store, log, time.Now)

	// Drive rest-timer countdowns at 1 Hz
	tickerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctrl.TickRestTimers()
			case <-tickerDone:
				return
			}
		}
	}()
	defer close(tickerDone)

	srv := server.New(store, ctrl, cfg.Auth.APIKey, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// serveMCP exposes the read-only tool surface over stdio, blocking until
// stdin closes or the process is signalled.
func serveMCP(ctx context.Context, store storage.Store, log *slog.Logger) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := mcp.New(store, Version, log)
	stdio := mcpserver.NewStdioServer(s)
	log.Info("mcp stdio server starting")
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
	log.Info("mcp server stopped")
}
