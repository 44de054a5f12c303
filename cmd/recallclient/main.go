package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"recall/internal/app"
	"recall/internal/config"
	"recall/internal/ports/nakama"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	logger := nakama.NewConsoleLogger(os.Getenv("RECALL_DEBUG") != "")

	cfgPath := os.Getenv("RECALL_CONFIG")
	if cfgPath == "" {
		cfgPath = "data/client_config.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config: %v", err)
		os.Exit(1)
	}

	token := os.Getenv("RECALL_SESSION_TOKEN")
	if token == "" {
		logger.Error("RECALL_SESSION_TOKEN is required")
		os.Exit(1)
	}
	identity, err := nakama.NewSessionIdentity(token)
	if err != nil {
		logger.Error("failed to parse session token: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	economy := nakama.NewRPCEconomy(cfg.ServerURL, token, nil)
	socket := nakama.NewSocket(logger, cfg.SocketURL, token)
	if err := socket.Connect(ctx); err != nil {
		logger.Error("failed to connect: %v", err)
		os.Exit(1)
	}

	core := app.New(logger, cfg, economy, identity, socket)
	defer core.Close()

	unsubscribe := core.OnChange(app.ModuleRecallGame, func(module string) {
		doc := core.GetDocument(module)
		if raw, err := json.Marshal(doc); err == nil {
			logger.Debug("game state changed: %s", raw)
		}
	})
	defer unsubscribe()

	if matchID := os.Getenv("RECALL_MATCH_ID"); matchID != "" {
		if err := socket.JoinMatch(ctx, matchID); err != nil {
			logger.Error("failed to join match %s: %v", matchID, err)
			os.Exit(1)
		}
	}

	logger.Info("connected as %s, waiting for events", identity.Identity().AccountID)
	if err := core.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("event loop ended: %v", err)
		os.Exit(1)
	}
}
