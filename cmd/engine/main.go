package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"

	"firechat/internal/config"
	"firechat/internal/engine"
	"firechat/internal/handlers"
	"firechat/internal/middleware"
	"firechat/internal/storage"
	"firechat/internal/utils"
	"firechat/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	docs, err := storage.NewMongo(cfg.Store.URI, cfg.Store.Name)
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		docs.Close(ctx)
	}()

	var blobs storage.BlobStore
	if cfg.Blob.UploadURL != "" {
		blobs = storage.NewHTTPBlobStore(cfg.Blob.UploadURL, cfg.Blob.Preset)
	} else {
		slog.Warn("BLOB_UPLOAD_URL not set, media uploads go to the in-memory blob store")
		blobs = storage.NewMemoryBlobs()
	}

	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()

	hub := websocket.NewHub()
	go hub.Run()

	eng := engine.NewEngine(system, docs, blobs, metrics)
	eng.SetSnapshotSink(hub)
	eng.SetPresenceNotifier(hub)
	eng.SetTypingTimeout(cfg.TypingTimeout)

	server := handlers.NewServer(system, eng, docs, hub, metrics)
	router := server.Routes()

	cors := middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("Starting firechat engine", "addr", serverAddr, "db", cfg.Store.Name)
	if err := http.ListenAndServe(serverAddr, cors(router)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
