package service

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"inkwell/app/images"
	"inkwell/app/links"
	"inkwell/app/render"
	"inkwell/app/repositories"
	"inkwell/app/routes"
	"inkwell/app/services"
	"inkwell/app/storage"
	"inkwell/config"
)

// RunServer starts the blog service
func RunServer(args []string) {
	cfg, err := config.Load(args)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	store, closeStore, err := storage.Open(cfg.StoreURL)
	if err != nil {
		log.Error("failed to open store", "url", cfg.StoreURL, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()
	store = storage.WithPrefix(store, cfg.StorePrefix)

	repo := repositories.NewStorePostRepository(store, log)
	labelIndex := repositories.NewStoreLabelIndex(store, log)
	imageService := images.NewService(store, log)
	postService := services.NewPostService(
		repo,
		labelIndex,
		links.NewChecker(store),
		render.New(),
		imageService,
		log,
	)

	router := routes.Setup(postService, imageService, routes.Auth{
		User:         cfg.AuthUser,
		PasswordHash: cfg.AuthPasswordHash,
	}, log)

	log.Info("starting blog service", "addr", cfg.ListenAddr, "store", cfg.StoreURL)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
