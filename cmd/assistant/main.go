package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shop-assistant/config"
	"shop-assistant/internal/application"
	"shop-assistant/internal/httpapi"
	"shop-assistant/internal/infra/anthropic"
	"shop-assistant/internal/infra/audio"
	"shop-assistant/internal/infra/catalog"
	"shop-assistant/internal/infra/gemini"
	"shop-assistant/internal/infra/objectstore"
	"shop-assistant/internal/infra/openai"
	"shop-assistant/internal/infra/pushover"
	"shop-assistant/internal/infra/transcribe"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	products := catalog.Load(cfg.Catalog.Path, logger)

	model := createChatModel(cfg, logger)
	pipeline := application.NewPipeline(
		application.NewExtractor(model),
		application.NewMatcher(products),
		application.NewComposer(model),
	)

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	assistant := application.NewAssistant(
		createSTT(cfg, logger),
		openai.NewSpeechClient(cfg.OpenAI.APIKey, "", cfg.TTS.Voice),
		pipeline,
		notifier,
		logger,
	)

	logger.Info("starting shopping assistant",
		"mode", cfg.Mode,
		"products", len(products),
		"llm_provider", cfg.LLM.Provider,
		"stt_provider", cfg.STT.Provider,
	)

	if err := run(ctx, cfg, assistant, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, assistant *application.Assistant, logger *slog.Logger) error {
	switch cfg.Mode {
	case "file":
		return assistant.Run(ctx, audio.NewFileSource(cfg.Audio.FileDir, logger))
	case "microphone":
		return assistant.Run(ctx, audio.NewMicrophoneSource(cfg.Audio.SampleRate, logger))
	case "server":
		return httpapi.NewServer(assistant, logger).Run(ctx, cfg.Server.Addr)
	default:
		logger.Warn("unknown mode, using server", "mode", cfg.Mode)
		return httpapi.NewServer(assistant, logger).Run(ctx, cfg.Server.Addr)
	}
}

func createChatModel(cfg *config.Config, logger *slog.Logger) application.ChatModel {
	switch cfg.LLM.Provider {
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.LLM.Model)
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.LLM.Model)
	default:
		logger.Warn("unknown llm provider, using anthropic", "provider", cfg.LLM.Provider)
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.LLM.Model)
	}
}

func createSTT(cfg *config.Config, logger *slog.Logger) application.SpeechToText {
	switch cfg.STT.Provider {
	case "transcribe":
		store := objectstore.NewClient(
			cfg.Storage.AccessKey,
			cfg.Storage.Secret,
			cfg.Storage.Region,
			cfg.Storage.Bucket,
		)
		return transcribe.NewClient(cfg.STT.APIKey, cfg.STT.Region, cfg.STT.Language, store)
	case "whisper":
		return openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	default:
		logger.Warn("unknown stt provider, using whisper", "provider", cfg.STT.Provider)
		return openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
