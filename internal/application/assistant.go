package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shop-assistant/internal/domain"
)

// Exchange is the outcome of one full voice interaction.
type Exchange struct {
	InputText     string
	ResponseText  string
	ResponseAudio []byte // nil when synthesis failed or no synthesizer is configured
	CallLog       []string
}

type Assistant struct {
	stt      SpeechToText
	tts      SpeechSynthesizer
	pipeline *Pipeline
	notifier Notifier
	logger   *slog.Logger
}

func NewAssistant(
	stt SpeechToText,
	tts SpeechSynthesizer,
	pipeline *Pipeline,
	notifier Notifier,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		stt:      stt,
		tts:      tts,
		pipeline: pipeline,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle runs one full exchange: transcription, pipeline, synthesis.
// Transcription failures and empty transcripts are returned to the caller;
// synthesis failures degrade to a text-only exchange.
func (a *Assistant) Handle(ctx context.Context, audio []byte, format string) (*Exchange, error) {
	var text string

	if directText, isText := isTextCommand(audio); isText {
		a.logger.Info("received text command directly", "text", directText)
		text = directText
	} else {
		a.logger.Info("received audio", "bytes", len(audio), "format", format)

		transcribed, err := a.stt.Transcribe(ctx, audio, format)
		if err != nil {
			return nil, fmt.Errorf("transcribing: %w", err)
		}

		text = strings.TrimSpace(transcribed)
		a.logger.Info("transcribed", "text", text)
	}

	if text == "" {
		return nil, fmt.Errorf("transcription returned empty text")
	}

	return a.respond(ctx, text), nil
}

// HandleText runs the pipeline for an utterance that needs no transcription.
func (a *Assistant) HandleText(ctx context.Context, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	return a.respond(ctx, text), nil
}

func (a *Assistant) respond(ctx context.Context, text string) *Exchange {
	state := a.pipeline.Run(ctx, text)

	a.logger.Info("pipeline finished",
		"intent", state.Intent,
		"results", len(state.CatalogResults),
	)

	responseAudio, err := a.tts.Synthesize(ctx, state.FinalResponse)
	if err != nil {
		a.logger.Error("synthesizing reply", "error", err)
		responseAudio = nil
	}

	return &Exchange{
		InputText:     text,
		ResponseText:  state.FinalResponse,
		ResponseAudio: responseAudio,
		CallLog:       state.CallLog,
	}
}

// Run consumes utterances from a local audio source until the context is
// cancelled. Replies are logged and pushed through the notifier; response
// audio is not played back in local modes.
func (a *Assistant) Run(ctx context.Context, source AudioSource) error {
	a.logger.Info("starting audio source", "source", source.Name())
	if err := source.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer source.Stop()

	a.logger.Info("assistant ready, listening")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOne(ctx, source); err != nil {
				a.logger.Error("processing utterance", "error", err)
			}
		}
	}
}

func (a *Assistant) processOne(ctx context.Context, source AudioSource) error {
	audioData, err := source.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil
	}

	exchange, err := a.Handle(ctx, audioData, "wav")
	if err != nil {
		if notifyErr := a.notifier.Notify(ctx, fmt.Sprintf("Error: %s", err.Error())); notifyErr != nil {
			a.logger.Error("notifying error", "error", notifyErr)
		}
		return err
	}

	a.logger.Info("exchange complete",
		"input", exchange.InputText,
		"response", exchange.ResponseText,
		"audio_bytes", len(exchange.ResponseAudio),
	)

	if err := a.notifier.Notify(ctx, exchange.ResponseText); err != nil {
		a.logger.Error("notifying result", "error", err)
	}

	return nil
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
