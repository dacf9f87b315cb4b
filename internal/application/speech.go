package application

import (
	"context"
	"fmt"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

type SpeechSynthesizer interface {
	// Synthesize returns encoded audio for the given text, or nil for empty text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// NoopSTT is a no-op speech-to-text client for text-only setups.
// It returns an error if called with actual audio data.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set an stt provider to enable audio transcription")
}

// NoopTTS disables voice replies; exchanges degrade to text-only.
type NoopTTS struct{}

func (n *NoopTTS) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}
