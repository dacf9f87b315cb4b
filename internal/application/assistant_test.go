package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"shop-assistant/internal/application"
	"shop-assistant/internal/domain"
)

type mockSTT struct {
	transcript string
	err        error
	calls      int
}

func (m *mockSTT) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	m.calls++
	return m.transcript, m.err
}

type mockTTS struct {
	audio []byte
	err   error
	texts []string
}

func (m *mockTTS) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.texts = append(m.texts, text)
	return m.audio, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAssistant(stt application.SpeechToText, tts application.SpeechSynthesizer, model application.ChatModel) *application.Assistant {
	return application.NewAssistant(
		stt,
		tts,
		newTestPipeline(model, testCatalog()),
		&application.NoopNotifier{},
		discardLogger(),
	)
}

func TestAssistant_HandleFullExchange(t *testing.T) {
	stt := &mockSTT{transcript: "hola"}
	tts := &mockTTS{audio: []byte("mp3-bytes")}
	model := &mockChatModel{replies: []string{`{"intent":"greet","entities":{}}`}}

	assistant := newTestAssistant(stt, tts, model)

	exchange, err := assistant.Handle(context.Background(), []byte("fake-webm"), "webm")
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	if exchange.InputText != "hola" {
		t.Errorf("InputText: got %q", exchange.InputText)
	}
	if exchange.ResponseText != application.ReplyGreeting {
		t.Errorf("ResponseText: got %q", exchange.ResponseText)
	}
	if string(exchange.ResponseAudio) != "mp3-bytes" {
		t.Errorf("ResponseAudio: got %q", exchange.ResponseAudio)
	}
	if len(exchange.CallLog) != 3 {
		t.Errorf("CallLog length: got %d, want 3", len(exchange.CallLog))
	}
	if len(tts.texts) != 1 || tts.texts[0] != application.ReplyGreeting {
		t.Errorf("synthesized texts: got %v", tts.texts)
	}
}

func TestAssistant_TextCommandBypassesTranscription(t *testing.T) {
	stt := &mockSTT{err: errors.New("should not be called")}
	model := &mockChatModel{replies: []string{`{"intent":"greet","entities":{}}`}}

	assistant := newTestAssistant(stt, &application.NoopTTS{}, model)

	exchange, err := assistant.Handle(context.Background(), []byte(domain.TextCommandPrefix+"hola"), "webm")
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	if stt.calls != 0 {
		t.Errorf("STT called %d times, want 0", stt.calls)
	}
	if exchange.InputText != "hola" {
		t.Errorf("InputText: got %q", exchange.InputText)
	}
}

func TestAssistant_TranscriptionFailurePropagates(t *testing.T) {
	stt := &mockSTT{err: errors.New("job failed")}
	assistant := newTestAssistant(stt, &application.NoopTTS{}, &mockChatModel{})

	if _, err := assistant.Handle(context.Background(), []byte("audio"), "webm"); err == nil {
		t.Fatal("expected error for failed transcription")
	}
}

func TestAssistant_EmptyTranscriptIsAnError(t *testing.T) {
	stt := &mockSTT{transcript: "   "}
	assistant := newTestAssistant(stt, &application.NoopTTS{}, &mockChatModel{})

	if _, err := assistant.Handle(context.Background(), []byte("audio"), "webm"); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestAssistant_SynthesisFailureDegradesToText(t *testing.T) {
	stt := &mockSTT{transcript: "hola"}
	tts := &mockTTS{err: errors.New("voice service down")}
	model := &mockChatModel{replies: []string{`{"intent":"greet","entities":{}}`}}

	assistant := newTestAssistant(stt, tts, model)

	exchange, err := assistant.Handle(context.Background(), []byte("audio"), "webm")
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	if exchange.ResponseAudio != nil {
		t.Errorf("ResponseAudio: got %d bytes, want nil", len(exchange.ResponseAudio))
	}
	if exchange.ResponseText != application.ReplyGreeting {
		t.Errorf("ResponseText: got %q", exchange.ResponseText)
	}
}

func TestAssistant_HandleText(t *testing.T) {
	model := &mockChatModel{replies: []string{`{"intent":"greet","entities":{}}`}}
	assistant := newTestAssistant(&application.NoopSTT{}, &application.NoopTTS{}, model)

	exchange, err := assistant.HandleText(context.Background(), "hola")
	if err != nil {
		t.Fatalf("HandleText error: %v", err)
	}
	if exchange.ResponseText != application.ReplyGreeting {
		t.Errorf("ResponseText: got %q", exchange.ResponseText)
	}

	if _, err := assistant.HandleText(context.Background(), "   "); err == nil {
		t.Error("expected error for empty text")
	}
}
