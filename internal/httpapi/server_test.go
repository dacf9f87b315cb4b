package httpapi_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/application"
	"shop-assistant/internal/httpapi"
)

type fakeExchanger struct {
	exchange  *application.Exchange
	err       error
	gotAudio  []byte
	gotFormat string
	gotText   string
}

func (f *fakeExchanger) Handle(_ context.Context, audio []byte, format string) (*application.Exchange, error) {
	f.gotAudio = audio
	f.gotFormat = format
	return f.exchange, f.err
}

func (f *fakeExchanger) HandleText(_ context.Context, text string) (*application.Exchange, error) {
	f.gotText = text
	return f.exchange, f.err
}

func newServer(t *testing.T, fake *fakeExchanger) *httpapi.Server {
	t.Helper()
	return httpapi.NewServer(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAssist_Success(t *testing.T) {
	fake := &fakeExchanger{
		exchange: &application.Exchange{
			InputText:     "busco unas botas",
			ResponseText:  "Encontré las Botas de Montaña TerraTrek.",
			ResponseAudio: []byte("mp3-bytes"),
			CallLog:       []string{"nlu: ...", "catalog: ...", "response: ..."},
		},
	}
	server := newServer(t, fake)

	payload := `{"audio_base64":"` + base64.StdEncoding.EncodeToString([]byte("audio-bytes")) + `","audio_format":"wav"}`
	req := httptest.NewRequest(http.MethodPost, "/assist", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, []byte("audio-bytes"), fake.gotAudio)
	assert.Equal(t, "wav", fake.gotFormat)

	var resp struct {
		InputText                string   `json:"inputText"`
		AgentResponseText        string   `json:"agentResponseText"`
		AgentResponseAudioBase64 *string  `json:"agentResponseAudioBase64"`
		AgentCallLog             []string `json:"agentCallLog"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "busco unas botas", resp.InputText)
	assert.Equal(t, "Encontré las Botas de Montaña TerraTrek.", resp.AgentResponseText)
	require.NotNil(t, resp.AgentResponseAudioBase64)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3-bytes")), *resp.AgentResponseAudioBase64)
	assert.Len(t, resp.AgentCallLog, 3)
}

func TestAssist_DefaultFormat(t *testing.T) {
	fake := &fakeExchanger{exchange: &application.Exchange{}}
	server := newServer(t, fake)

	payload := `{"audio_base64":"` + base64.StdEncoding.EncodeToString([]byte("x")) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/assist", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webm", fake.gotFormat)
}

func TestAssist_NullAudioWhenSynthesisFailed(t *testing.T) {
	fake := &fakeExchanger{
		exchange: &application.Exchange{
			InputText:    "hola",
			ResponseText: "¡Hola! Soy tu asistente de compras inteligente. ¿Cómo puedo ayudarte hoy?",
		},
	}
	server := newServer(t, fake)

	payload := `{"audio_base64":"` + base64.StdEncoding.EncodeToString([]byte("x")) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/assist", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"agentResponseAudioBase64":null`)
}

func TestAssist_MissingBody(t *testing.T) {
	server := newServer(t, &fakeExchanger{})

	req := httptest.NewRequest(http.MethodPost, "/assist", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cuerpo de la solicitud no encontrado.")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAssist_MissingAudioField(t *testing.T) {
	server := newServer(t, &fakeExchanger{})

	req := httptest.NewRequest(http.MethodPost, "/assist", strings.NewReader(`{"audio_format":"wav"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "audio_base64 no encontrado en el cuerpo.")
}

func TestAssist_InvalidBase64(t *testing.T) {
	server := newServer(t, &fakeExchanger{})

	req := httptest.NewRequest(http.MethodPost, "/assist", strings.NewReader(`{"audio_base64":"%%%no-es-base64%%%"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAssist_PipelineFailure(t *testing.T) {
	fake := &fakeExchanger{err: assert.AnError}
	server := newServer(t, fake)

	payload := `{"audio_base64":"` + base64.StdEncoding.EncodeToString([]byte("x")) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/assist", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestText_Success(t *testing.T) {
	fake := &fakeExchanger{
		exchange: &application.Exchange{
			InputText:    "hola",
			ResponseText: "¡Hola! Soy tu asistente de compras inteligente. ¿Cómo puedo ayudarte hoy?",
			CallLog:      []string{"nlu: ...", "catalog_skip: ...", "response: ..."},
		},
	}
	server := newServer(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader(`{"text":"hola"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hola", fake.gotText)
	assert.Contains(t, rec.Body.String(), "asistente de compras")
}

func TestText_MissingText(t *testing.T) {
	server := newServer(t, &fakeExchanger{})

	req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text no encontrado en el cuerpo.")
}

func TestHealth(t *testing.T) {
	server := newServer(t, &fakeExchanger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreflight(t *testing.T) {
	server := newServer(t, &fakeExchanger{})

	req := httptest.NewRequest(http.MethodOptions, "/assist", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRateLimit(t *testing.T) {
	fake := &fakeExchanger{exchange: &application.Exchange{}}
	server := newServer(t, fake)

	var last int
	for i := 0; i < 31; i++ {
		req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader(`{"text":"hola"}`))
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)

	// Health is never rate limited.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
