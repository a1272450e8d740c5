package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/pkg/config"
	"fintrack/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gigaChatStub struct {
	reply         string
	oauthCalls    atomic.Int32
	rejectUploads atomic.Int32
}

func (s *gigaChatStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		n := s.oauthCalls.Add(1)
		assert.Equal(t, "Basic key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("RqUID"))
		json.NewEncoder(w).Encode(map[string]any{"access_token": "token-" + string(rune('0'+n))})
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		if s.rejectUploads.Load() > 0 {
			s.rejectUploads.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "general", r.FormValue("purpose"))
		json.NewEncoder(w).Encode(map[string]string{"id": "file-1"})
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req visionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, []string{"file-1"}, req.Messages[0].Attachments)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": s.reply}}},
		})
	})
	return mux
}

func newTestRecognizer(t *testing.T, stub *gigaChatStub) *GigaChatRecognizer {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	breaker := resilience.NewBreaker("gigachat", config.BreakerConfig{
		MinRequests:  1,
		FailureRatio: 1,
		OpenTimeout:  time.Hour,
		HalfOpenMax:  1,
	}, IsGigaChatFailure, zap.NewNop())

	r := NewGigaChatRecognizer(&config.GigaChatConfig{APIKey: "key", Scope: "GIGACHAT_API_PERS"}, breaker, zap.NewNop())
	r.oauthURL = srv.URL + "/oauth"
	r.baseURL = srv.URL
	return r
}

func TestGigaChatRecognize(t *testing.T) {
	stub := &gigaChatStub{reply: "  WHOLE FOODS\nTOTAL $20.00  "}
	r := newTestRecognizer(t, stub)

	text, err := r.Recognize(context.Background(), writeFile(t, "r.jpg", "img"))
	require.NoError(t, err)
	assert.Equal(t, "WHOLE FOODS\nTOTAL $20.00", text)

	_, err = r.Recognize(context.Background(), writeFile(t, "r.jpg", "img"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), stub.oauthCalls.Load())
}

func TestGigaChatRefreshesTokenOnUnauthorized(t *testing.T) {
	stub := &gigaChatStub{reply: "TOTAL $1.00"}
	stub.rejectUploads.Store(1)
	r := newTestRecognizer(t, stub)

	text, err := r.Recognize(context.Background(), writeFile(t, "r.png", "img"))
	require.NoError(t, err)
	assert.Equal(t, "TOTAL $1.00", text)
	assert.Equal(t, int32(2), stub.oauthCalls.Load())
}

func TestGigaChatRefusalDoesNotTripBreaker(t *testing.T) {
	stub := &gigaChatStub{reply: "Sorry, I cannot process this image."}
	r := newTestRecognizer(t, stub)

	for i := 0; i < 3; i++ {
		_, err := r.Recognize(context.Background(), writeFile(t, "r.png", "img"))
		assert.ErrorIs(t, err, ErrModelRefused)
	}
}

func TestGigaChatOpenCircuit(t *testing.T) {
	stub := &gigaChatStub{reply: "TOTAL $1.00"}
	stub.rejectUploads.Store(100)
	r := newTestRecognizer(t, stub)

	_, err := r.Recognize(context.Background(), writeFile(t, "r.png", "img"))
	require.Error(t, err)

	_, err = r.Recognize(context.Background(), writeFile(t, "r.png", "img"))
	assert.ErrorIs(t, err, ErrRecognizerUnavailable)
}
