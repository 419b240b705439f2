package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/service"
)

func TestNewModelService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ModelConfig
		wantErr bool
	}{
		{
			name: "ollama provider",
			cfg:  config.ModelConfig{Provider: "ollama", Model: "llama3"},
		},
		{
			name: "openai provider",
			cfg:  config.ModelConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test"},
		},
		{
			name:    "ollama requires model name",
			cfg:     config.ModelConfig{Provider: "ollama"},
			wantErr: true,
		},
		{
			name:    "unsupported provider",
			cfg:     config.ModelConfig{Provider: "bard", Model: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewModelService(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestOllamaComplete(t *testing.T) {
	var gotReq ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "Hello back.", Done: true})
	}))
	defer server.Close()

	svc, err := NewModelService(config.ModelConfig{
		Provider: "ollama",
		Host:     server.URL,
		Model:    "llama3",
	})
	require.NoError(t, err)

	out, err := svc.Complete(context.Background(), "say hello", service.CompletionOptions{
		Temperature: 0.4,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello back.", out)

	assert.Equal(t, "llama3", gotReq.Model)
	assert.Equal(t, "say hello", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.4, gotReq.Options["temperature"])
	assert.Equal(t, float64(256), gotReq.Options["num_predict"])
}

func TestOllamaServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewModelService(config.ModelConfig{
		Provider: "ollama",
		Host:     server.URL,
		Model:    "llama3",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "hi", service.CompletionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
	assert.True(t, common.IsRetryable(err))
}

func TestOllamaMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	svc, err := NewModelService(config.ModelConfig{
		Provider: "ollama",
		Host:     server.URL,
		Model:    "llama3",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "hi", service.CompletionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedOutput)
}

func TestOllamaConnectionRefused(t *testing.T) {
	svc, err := NewModelService(config.ModelConfig{
		Provider: "ollama",
		Host:     "http://127.0.0.1:1",
		Model:    "llama3",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "hi", service.CompletionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
}

func TestRateLimiterAllowsBurstUpToCapacity(t *testing.T) {
	rl := newRateLimiter(10)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.tryAcquire(), "token %d", i)
	}
	assert.False(t, rl.tryAcquire())
}

func TestRateLimiterWaitHonorsCancellation(t *testing.T) {
	rl := newRateLimiter(1)
	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
