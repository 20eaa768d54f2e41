// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/internal/provider"
)

func TestDo_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	body, err := Do(ts.Client(), req, "openalex", "lookup", 0)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestDo_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   provider.Kind
	}{
		{http.StatusNotFound, provider.KindNotFound},
		{http.StatusTooManyRequests, provider.KindTooManyRequests},
		{http.StatusBadRequest, provider.KindBadRequest},
		{http.StatusInternalServerError, provider.KindInternal},
		{http.StatusGatewayTimeout, provider.KindTimeout},
	}
	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))

		req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
		require.NoError(t, err)

		_, err = Do(ts.Client(), req, "openalex", "lookup", 0)
		require.Error(t, err)
		assert.Equal(t, tt.kind, provider.KindOf(err), "status %d", tt.status)
		ts.Close()
	}
}

func TestDo_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	client := &http.Client{Timeout: 20 * time.Millisecond}
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = Do(client, req, "semanticscholar", "batch", 0)
	require.Error(t, err)
	assert.True(t, provider.IsTimeout(err), "got: %v", err)
}

func TestDo_OversizedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(make([]byte, 1024))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = Do(ts.Client(), req, "openalex", "lookup", 512)
	require.Error(t, err)
}
