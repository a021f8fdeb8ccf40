package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/syncer"
)

func TestHTTPExporterPostsDocument(t *testing.T) {
	var received syncer.ExportDocument
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	doc := syncer.ExportDocument{SyncTimestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	err := NewHTTPExporter(srv.URL).Export(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, received.SyncTimestamp.Equal(doc.SyncTimestamp))
}

func TestHTTPExporterRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPExporter(srv.URL).Export(context.Background(), syncer.ExportDocument{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLogExporterAcceptsEverything(t *testing.T) {
	err := LogExporter{}.Export(context.Background(), syncer.ExportDocument{})
	require.NoError(t, err)
}
