package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tillpos/internal/syncer"
)

// Exporter sends one export document to the remote system. The remote accepts
// or rejects the whole document; there is no partial acknowledgment.
type Exporter interface {
	Export(ctx context.Context, doc syncer.ExportDocument) error
}

// HTTPExporter posts the export document as JSON to a remote reconciliation
// endpoint.
type HTTPExporter struct {
	url        string
	httpClient *http.Client
}

func NewHTTPExporter(url string) *HTTPExporter {
	return &HTTPExporter{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPExporter) Export(ctx context.Context, doc syncer.ExportDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("export: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("export: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("export: remote unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("export: remote rejected document with status %d", resp.StatusCode)
	}
	return nil
}

// LogExporter is the simulated remote: it accepts every document and logs the
// payload instead of sending it anywhere. Default when no remote URL is
// configured.
type LogExporter struct{}

func (LogExporter) Export(_ context.Context, doc syncer.ExportDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("export: marshal payload: %w", err)
	}
	log.Info().
		Int("sales", len(doc.Sales)).
		Int("shifts", len(doc.Shifts)).
		RawJSON("payload", body).
		Msg("simulated remote accepted export")
	return nil
}
