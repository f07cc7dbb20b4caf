// Package snapshot acquires encoded orderbook snapshots from external
// producers. A snapshot is an opaque byte slice per batch; decoding is the
// engine's job.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Source produces the encoded snapshot of one batch.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// New selects a source by the spec's scheme: http(s):// and ws(s):// URLs
// get network sources, anything else is treated as a file path.
func New(spec string, log zerolog.Logger) Source {
	switch {
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return NewHTTPSource(spec, log)
	case strings.HasPrefix(spec, "ws://"), strings.HasPrefix(spec, "wss://"):
		return NewWSSource(spec, log)
	default:
		return NewFileSource(spec, log)
	}
}

// FileSource reads a snapshot from the local filesystem.
type FileSource struct {
	path string
	log  zerolog.Logger
}

func NewFileSource(path string, log zerolog.Logger) *FileSource {
	return &FileSource{path: path, log: log}
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	s.log.Debug().Str("path", s.path).Int("bytes", len(data)).Msg("snapshot loaded")
	return data, nil
}

// HTTPSource fetches a snapshot from an HTTP endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

func NewHTTPSource(url string, log zerolog.Logger) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}
	s.log.Debug().Str("url", s.url).Int("bytes", len(data)).Msg("snapshot fetched")
	return data, nil
}

// WSSource reads a snapshot from a WebSocket stream. The producer is
// expected to push one binary frame per batch; Fetch returns the first
// binary frame it receives.
type WSSource struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger
}

func NewWSSource(url string, log zerolog.Logger) *WSSource {
	return &WSSource{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *WSSource) Fetch(ctx context.Context) ([]byte, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to snapshot stream: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot frame: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			// Producers may interleave text keepalives; skip them.
			continue
		}
		s.log.Debug().Str("url", s.url).Int("bytes", len(data)).Msg("snapshot received")
		return data, nil
	}
}
