package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestServer_Routes(t *testing.T) {
	repo := &fakeRepository{fail: map[string]error{}}
	p, err := New(WithTransformer(&fakeTransformer{}), WithRepository(repo))
	require.NoError(t, err)

	repo.fail[keyFor(t, "B", "full")] = errors.New("denied")
	_, err = p.Run(context.Background(), jobsFor("A", "B"))
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(zap.NewNop(), p).Routes())
	defer srv.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("stats", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/publish")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var stats Stats
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Published)
		assert.Equal(t, 1, stats.Failed)
	})

	t.Run("failures", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/publish/failures")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body struct {
			Failures []Failure `json:"failures"`
			Count    int       `json:"count"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, "B", body.Failures[0].ID)
	})
}

type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(int)           {}
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestServer_writeJSON(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewServer(zap.New(core), nil)

	s.writeJSON(&brokenWriter{header: http.Header{}}, Stats{Total: 1})

	entries := logs.FilterMessage("unable to write response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
}

func TestServer_Start(t *testing.T) {
	p, err := New(WithTransformer(&fakeTransformer{}), WithRepository(&fakeRepository{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer(zap.NewNop(), p).Start(ctx, "127.0.0.1:0")
	}()

	cancel()
	assert.NoError(t, <-done)
}
