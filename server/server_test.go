package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/internal/types"
	"github.com/xhad/docqa/pkg/config"
	"github.com/xhad/docqa/pkg/index"
	"github.com/xhad/docqa/pkg/llm"
	"github.com/xhad/docqa/pkg/pipeline"
	"github.com/xhad/docqa/pkg/ranker"
	"github.com/xhad/docqa/server"
)

type stubFetcher struct{}

func (stubFetcher) Download(ctx context.Context, docURL string) (string, func(), error) {
	return "/tmp/stub", func() {}, nil
}

type stubChunker struct{}

func (stubChunker) Chunk(text string) ([]models.Chunk, error) {
	return []models.Chunk{
		{Text: "The apple orchard blooms in spring.", Tokens: 7, Index: 0},
		{Text: "Rainfall patterns shift with the seasons.", Tokens: 7, Index: 1},
	}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0, 0}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error) {
	vectors := make([][]float32, len(texts))
	kept := make([]int, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0}
		kept[i] = i
	}
	return vectors, kept, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, contextChunks []string, question string) (string, error) {
	return "answer based on " + strings.Join(contextChunks, "; "), nil
}

type emptyChunker struct{}

func (emptyChunker) Chunk(text string) ([]models.Chunk, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	return newTestServerWithChunker(t, stubChunker{})
}

func newTestServerWithChunker(t *testing.T, chunker types.Chunker) *server.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Retrieval.DefaultTopK = 2
	cfg.Retrieval.MaxTopK = 5
	cfg.Server.Port = "8080"

	pipe := pipeline.NewWithComponents(cfg, pipeline.Components{
		Fetcher:  stubFetcher{},
		Extract:  func(path string) (string, error) { return "text", nil },
		Chunker:  chunker,
		Embedder: stubEmbedder{},
		Ranker: ranker.NewWithConfig(ranker.RankerConfig{
			MaxChunks:    3,
			MinRelevance: 0.1,
		}),
		Generator: stubGenerator{},
		NewIndex: func() (types.VectorIndex, error) {
			return index.NewFlatIndex(2), nil
		},
	})

	return server.NewWithPipeline(cfg, pipe)
}

func TestHandleRun(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, err := json.Marshal(models.QARequest{
		Documents: "http://example.com/doc.pdf",
		Questions: []string{"When does the apple orchard bloom?"},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/run", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var qa models.QAResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&qa))
	require.Len(t, qa.Answers, 1)
	assert.Contains(t, qa.Answers[0], "apple orchard")
}

func TestHandleRunRefusesEmptyDocument(t *testing.T) {
	srv := newTestServerWithChunker(t, emptyChunker{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, err := json.Marshal(models.QARequest{
		Documents: "http://example.com/doc.pdf",
		Questions: []string{"When does the apple orchard bloom?"},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/run", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var qa models.QAResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&qa))
	require.Len(t, qa.Answers, 1)
	assert.Equal(t, llm.NoContextAnswer, qa.Answers[0])
}

func TestHandleRunValidation(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{"missing documents", `{"questions":["q"]}`},
		{"missing questions", `{"documents":"http://example.com/doc.pdf"}`},
		{"malformed json", `{"documents":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/run", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHandleRunMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/run")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func dialWebSocket(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

// readResponse consumes status messages until a terminal message arrives
// and decodes its payload.
func readResponse(t *testing.T, conn *websocket.Conn) models.QAResponse {
	t.Helper()

	for {
		var msg server.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "status" {
			continue
		}
		require.Equal(t, "response", msg.Type, "unexpected message: %s", msg.Content)

		payload, err := json.Marshal(msg.Data)
		require.NoError(t, err)
		var qa models.QAResponse
		require.NoError(t, json.Unmarshal(payload, &qa))
		return qa
	}
}

func TestWebSocketRunStreamsAnswers(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWebSocket(t, ts)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(server.Message{
		Type: "run",
		Data: models.QARequest{
			Documents: "http://example.com/doc.pdf",
			Questions: []string{"When does the apple orchard bloom?"},
		},
	}))

	qa := readResponse(t, conn)
	require.Len(t, qa.Answers, 1)
	assert.Contains(t, qa.Answers[0], "apple orchard")
}

func TestWebSocketRefusesEmptyDocument(t *testing.T) {
	srv := newTestServerWithChunker(t, emptyChunker{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWebSocket(t, ts)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(server.Message{
		Type: "run",
		Data: models.QARequest{
			Documents: "http://example.com/doc.pdf",
			Questions: []string{"What does the document say?", "Anything else?"},
		},
	}))

	qa := readResponse(t, conn)
	require.Len(t, qa.Answers, 2)
	for _, answer := range qa.Answers {
		assert.Equal(t, llm.NoContextAnswer, answer)
	}
}

func TestWebSocketRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWebSocket(t, ts)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(server.Message{Type: "chat"}))

	var msg server.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Content, "unknown message type")
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
