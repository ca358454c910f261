package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/pkg/config"
	"github.com/xhad/docqa/pkg/extractor"
	"github.com/xhad/docqa/pkg/llm"
	"github.com/xhad/docqa/pkg/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Server exposes the document QA pipeline over HTTP and WebSocket.
type Server struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
}

func New(cfg *config.Config) (*Server, error) {
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %v", err)
	}
	return &Server{cfg: cfg, pipe: pipe}, nil
}

// NewWithPipeline wires an existing pipeline in. Used by tests.
func NewWithPipeline(cfg *config.Config, pipe *pipeline.Pipeline) *Server {
	return &Server{cfg: cfg, pipe: pipe}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe blocks serving on the configured port.
func (s *Server) ListenAndServe() error {
	log.Printf("Starting server on port %s", s.cfg.Server.Port)
	return http.ListenAndServe(":"+s.cfg.Server.Port, s.Handler())
}

// handleRun answers a batch of questions about one document.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.QARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Documents == "" {
		http.Error(w, "documents field is required", http.StatusBadRequest)
		return
	}
	if len(req.Questions) == 0 {
		http.Error(w, "questions field is required", http.StatusBadRequest)
		return
	}

	resp, err := s.pipe.Run(r.Context(), req)
	if err != nil {
		log.Printf("Run failed for %s: %v", req.Documents, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// statusForError maps pipeline failures to HTTP codes. Format problems
// are the caller's fault; everything else is ours.
func statusForError(err error) int {
	if errors.Is(err, extractor.ErrUnsupportedFormat) {
		return http.StatusUnsupportedMediaType
	}
	var extractionErr *extractor.ExtractionError
	if errors.As(err, &extractionErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// wsClient serializes writes to one connection. Gorilla connections
// support at most one concurrent writer, and handleMessage runs in its
// own goroutine per request.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		go s.handleMessage(client, msg)
	}
}

// handleMessage runs one QA request over the socket, streaming status
// updates as the pipeline advances. The request payload rides in Data.
func (s *Server) handleMessage(client *wsClient, msg Message) {
	if msg.Type != "run" {
		s.sendMessage(client, "error", fmt.Sprintf("unknown message type: %q", msg.Type))
		return
	}

	payload, err := json.Marshal(msg.Data)
	if err != nil {
		s.sendMessage(client, "error", fmt.Sprintf("invalid payload: %v", err))
		return
	}
	var req models.QARequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendMessage(client, "error", fmt.Sprintf("invalid payload: %v", err))
		return
	}
	if req.Documents == "" || len(req.Questions) == 0 {
		s.sendMessage(client, "error", "documents and questions are required")
		return
	}

	ctx := context.Background()
	s.sendMessage(client, "status", fmt.Sprintf("Processing document: %s", req.Documents))

	sess, err := s.pipe.ProcessDocument(ctx, req.Documents)
	if errors.Is(err, pipeline.ErrNoUsableChunks) {
		// Terminal state, not a failure: refuse every question.
		answers := make([]string, len(req.Questions))
		for i := range answers {
			answers[i] = llm.NoContextAnswer
		}
		s.sendData(client, "response", models.QAResponse{Answers: answers})
		return
	}
	if err != nil {
		s.sendMessage(client, "error", fmt.Sprintf("Failed to process document: %v", err))
		return
	}
	defer sess.Close()

	s.sendMessage(client, "status", fmt.Sprintf("Indexed %d chunks", sess.Store.Len()))

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Retrieval.DefaultTopK
	}
	if topK > s.cfg.Retrieval.MaxTopK {
		topK = s.cfg.Retrieval.MaxTopK
	}

	answers := make([]string, 0, len(req.Questions))
	for i, question := range req.Questions {
		s.sendMessage(client, "status", fmt.Sprintf("Answering question %d of %d", i+1, len(req.Questions)))

		answer, err := s.pipe.Answer(ctx, sess, question, topK)
		if err != nil {
			s.sendMessage(client, "error", fmt.Sprintf("Failed to answer %q: %v", question, err))
			return
		}
		answers = append(answers, answer)
	}

	s.sendData(client, "response", models.QAResponse{Answers: answers})
}

func (s *Server) sendMessage(client *wsClient, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := client.writeJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (s *Server) sendData(client *wsClient, msgType string, data interface{}) {
	msg := Message{
		Type: msgType,
		Data: data,
	}
	if err := client.writeJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
