package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"document-quiz/internal/app"
	"document-quiz/internal/chromemdb"
	"document-quiz/internal/config"
	"document-quiz/internal/embedding"
	"document-quiz/internal/infra/memory"
	"document-quiz/internal/llmservice"
	"document-quiz/internal/quiz"
	"document-quiz/internal/rag"
)

const lesson = "Photosynthesis takes place in the chloroplasts of plant cells. " +
	"Mitochondria are the powerhouse of the cell and produce ATP. " +
	"The nucleus stores genetic material in the form of DNA."

type stubLLM struct {
	quiz  string
	reply string
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ ...llmservice.Option) (string, error) {
	if strings.Contains(prompt, "multiple-choice questions") {
		return s.quiz, nil
	}
	return s.reply, nil
}

func quizJSON(t *testing.T, n int) string {
	t.Helper()
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"question": fmt.Sprintf("Question %d?", i+1),
			"choices":  []string{"a) one", "b) two", "c) three", "d) four"},
			"answer":   "b) two",
			"points":   20,
		}
	}
	b, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	llm := &stubLLM{quiz: quizJSON(t, 10), reply: "In the chloroplasts."}
	ragCfg := config.RAGConfig{ChunkSize: 60, ChunkOverlap: 10, TopK: 2, HistoryTurns: 3}
	builder, err := rag.NewBuilder(ragCfg, embedding.NewHashEmbedder(128), chromemdb.NewVectorDBManager(), llm)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	service := app.NewService(memory.NewSessionStore(), builder, quiz.NewGenerator(llm, config.QuizConfig{}), 4, 20)
	srv := NewServer(service, &config.ServerConfig{Port: 8080, MaxUpload: 1 << 20})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var snap sessionView
	if code := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", nil, &snap); code != http.StatusCreated {
		t.Fatalf("create session: status %d", code)
	}
	return snap.ID
}

func upload(t *testing.T, ts *httptest.Server, id, filename string, data []byte) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	resp, err := http.Post(ts.URL+"/api/v1/sessions/"+id+"/document", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}
