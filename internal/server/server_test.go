package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kgraph/internal/queue"
	mid "github.com/OFFIS-RIT/kgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kgraph/pkg/store/memory"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"
)

type personTransformer struct{}

func (personTransformer) Transform(ctx context.Context, text, instructions string) (*common.Fragment, error) {
	name := strings.TrimSpace(text)
	return &common.Fragment{
		Nodes: []common.Node{{ID: name, Type: "Person"}, {ID: "Acme", Type: "Organization"}},
		Relationships: []common.Relationship{{
			Source: common.Node{ID: name, Type: "Person"},
			Target: common.Node{ID: "Acme", Type: "Organization"},
			Type:   "WORKS_AT",
		}},
	}, nil
}

type fakePublisher struct {
	published map[string][][]byte
}

func (f *fakePublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.published[key] = append(f.published[key], msg.Body)
	return nil
}

type fakeObjects struct {
	keys []string
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func (f *fakeObjects) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	return &s3.DeleteObjectsOutput{}, nil
}

func newTestApp(t *testing.T) *mid.App {
	t.Helper()
	g, err := graph.NewGraphClient(graph.NewGraphClientParams{})
	if err != nil {
		t.Fatalf("NewGraphClient() error = %v", err)
	}
	return &mid.App{
		Graph:       g,
		Store:       memory.NewMemoryStorage(),
		Transformer: personTransformer{},
	}
}

func seed(t *testing.T, app *mid.App) {
	t.Helper()
	_, err := app.Graph.Run(context.Background(), map[string][]byte{"a.txt": []byte("Alice")}, app.Store, app.Transformer)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func do(t *testing.T, app *mid.App, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	New(app).ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGraphStats(t *testing.T) {
	app := newTestApp(t)
	seed(t, app)

	rec := do(t, app, httptest.NewRequest(http.MethodGet, "/api/graph/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats common.Statistics
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Nodes != 2 || stats.Relationships != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestGraphEdges(t *testing.T) {
	app := newTestApp(t)
	seed(t, app)

	rec := do(t, app, httptest.NewRequest(http.MethodGet, "/api/graph/edges?limit=5", nil))
	var edges []common.Edge
	if err := json.Unmarshal(rec.Body.Bytes(), &edges); err != nil {
		t.Fatalf("status %d body %q: %v", rec.Code, rec.Body.String(), err)
	}
	if len(edges) != 1 || edges[0].Type != "WORKS_AT" {
		t.Fatalf("edges = %+v", edges)
	}

	rec = do(t, app, httptest.NewRequest(http.MethodGet, "/api/graph/edges?format=dot", nil))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "digraph kgraph {") {
		t.Fatalf("dot = %d %q", rec.Code, rec.Body.String())
	}

	for _, query := range []string{"limit=-2", "limit=abc", "format=svg"} {
		rec = do(t, app, httptest.NewRequest(http.MethodGet, "/api/graph/edges?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestDeleteGraph(t *testing.T) {
	app := newTestApp(t)
	seed(t, app)

	rec := do(t, app, httptest.NewRequest(http.MethodDelete, "/api/graph", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if st := app.Graph.Statistics(context.Background(), app.Store); st.Nodes != 0 {
		t.Fatalf("graph not reset: %+v", st)
	}
}

func TestAuth(t *testing.T) {
	secret := []byte("secret")
	app := newTestApp(t)
	app.MasterAPIKey = "master"
	app.Keyfunc = func(*jwt.Token) (any, error) { return secret, nil }

	sign := func(role string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": role})
		s, err := token.SignedString(secret)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	tests := []struct {
		name   string
		method string
		token  string
		want   int
	}{
		{"missing token", http.MethodGet, "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "nope", http.StatusUnauthorized},
		{"master key", http.MethodDelete, "master", http.StatusOK},
		{"user jwt reads", http.MethodGet, sign("user"), http.StatusOK},
		{"user jwt cannot reset", http.MethodDelete, sign("user"), http.StatusForbidden},
		{"admin jwt resets", http.MethodDelete, sign("admin"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/graph/stats"
			if tt.method == http.MethodDelete {
				target = "/api/graph"
			}
			req := httptest.NewRequest(tt.method, target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if rec := do(t, app, req); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

type filesResponse struct {
	Message string           `json:"message"`
	JobID   string           `json:"job_id"`
	Skipped []string         `json:"skipped"`
	Result  *graph.RunResult `json:"result"`
}

func TestPostGraphFilesSync(t *testing.T) {
	app := newTestApp(t)
	req := multipartRequest(t, "/api/graph/files", nil, map[string]string{"a.txt": "Alice", "logo.png": "x"})

	rec := do(t, app, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %q", rec.Code, rec.Body.String())
	}
	var resp filesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0] != "logo.png" {
		t.Fatalf("skipped = %v", resp.Skipped)
	}
	if resp.Result == nil || resp.Result.Statistics.Nodes != 2 {
		t.Fatalf("result = %+v", resp.Result)
	}
}

func TestPostGraphFilesRejects(t *testing.T) {
	app := newTestApp(t)

	rec := do(t, app, multipartRequest(t, "/api/graph/files", nil, map[string]string{"logo.png": "x"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported only: status = %d", rec.Code)
	}

	rec = do(t, app, multipartRequest(t, "/api/graph/files", map[string]string{"async": "true"}, map[string]string{"a.txt": "Alice"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("async without queue: status = %d", rec.Code)
	}
}

func TestPostGraphFilesAsync(t *testing.T) {
	app := newTestApp(t)
	pub := &fakePublisher{published: map[string][][]byte{}}
	objects := &fakeObjects{}
	app.Queue = pub
	app.Bucket = storage.NewBucket("files", objects)

	req := multipartRequest(t, "/api/graph/files", map[string]string{"async": "true", "instructions": "Only people."}, map[string]string{"a.txt": "Alice"})
	rec := do(t, app, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body %q", rec.Code, rec.Body.String())
	}
	var resp filesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	bodies := pub.published[queue.IngestQueue]
	if len(bodies) != 1 {
		t.Fatalf("published = %v", pub.published)
	}
	var job queue.IngestJob
	if err := json.Unmarshal(bodies[0], &job); err != nil {
		t.Fatal(err)
	}
	if job.JobID != resp.JobID || job.Prefix != "jobs/"+resp.JobID || job.Instructions != "Only people." {
		t.Fatalf("job = %+v, response = %+v", job, resp)
	}
	if len(objects.keys) != 1 || objects.keys[0] != job.Prefix+"/a.txt" {
		t.Fatalf("keys = %v", objects.keys)
	}
	if st := app.Graph.Statistics(context.Background(), app.Store); st.Nodes != 0 {
		t.Fatal("async request ran the graph inline")
	}
}
