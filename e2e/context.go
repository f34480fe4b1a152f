package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"solicitudes/internal/platform/middleware"
	"solicitudes/internal/requests/events"
	"solicitudes/internal/requests/handler"
	"solicitudes/internal/requests/service"
	"solicitudes/internal/requests/store/memory"
	"solicitudes/pkg/platform/middleware/admin"
	"solicitudes/pkg/platform/middleware/requesttime"
)

// AdminToken is the token the in-process server accepts on admin routes.
const AdminToken = "e2e-admin-token"

// TestContext holds one scenario's server and the last response.
type TestContext struct {
	server *httptest.Server
	client *http.Client
	events *events.InMemory

	lastStatus int
	lastBody   []byte
	named      map[string]int64
}

// NewTestContext starts a fresh in-process API over an empty memory store.
func NewTestContext() *TestContext {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := events.NewInMemory()
	svc := service.New(memory.NewInMemory(),
		service.WithEventDispatcher(dispatcher),
		service.WithTransactor(memory.NewTransactor()),
		service.WithLogger(logger),
	)
	h := handler.New(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, requesttime.Middleware, middleware.Recovery(logger))
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(AdminToken, logger))
		h.RegisterAdmin(r)
	})

	server := httptest.NewServer(r)
	return &TestContext{
		server: server,
		client: server.Client(),
		events: dispatcher,
		named:  make(map[string]int64),
	}
}

func (tc *TestContext) Close() {
	tc.server.Close()
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PATCH(path string, body any, headers map[string]string) error {
	return tc.do(http.MethodPatch, path, body, headers)
}

func (tc *TestContext) DELETE(path string, headers map[string]string) error {
	return tc.do(http.MethodDelete, path, nil, headers)
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// GetResponseField resolves a dotted path such as "data.status" or
// "data.0.id" in the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	cur := doc
	for _, part := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found", field)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, field)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found", field)
		}
	}
	return cur, nil
}

// Remember stores the id of the last created request under name.
func (tc *TestContext) Remember(name string) error {
	v, err := tc.GetResponseField("data.id")
	if err != nil {
		return err
	}
	id, ok := v.(float64)
	if !ok {
		return fmt.Errorf("data.id is %T, not a number", v)
	}
	tc.named[name] = int64(id)
	return nil
}

func (tc *TestContext) Lookup(name string) (int64, error) {
	id, ok := tc.named[name]
	if !ok {
		return 0, fmt.Errorf("no request remembered as %q", name)
	}
	return id, nil
}

func (tc *TestContext) DispatchedEvents() []string {
	return tc.events.RecordedNames()
}
