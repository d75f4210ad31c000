package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/adapters/memory"
	"github.com/aretw0/skphelp/pkg/assistant"
	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/directory"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/helpdesk"
	"github.com/aretw0/skphelp/pkg/metrics"
	"github.com/aretw0/skphelp/pkg/session"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	err error
}

func (m stubModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage("Silakan hubungi admin unit kerja.", nil), nil
}

type stubSync struct {
	err error
}

type busyError struct{}

func (busyError) Error() string        { return "busy" }
func (busyError) Is(target error) bool { return target == domain.ErrSyncTimeout }
func (busyError) UserMessage() string  { return "Server sedang sibuk." }

func (s stubSync) Sync(_ context.Context, nip string) (domain.SKPSnapshot, error) {
	if s.err != nil {
		return domain.SKPSnapshot{}, s.err
	}
	return domain.SKPSnapshot{Status: domain.SKPDraft, Year: "2024", Period: nip}, nil
}

type fixture struct {
	handler http.Handler
	store   *memory.Store
}

func newFixture(t *testing.T, modelErr, syncErr error) *fixture {
	t.Helper()

	doc, err := graph.Default()
	require.NoError(t, err)
	seed, err := helpdesk.LoadSeed()
	require.NoError(t, err)

	store := memory.NewStore()
	seq := 0
	ts := troubleshoot.New(doc.Graph, directory.New(doc.Contacts), session.NewManager(store),
		troubleshoot.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("sess-%d", seq)
		}))

	users := memory.NewUserStore(seed.Users...)
	handler, err := NewHandler(Dependencies{
		Troubleshoot: ts,
		Auth:         auth.NewService(users, auth.NewIssuer("test-secret", time.Hour)),
		FAQs:         helpdesk.NewFAQService(memory.NewFAQStore(seed.FAQs...)),
		Tickets:      helpdesk.NewTicketService(memory.NewTicketStore(seed.Tickets...)),
		Users:        helpdesk.NewUserService(users, nil),
		Templates:    helpdesk.NewTemplateCatalog(seed.Templates),
		Assistant:    assistant.New(stubModel{err: modelErr}),
		Sync:         stubSync{err: syncErr},
		Metrics:      metrics.New(),
		Version:      "v0.1.0-test",
	})
	require.NoError(t, err)
	return &fixture{handler: handler, store: store}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T, nip, password string) string {
	t.Helper()
	w := f.do(t, "POST", "/auth/login", "", map[string]string{"nip": nip, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session auth.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return session.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotNil(t, doc.Paths.Find("/troubleshoot/sessions/{id}/advance"))
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t, nil, nil)

	w := f.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	info := decode[map[string]string](t, f.do(t, "GET", "/info", "", nil))
	assert.Equal(t, "v0.1.0-test", info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = f.do(t, "GET", "/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SKP Helpdesk API")
}

func TestTroubleshootFlow(t *testing.T) {
	f := newFixture(t, nil, nil)

	w := f.do(t, "POST", "/troubleshoot/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decode[troubleshoot.View](t, w)
	assert.Equal(t, "sess-1", view.SessionID)
	assert.Equal(t, domain.Path{"root"}, view.Path)
	assert.False(t, view.CanGoBack)

	w = f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{"next_id": "tech_issue"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{"next_id": "save_fail"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{"next_id": "contact_it"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[troubleshoot.View](t, w)
	assert.True(t, view.IsTerminal())
	assert.NotEmpty(t, view.Contacts)
	assert.Equal(t, 80, view.Progress)

	t.Run("Invalid Transition", func(t *testing.T) {
		w := f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{"next_id": "root"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		got := decode[troubleshoot.View](t, f.do(t, "GET", "/troubleshoot/sessions/sess-1", "", nil))
		assert.Equal(t, domain.Path{"root", "tech_issue", "save_fail", "contact_it"}, got.Path)
	})

	t.Run("Missing Next ID", func(t *testing.T) {
		w := f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = f.do(t, "POST", "/troubleshoot/sessions/sess-1/back", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Path{"root", "tech_issue", "save_fail"}, decode[troubleshoot.View](t, w).Path)

	w = f.do(t, "POST", "/troubleshoot/sessions/sess-1/reset", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Path{"root"}, decode[troubleshoot.View](t, w).Path)

	w = f.do(t, "DELETE", "/troubleshoot/sessions/sess-1", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/troubleshoot/sessions/sess-1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, "POST", "/troubleshoot/sessions/sess-1/back", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTroubleshoot_UnknownNodeConflict(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	state := domain.NewState("stale", "root")
	state.Path = domain.Path{"root", "retired_node"}
	require.NoError(t, f.store.Save(ctx, "stale", state))

	w := f.do(t, "GET", "/troubleshoot/sessions/stale", "", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode[unknownNodeBody](t, w)
	assert.Contains(t, body.Error, "retired_node")
	require.NotNil(t, body.View)
	assert.Equal(t, domain.Path{"root"}, body.View.Path)

	saved, err := f.store.Load(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"root"}, saved.Path)
}

func TestGraphEndpoints(t *testing.T) {
	f := newFixture(t, nil, nil)

	nodes := decode[[]troubleshoot.NodeView](t, f.do(t, "GET", "/troubleshoot/graph", "", nil))
	assert.Len(t, nodes, 18)

	w := f.do(t, "GET", "/troubleshoot/graph.mmd", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.NotContains(t, w.Body.String(), "classDef")

	f.do(t, "POST", "/troubleshoot/sessions", "", nil)
	f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{"next_id": "content_issue"})
	w = f.do(t, "GET", "/troubleshoot/graph.mmd?session_id=sess-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class root visited;")
	assert.Contains(t, w.Body.String(), "class content_issue current;")

	w = f.do(t, "GET", "/troubleshoot/graph.mmd?session_id=missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	contacts := decode[[]domain.Contact](t, f.do(t, "GET", "/contacts", "", nil))
	assert.Len(t, contacts, 2)
}

func TestFAQEndpoints(t *testing.T) {
	f := newFixture(t, nil, nil)

	items := decode[[]domain.FAQItem](t, f.do(t, "GET", "/faqs?category=Pengisian+SKP", "", nil))
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)

	items = decode[[]domain.FAQItem](t, f.do(t, "GET", "/faqs?q=pppk", "", nil))
	require.Len(t, items, 1)

	categories := decode[[]string](t, f.do(t, "GET", "/faqs/categories", "", nil))
	assert.Equal(t, domain.CategoryAll, categories[0])

	item := decode[domain.FAQItem](t, f.do(t, "GET", "/faqs/5", "", nil))
	assert.Equal(t, 701, item.Views)

	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/faqs/99", "", nil).Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil, nil)

	w := f.do(t, "POST", "/auth/login", "", map[string]string{"nip": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgMissingCredentials, decode[errorBody](t, w).Error)

	w = f.do(t, "POST", "/auth/login", "", map[string]string{"nip": "user", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgInvalidCredentials, decode[errorBody](t, w).Error)

	assert.NotEmpty(t, f.login(t, "user", "user"))
}

func TestAuthenticatedEndpoints(t *testing.T) {
	f := newFixture(t, nil, nil)
	token := f.login(t, "198501012010011001", "123")

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/tickets/mine", "", nil).Code)

	w := f.do(t, "POST", "/tickets", token, map[string]string{"category": "Teknis", "question": "Tidak bisa simpan RHK."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ticket := decode[domain.Ticket](t, w)
	assert.Equal(t, "Ahmad Yani", ticket.Name)
	assert.Equal(t, "Dinas Kominfo", ticket.Unit)
	assert.Equal(t, domain.TicketPending, ticket.Status)

	w = f.do(t, "POST", "/tickets", token, map[string]string{"category": "Teknis"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Fields, "Question")

	mine := decode[[]domain.Ticket](t, f.do(t, "GET", "/tickets/mine", token, nil))
	assert.Len(t, mine, 2)

	answer := decode[map[string]string](t, f.do(t, "POST", "/assistant/ask", token, map[string]string{"question": "Apa itu SKP?"}))
	assert.Equal(t, "Silakan hubungi admin unit kerja.", answer["answer"])

	snap := decode[domain.SKPSnapshot](t, f.do(t, "POST", "/sync", token, nil))
	assert.Equal(t, "198501012010011001", snap.Period)

	assert.Equal(t, http.StatusForbidden, f.do(t, "GET", "/admin/tickets", token, nil).Code)
}

func TestUpstreamFailures(t *testing.T) {
	f := newFixture(t, errors.New("connection refused"), busyError{})
	token := f.login(t, "user", "user")

	w := f.do(t, "POST", "/assistant/ask", token, map[string]string{"question": "Q"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, assistant.FailureMessage, decode[errorBody](t, w).Error)

	w = f.do(t, "POST", "/sync", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Server sedang sibuk.", decode[errorBody](t, w).Error)
}

func TestAdminEndpoints(t *testing.T) {
	f := newFixture(t, nil, nil)
	token := f.login(t, "admin", "admin")

	t.Run("FAQ", func(t *testing.T) {
		w := f.do(t, "POST", "/admin/faqs", token, map[string]string{"category": "Regulasi", "question": "Q?", "answer": "A."})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := decode[domain.FAQItem](t, w)

		w = f.do(t, "PUT", "/admin/faqs/"+created.ID, token, map[string]string{"category": "Penilaian", "question": "Q2?", "answer": "A2."})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Penilaian", decode[domain.FAQItem](t, w).Category)

		w = f.do(t, "POST", "/admin/faqs", token, map[string]string{"category": "Regulasi", "question": "", "answer": "A."})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Pertanyaan dan Jawaban wajib diisi.", decode[errorBody](t, w).Error)

		assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/admin/faqs/"+created.ID, token, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, "DELETE", "/admin/faqs/"+created.ID, token, nil).Code)
	})

	t.Run("Users", func(t *testing.T) {
		input := map[string]string{"nip": "200001", "name": "Rudi", "password": "pw", "role": "asn", "unit_kerja": "Dinas Sosial"}
		assert.Equal(t, http.StatusCreated, f.do(t, "POST", "/admin/users", token, input).Code)

		w := f.do(t, "POST", "/admin/users", token, input)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, msgDuplicateUser, decode[errorBody](t, w).Error)

		users := decode[[]domain.UserProfile](t, f.do(t, "GET", "/admin/users?q=sosial", token, nil))
		require.Len(t, users, 1)
		assert.Equal(t, "Rudi", users[0].Name)
		assert.NotContains(t, f.do(t, "GET", "/admin/users", token, nil).Body.String(), "password")

		assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/admin/users/200001", token, nil).Code)
	})

	t.Run("Tickets And Stats", func(t *testing.T) {
		w := f.do(t, "POST", "/admin/tickets/T-2024-001/respond", token, map[string]string{"answer": "Sudah diperbaiki.", "status": "resolved"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, domain.TicketResolved, decode[domain.Ticket](t, w).Status)

		all := decode[[]domain.Ticket](t, f.do(t, "GET", "/admin/tickets", token, nil))
		assert.Len(t, all, 4)

		stats := decode[helpdesk.TicketStats](t, f.do(t, "GET", "/admin/stats", token, nil))
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 3, stats.ByStatus[domain.TicketResolved])

		templates := decode[[]domain.Template](t, f.do(t, "GET", "/admin/templates", token, nil))
		assert.Len(t, templates, 3)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.do(t, "GET", "/health", "", nil)

	w := f.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/health"`)
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t, nil, nil)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	f.do(t, "POST", "/troubleshoot/sessions", "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/troubleshoot/sessions/sess-1/events?watch=node", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 16)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				lines <- string(buf[:n])
			}
			if err != nil {
				close(lines)
				return
			}
		}
	}()

	var output strings.Builder
	waitFor := func(substr string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for !strings.Contains(output.String(), substr) {
			select {
			case chunk, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q; got %q", substr, output.String())
				}
				output.WriteString(chunk)
			case <-deadline:
				t.Fatalf("timed out waiting for %q; got %q", substr, output.String())
			}
		}
	}

	waitFor("event: ping")

	w := f.do(t, "POST", "/troubleshoot/sessions/sess-1/advance", "", map[string]string{"next_id": "tech_issue"})
	require.Equal(t, http.StatusOK, w.Code)
	waitFor(`"current_node_id":"tech_issue"`)
	waitFor(`"appended":["tech_issue"]`)

	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/troubleshoot/sessions/sess-1", "", nil).Code)
	waitFor("event: end")
}

func TestSubscribeEvents_ConcurrentMutationsReplayToStoredPath(t *testing.T) {
	doc, err := graph.Default()
	require.NoError(t, err)
	ts := troubleshoot.New(doc.Graph, directory.New(doc.Contacts), session.NewManager(memory.NewStore()),
		troubleshoot.WithIDGenerator(func() string { return "sess-1" }))

	server := &Server{
		deps:    Dependencies{Troubleshoot: ts},
		Streams: NewStreamManager(logging.NewNop()),
		logger:  logging.NewNop(),
	}
	ts.Watch(server.publish)
	handler := server.routes()
	do := func(method, path string, body any) int {
		var reader io.Reader
		if body != nil {
			data, _ := json.Marshal(body)
			reader = bytes.NewReader(data)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(method, path, reader))
		return w.Code
	}

	require.Equal(t, http.StatusCreated, do("POST", "/troubleshoot/sessions", nil))
	ch, cancel := server.Streams.Subscribe("sess-1")
	defer cancel()

	ops := []func(){
		func() { do("POST", "/troubleshoot/sessions/sess-1/advance", map[string]string{"next_id": "tech_issue"}) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/advance", map[string]string{"next_id": "save_fail"}) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/back", nil) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/advance", map[string]string{"next_id": "login_fail"}) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/reset", nil) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/advance", map[string]string{"next_id": "tech_issue"}) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/back", nil) },
		func() { do("POST", "/troubleshoot/sessions/sess-1/advance", map[string]string{"next_id": "data_issue"}) },
	}
	var wg sync.WaitGroup
	for _, op := range ops {
		wg.Add(1)
		go func(op func()) {
			defer wg.Done()
			op()
		}(op)
	}
	wg.Wait()

	replayed := domain.Path{"root"}
	for len(ch) > 0 {
		var diff domain.StateDiff
		require.NoError(t, json.Unmarshal([]byte(<-ch), &diff))
		require.NotNil(t, diff.Path)
		require.LessOrEqual(t, diff.Path.Popped, len(replayed)-1, "a delta never pops the root")
		replayed = append(replayed[:len(replayed)-diff.Path.Popped], diff.Path.Appended...)
		require.NotNil(t, diff.CurrentNodeID)
		assert.Equal(t, *diff.CurrentNodeID, replayed.Current())
	}

	view, err := ts.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, view.Path, replayed)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t, nil, nil)
	w := f.do(t, "GET", "/troubleshoot/sessions/nope/events", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamManager_CancelAfterClose(t *testing.T) {
	sm := NewStreamManager(nil)
	_, cancel := sm.Subscribe("s")
	sm.Close("s")
	_, cancelNew := sm.Subscribe("s")
	assert.NotPanics(t, cancel)
	assert.True(t, sm.HasSubscribers("s"))
	cancelNew()
	assert.False(t, sm.HasSubscribers("s"))
}
