package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caskdeck/caskdeck/internal/brew"
	"github.com/caskdeck/caskdeck/internal/errors"
	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/task"
	"github.com/caskdeck/caskdeck/internal/taskqueue"
)

// queueSubmitter reports submissions through a real queue so the board
// sees them, without running anything.
type queueSubmitter struct {
	queue *taskqueue.ReportingQueue
}

func (q *queueSubmitter) Submit(action task.Action, packageID, displayName string) (task.Task, error) {
	t, err := task.New(action, packageID, displayName)
	if err != nil {
		return task.Task{}, err
	}
	if err := q.queue.Enqueue(t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

type fakeCasks struct {
	installed []string
	outdated  []brew.OutdatedCask
	err       error
}

func (f *fakeCasks) Installed(context.Context) ([]string, error) { return f.installed, f.err }

func (f *fakeCasks) Outdated(context.Context) ([]brew.OutdatedCask, error) { return f.outdated, f.err }

type harness struct {
	srv      *Server
	reporter *status.Reporter
	board    *status.Board
	casks    *fakeCasks
}

func newHarness(t *testing.T, admit taskqueue.AdmitFunc) *harness {
	t.Helper()
	reporter := status.NewReporter(event.NewBus(nil), nil, nil)
	board := status.NewBoard(0)
	board.Attach(reporter)
	casks := &fakeCasks{
		installed: []string{"firefox", "google-chrome", "slack"},
		outdated: []brew.OutdatedCask{
			{Token: "google-chrome", InstalledVersions: []string{"120"}, CurrentVersion: "121"},
			{Token: "zoom", InstalledVersions: []string{"5.16"}, CurrentVersion: "5.17"},
		},
	}
	srv := New(Config{
		Runner: &queueSubmitter{queue: taskqueue.NewReportingQueue(taskqueue.New(admit), reporter)},
		Board:  board,
		Casks:  casks,
	})
	return &harness{srv: srv, reporter: reporter, board: board, casks: casks}
}

func (h *harness) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	code, body := h.do(t, http.MethodGet, "/health", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("GET /health = %d %s", code, body)
	}
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"install", `{"action":"install","package_id":"firefox","display_name":"Firefox"}`, http.StatusAccepted},
		{"update alias", `{"action":"update","package_id":"zoom"}`, http.StatusAccepted},
		{"unknown action", `{"action":"reinstall","package_id":"firefox"}`, http.StatusBadRequest},
		{"missing package", `{"action":"install"}`, http.StatusBadRequest},
		{"malformed body", `{"action":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			code, body := h.do(t, http.MethodPost, "/api/v1/tasks", tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", code, tt.wantCode, body)
			}
			if code != http.StatusAccepted {
				var er ErrorResponse
				if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
					t.Errorf("error body = %s", body)
				}
				return
			}
			var got task.Task
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode task: %v", err)
			}
			if got.ID == "" {
				t.Error("task ID is empty")
			}
			v, ok := h.board.Get(got.ID)
			if !ok || v.State != task.StateQueued {
				t.Errorf("board view = %+v, %v; want queued", v, ok)
			}
		})
	}
}

func TestCreateTask_Duplicate(t *testing.T) {
	h := newHarness(t, taskqueue.RejectDuplicatePackage)
	body := `{"action":"install","package_id":"firefox"}`
	if code, _ := h.do(t, http.MethodPost, "/api/v1/tasks", body); code != http.StatusAccepted {
		t.Fatalf("first submit = %d", code)
	}
	if code, _ := h.do(t, http.MethodPost, "/api/v1/tasks", body); code != http.StatusConflict {
		t.Errorf("duplicate submit = %d, want 409", code)
	}
}

func TestListAndGetTasks(t *testing.T) {
	h := newHarness(t, nil)
	for _, pkg := range []string{"firefox", "slack"} {
		h.do(t, http.MethodPost, "/api/v1/tasks", fmt.Sprintf(`{"action":"install","package_id":%q}`, pkg))
	}
	snap := h.board.Snapshot()
	first := snap.Tasks[0].Task
	if err := h.reporter.Running(first); err != nil {
		t.Fatalf("Running: %v", err)
	}

	code, body := h.do(t, http.MethodGet, "/api/v1/tasks", "")
	if code != http.StatusOK {
		t.Fatalf("list = %d", code)
	}
	var all status.Snapshot
	if err := json.Unmarshal(body, &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Tasks) != 2 || all.Counts.Running != 1 || all.Counts.Queued != 1 {
		t.Errorf("snapshot = %+v", all)
	}

	_, body = h.do(t, http.MethodGet, "/api/v1/tasks?state=running", "")
	var running status.Snapshot
	if err := json.Unmarshal(body, &running); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(running.Tasks) != 1 || running.Tasks[0].Task.ID != first.ID {
		t.Errorf("filtered tasks = %+v", running.Tasks)
	}

	_, body = h.do(t, http.MethodGet, "/api/v1/tasks?state=failed", "")
	if !strings.Contains(string(body), `"tasks":[]`) {
		t.Errorf("empty filter body = %s", body)
	}

	code, body = h.do(t, http.MethodGet, "/api/v1/tasks/"+first.ID, "")
	if code != http.StatusOK || !strings.Contains(string(body), `"running"`) {
		t.Errorf("get = %d %s", code, body)
	}
	if code, _ := h.do(t, http.MethodGet, "/api/v1/tasks/nope", ""); code != http.StatusNotFound {
		t.Errorf("get unknown = %d, want 404", code)
	}
}

func TestCasks(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/v1/casks/installed", []string{"firefox", "google-chrome", "slack"}},
		{"/api/v1/casks/installed?match=google-*", []string{"google-chrome"}},
		{"/api/v1/casks/outdated", []string{"google-chrome", "zoom"}},
		{"/api/v1/casks/outdated?match=zoom,slack", []string{"zoom"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			code, body := h.do(t, http.MethodGet, tt.target, "")
			if code != http.StatusOK {
				t.Fatalf("status = %d (%s)", code, body)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(body), `"`+want+`"`) {
					t.Errorf("body %s missing %q", body, want)
				}
			}
		})
	}

	if code, _ := h.do(t, http.MethodGet, "/api/v1/casks/installed?match=[", ""); code != http.StatusBadRequest {
		t.Errorf("bad pattern = %d, want 400", code)
	}

	h.casks.err = errors.New("brew exploded")
	code, body := h.do(t, http.MethodGet, "/api/v1/casks/outdated", "")
	if code != http.StatusInternalServerError {
		t.Errorf("brew failure = %d, want 500", code)
	}
	if strings.Contains(string(body), "exploded") || !strings.Contains(string(body), "internal server error") {
		t.Errorf("brew failure body = %s, want a generic message", body)
	}
}

func TestRequestID(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := h.srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("%s = %q, want abc-123", RequestIDHeader, got)
	}
}

func TestEventsRequiresUpgrade(t *testing.T) {
	h := newHarness(t, nil)
	if code, _ := h.do(t, http.MethodGet, "/ws/events", ""); code != http.StatusUpgradeRequired {
		t.Errorf("plain GET /ws/events = %d, want 426", code)
	}
}

func TestNewMessage(t *testing.T) {
	tk, _ := task.New(task.ActionInstall, "firefox", "Firefox")

	m, ok := NewMessage(event.NewTaskStateEvent(tk, task.StateFailed, "boom", ""))
	if !ok || m.Type != MessageState || m.TaskID != tk.ID || m.State != task.StateFailed || m.Message != "boom" {
		t.Errorf("state message = %+v", m)
	}

	m, ok = NewMessage(event.NewTaskProgressEvent(tk, task.Progress{Percent: 40, Text: "Downloading"}))
	if !ok || m.Type != MessageProgress || m.Progress == nil || m.Progress.Percent != 40 {
		t.Errorf("progress message = %+v", m)
	}

	m, ok = NewMessage(event.NewNotificationEvent(tk.ID, "Task Complete", "Firefox was successfully installed."))
	if !ok || m.Type != MessageNotification || m.Title != "Task Complete" {
		t.Errorf("notification message = %+v", m)
	}
}

func TestClient_DropsWhenFull(t *testing.T) {
	cl := newClient(2)
	for i := 0; i < 5; i++ {
		cl.offer(Message{Type: MessageProgress})
	}
	if len(cl.ch) != 2 {
		t.Errorf("buffered = %d, want 2", len(cl.ch))
	}
	if cl.dropped.Load() != 3 {
		t.Errorf("dropped = %d, want 3", cl.dropped.Load())
	}

	cl.close()
	cl.close()
	if cl.offer(Message{}) {
		t.Error("offer after close should fail")
	}
}

func TestClientSet_CloseAll(t *testing.T) {
	set := newClientSet()
	clients := []*client{newClient(1), newClient(1)}
	for _, cl := range clients {
		set.add(cl)
	}
	set.remove(clients[1])
	if set.len() != 1 {
		t.Fatalf("len = %d, want 1", set.len())
	}

	set.closeAll()
	select {
	case <-clients[0].done:
	default:
		t.Error("closeAll did not close the client")
	}
}

func TestSubscriberNeverBlocksPublisher(t *testing.T) {
	h := newHarness(t, nil)
	cl := newClient(1)
	_, stop := h.board.Watch(func(e event.Event) {
		if m, ok := NewMessage(e); ok {
			cl.offer(m)
		}
	})
	defer stop()

	for _, pkg := range []string{"a", "b", "c", "d"} {
		tk, _ := task.New(task.ActionInstall, pkg, "")
		if err := h.reporter.Queued(tk); err != nil {
			t.Fatalf("Queued(%s): %v", pkg, err)
		}
	}

	if cl.dropped.Load() == 0 {
		t.Error("expected drops for a client that never reads")
	}
}
