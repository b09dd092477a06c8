package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testDoer struct {
	calls int
	fail  func(body string) bool
}

func (d *testDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	status := http.StatusOK
	if d.fail != nil && d.fail(string(body)) {
		status = http.StatusBadGateway
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

type testNotifier struct {
	messages []string
}

func (n *testNotifier) Flash(message string) {
	n.messages = append(n.messages, message)
}

func testStore(t *testing.T) *FileStore {
	return NewFileStore(t.TempDir())
}

func testSubmission(body string) Submission {
	return Submission{
		URL:           "http://localhost/api/v0/races/1/parts/2/timing",
		Method:        http.MethodPost,
		Body:          body,
		QueueEligible: true,
	}
}

func TestQueue_Submit(t *testing.T) {
	doer := testDoer{}
	notifier := testNotifier{}
	queue := NewQueue(testStore(t), &doer, &notifier, nil, nil)
	outcome := queue.Submit(context.Background(), testSubmission("bib=1"))
	if outcome.Kind != OutcomeSent {
		t.Fatalf("Expected sent outcome, got %v", outcome)
	}
	if doer.calls != 1 {
		t.Fatalf("Expected 1 request, got %d", doer.calls)
	}
	if queue.Len() != 0 {
		t.Fatal("Queue should be empty")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("Expected 1 message, got %v", notifier.messages)
	}
}

func TestQueue_SubmitOffline(t *testing.T) {
	doer := testDoer{}
	notifier := testNotifier{}
	online := false
	queue := NewQueue(
		testStore(t), &doer, &notifier, nil,
		func() bool { return online },
	)
	outcome := queue.Submit(context.Background(), testSubmission("bib=1"))
	if outcome.Kind != OutcomeQueued {
		t.Fatalf("Expected queued outcome, got %v", outcome)
	}
	// Offline queue eligible submission should not touch network.
	if doer.calls != 0 {
		t.Fatalf("Expected no requests, got %d", doer.calls)
	}
	if queue.Len() != 1 {
		t.Fatalf("Expected 1 queued record, got %d", queue.Len())
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("Expected 1 message, got %v", notifier.messages)
	}
	online = true
	if err := queue.Online(context.Background()); err != nil {
		t.Fatal("Error: ", err)
	}
	if doer.calls != 1 {
		t.Fatalf("Expected 1 request, got %d", doer.calls)
	}
	if queue.Len() != 0 {
		t.Fatal("Queue should be empty")
	}
}

func TestQueue_SubmitFailure(t *testing.T) {
	doer := testDoer{fail: func(string) bool { return true }}
	notifier := testNotifier{}
	queue := NewQueue(testStore(t), &doer, &notifier, nil, nil)
	outcome := queue.Submit(context.Background(), testSubmission("bib=1"))
	if outcome.Kind != OutcomeQueued {
		t.Fatalf("Expected queued outcome, got %v", outcome)
	}
	if queue.Len() != 1 {
		t.Fatalf("Expected 1 queued record, got %d", queue.Len())
	}
	// Non-eligible submission is lost with notification.
	sub := testSubmission("login=x")
	sub.QueueEligible = false
	outcome = queue.Submit(context.Background(), sub)
	if outcome.Kind != OutcomeFailed {
		t.Fatalf("Expected failed outcome, got %v", outcome)
	}
	if outcome.Err == nil {
		t.Fatal("Expected error in outcome")
	}
	if queue.Len() != 1 {
		t.Fatalf("Expected 1 queued record, got %d", queue.Len())
	}
	if len(notifier.messages) != 2 {
		t.Fatalf("Expected 2 messages, got %v", notifier.messages)
	}
}

func TestQueue_Flush(t *testing.T) {
	store := testStore(t)
	doer := testDoer{}
	notifier := testNotifier{}
	offline := func() bool { return false }
	queue := NewQueue(store, &doer, &notifier, nil, offline)
	ctx := context.Background()
	for _, body := range []string{"bib=1", "bib=2", "bib=3"} {
		if outcome := queue.Submit(ctx, testSubmission(body)); outcome.Kind != OutcomeQueued {
			t.Fatalf("Expected queued outcome, got %v", outcome)
		}
	}
	notifier.messages = nil
	// Second record fails, others are accepted.
	doer.fail = func(body string) bool { return body == "bib=2" }
	if err := queue.Flush(ctx); err != nil {
		t.Fatal("Error: ", err)
	}
	records, err := store.Load()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(records) != 1 || records[0].Body != "bib=2" {
		t.Fatalf("Expected failed record to be kept, got %v", records)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("Expected 1 message, got %v", notifier.messages)
	}
	// Failed record keeps its position and is retried.
	doer.fail = nil
	if err := queue.Flush(ctx); err != nil {
		t.Fatal("Error: ", err)
	}
	if queue.Len() != 0 {
		t.Fatal("Queue should be empty")
	}
}

func TestQueue_FlushKeepsOrder(t *testing.T) {
	store := testStore(t)
	doer := testDoer{}
	notifier := testNotifier{}
	queue := NewQueue(
		store, &doer, &notifier, nil, func() bool { return false },
	)
	ctx := context.Background()
	for _, body := range []string{"bib=1", "bib=2", "bib=3"} {
		queue.Submit(ctx, testSubmission(body))
	}
	doer.fail = func(body string) bool { return body != "bib=2" }
	if err := queue.Flush(ctx); err != nil {
		t.Fatal("Error: ", err)
	}
	records, err := store.Load()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Body != "bib=1" || records[1].Body != "bib=3" {
		t.Fatalf("Records should keep original order, got %v", records)
	}
}

func TestQueue_FlushEmpty(t *testing.T) {
	doer := testDoer{}
	notifier := testNotifier{}
	queue := NewQueue(testStore(t), &doer, &notifier, nil, nil)
	if err := queue.Flush(context.Background()); err != nil {
		t.Fatal("Error: ", err)
	}
	if doer.calls != 0 {
		t.Fatalf("Expected no requests, got %d", doer.calls)
	}
	// Empty flush should not notify.
	if len(notifier.messages) != 0 {
		t.Fatalf("Expected no messages, got %v", notifier.messages)
	}
}

func TestQueue_CorruptedStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, QueueFile)
	if err := os.WriteFile(path, []byte("{invalid"), 0644); err != nil {
		t.Fatal("Error: ", err)
	}
	store := NewFileStore(dir)
	if _, err := store.Load(); err == nil {
		t.Fatal("Expected error for corrupted store")
	}
	doer := testDoer{}
	queue := NewQueue(
		store, &doer, nil, nil, func() bool { return false },
	)
	// Corrupted store behaves as empty queue.
	if queue.Len() != 0 {
		t.Fatal("Queue should be empty")
	}
	outcome := queue.Submit(context.Background(), testSubmission("bib=1"))
	if outcome.Kind != OutcomeQueued {
		t.Fatalf("Expected queued outcome, got %v", outcome)
	}
	records, err := store.Load()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
}

func TestTerminalChime(t *testing.T) {
	var chime TerminalChime
	// Play before unlock should be no-op.
	chime.Play()
	var buf bytes.Buffer
	chime.out = &buf
	chime.Unlock()
	chime.Play()
	if buf.String() != "\a" {
		t.Fatalf("Expected bell, got %q", buf.String())
	}
}

func TestFileStore(t *testing.T) {
	store := testStore(t)
	records, err := store.Load()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(records) != 0 {
		t.Fatal("Expected empty queue")
	}
	if err := store.Replace([]Record{
		{URL: "http://localhost/api", Method: "POST", Body: "bib=1"},
	}); err != nil {
		t.Fatal("Error: ", err)
	}
	records, err = store.Load()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(records) != 1 || records[0].Body != "bib=1" {
		t.Fatalf("Invalid records: %v", records)
	}
	if err := store.Replace(nil); err != nil {
		t.Fatal("Error: ", err)
	}
	records, err = store.Load()
	if err != nil {
		t.Fatal("Error: ", err)
	}
	if len(records) != 0 {
		t.Fatal("Expected empty queue")
	}
}
