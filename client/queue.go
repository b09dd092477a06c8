// Package client provides submission queue that survives
// connectivity loss.
//
// Submissions marked as queue eligible are stored locally when
// the server is unreachable and resubmitted in original order
// once connectivity is regained.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Record represents single queued submission.
type Record struct {
	URL      string `json:"url"`
	Method   string `json:"method"`
	Body     string `json:"body"`
	QueuedAt int64  `json:"queuedAt"`
}

// Submission represents request that should reach the server.
type Submission struct {
	URL         string
	Method      string
	Body        string
	ContentType string
	// QueueEligible marks submission for local queueing when
	// the server is unreachable. Non-eligible submissions are
	// lost on failure.
	QueueEligible bool
}

// OutcomeKind represents kind of submission outcome.
type OutcomeKind int

const (
	// OutcomeSent means submission was accepted by the server.
	OutcomeSent OutcomeKind = 1
	// OutcomeQueued means submission was stored locally.
	OutcomeQueued OutcomeKind = 2
	// OutcomeFailed means submission was lost.
	OutcomeFailed OutcomeKind = 3
)

// Outcome represents result of submission.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Doer represents HTTP client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Queue sends submissions and stores unsent ones locally.
type Queue struct {
	store    Store
	client   Doer
	notifier Notifier
	chime    Chime
	online   func() bool
	mutex    sync.Mutex
}

// NewQueue creates new submission queue.
//
// Client, notifier, chime and online probe may be nil, in which
// case http.DefaultClient, discarding notifier, silent chime and
// always-online probe are used.
func NewQueue(
	store Store,
	client Doer,
	notifier Notifier,
	chime Chime,
	online func() bool,
) *Queue {
	if client == nil {
		client = http.DefaultClient
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if chime == nil {
		chime = nopChime{}
	}
	if online == nil {
		online = func() bool { return true }
	}
	return &Queue{
		store:    store,
		client:   client,
		notifier: notifier,
		chime:    chime,
		online:   online,
	}
}

// Submit sends submission to the server or queues it locally.
//
// User is notified exactly once for every outcome. Queue
// eligible submissions never touch the network while offline.
func (q *Queue) Submit(ctx context.Context, sub Submission) Outcome {
	record := Record{
		URL:      sub.URL,
		Method:   sub.Method,
		Body:     sub.Body,
		QueuedAt: time.Now().Unix(),
	}
	if sub.QueueEligible && !q.online() {
		return q.enqueue(record)
	}
	if err := q.send(ctx, record, sub.ContentType); err != nil {
		if sub.QueueEligible {
			return q.enqueue(record)
		}
		q.notifier.Flash(fmt.Sprintf("Submission failed: %v", err))
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	q.notifier.Flash("Submission saved")
	q.chime.Play()
	return Outcome{Kind: OutcomeSent}
}

// Flush resubmits queued records in original order.
//
// Records accepted by the server are removed, failed ones are
// kept in their original relative order. Flushing an empty
// queue is a no-op without notification.
func (q *Queue) Flush(ctx context.Context) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	records := q.load()
	if len(records) == 0 {
		return nil
	}
	var remaining []Record
	sent := 0
	for _, record := range records {
		if err := q.send(ctx, record, ""); err != nil {
			remaining = append(remaining, record)
			continue
		}
		sent++
	}
	if err := q.store.Replace(remaining); err != nil {
		return err
	}
	if sent > 0 {
		q.notifier.Flash("Queued submissions sent")
		q.chime.Play()
	}
	return nil
}

// Online should be called when connectivity is regained.
func (q *Queue) Online(ctx context.Context) error {
	return q.Flush(ctx)
}

// Start flushes queue left over from previous runs.
func (q *Queue) Start(ctx context.Context) error {
	return q.Flush(ctx)
}

// Len returns amount of queued records.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.load())
}

// load reads queued records failing open to empty queue.
func (q *Queue) load() []Record {
	records, err := q.store.Load()
	if err != nil {
		return nil
	}
	return records
}

func (q *Queue) enqueue(record Record) Outcome {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	records := append(q.load(), record)
	if err := q.store.Replace(records); err != nil {
		q.notifier.Flash(fmt.Sprintf("Submission failed: %v", err))
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	q.notifier.Flash("No connection, submission queued")
	return Outcome{Kind: OutcomeQueued}
}

func (q *Queue) send(
	ctx context.Context, record Record, contentType string,
) error {
	method := record.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(
		ctx, method, record.URL, strings.NewReader(record.Body),
	)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/x-www-form-urlencoded"
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
