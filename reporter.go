package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// MatchResult is the fixed payload shape reported when a match concludes.
type MatchResult struct {
	SessionID string         `json:"sessionId"`
	RoomCode  string         `json:"roomCode"`
	Status    string         `json:"status"` // "finished" or "abandoned"
	Duration  float64        `json:"durationSeconds"`
	Players   []PlayerResult `json:"players"`
}

// PlayerResult is one participant's outcome.
type PlayerResult struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Outcome string `json:"outcome"` // "won", "lost" or "left"
	Score   int    `json:"score"`
}

// Reporter persists and forwards match results off the tick path. Both
// destinations are best-effort: a failure is logged and local cleanup
// proceeds regardless.
type Reporter struct {
	db     *DB
	url    string
	client *http.Client
	events chan MatchResult
	wg     sync.WaitGroup
}

// NewReporter starts the background writer. db and url may each be
// empty/nil to disable that destination.
func NewReporter(db *DB, url string) *Reporter {
	r := &Reporter{
		db:     db,
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		events: make(chan MatchResult, 64),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Report enqueues a result without blocking; when the queue is full the
// result is dropped with a warning.
func (r *Reporter) Report(res MatchResult) {
	defer func() { recover() }()
	select {
	case r.events <- res:
	default:
		Log.Warnw("results queue full, dropping", "session", res.SessionID)
	}
}

// Close drains the queue and stops the writer.
func (r *Reporter) Close() {
	close(r.events)
	r.wg.Wait()
}

func (r *Reporter) writer() {
	defer r.wg.Done()
	for res := range r.events {
		r.persist(res)
		r.post(res)
	}
}

func (r *Reporter) persist(res MatchResult) {
	if r.db == nil {
		return
	}
	if err := r.db.RecordResult(res); err != nil {
		Log.Errorw("result persist failed", "session", res.SessionID, "err", err)
	}
}

func (r *Reporter) post(res MatchResult) {
	if r.url == "" {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		Log.Errorw("result marshal failed", "session", res.SessionID, "err", err)
		return
	}
	resp, err := r.client.Post(r.url, "application/json", bytes.NewReader(body))
	if err != nil {
		Log.Warnw("result post failed", "session", res.SessionID, "err", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		Log.Warnw("result post rejected", "session", res.SessionID, "status", resp.StatusCode)
	}
}
