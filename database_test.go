package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGetResult(t *testing.T) {
	db := openTestDB(t)
	res := MatchResult{
		SessionID: "sess-1",
		RoomCode:  "1234",
		Status:    "finished",
		Duration:  42.5,
		Players: []PlayerResult{
			{UUID: "uuid-a", Name: "Alice", Outcome: "won", Score: 10},
			{UUID: "uuid-b", Name: "Bob", Outcome: "lost", Score: 9},
		},
	}
	if err := db.RecordResult(res); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetResult("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("stored result not found")
	}
	if got.RoomCode != "1234" || got.Status != "finished" || got.Duration != 42.5 {
		t.Errorf("loaded %+v", got)
	}
	if len(got.Players) != 2 {
		t.Fatalf("%d players loaded", len(got.Players))
	}
	// Loaded in uuid order
	if got.Players[0].UUID != "uuid-a" || got.Players[0].Outcome != "won" || got.Players[0].Score != 10 {
		t.Errorf("player row %+v", got.Players[0])
	}
	if got.Players[1].UUID != "uuid-b" || got.Players[1].Outcome != "lost" {
		t.Errorf("player row %+v", got.Players[1])
	}
}

func TestGetResultMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetResult("nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestRecordResultReplacesPrevious(t *testing.T) {
	db := openTestDB(t)
	res := MatchResult{
		SessionID: "sess-1", RoomCode: "1234", Status: "finished",
		Players: []PlayerResult{{UUID: "uuid-a", Outcome: "won"}, {UUID: "uuid-b", Outcome: "lost"}},
	}
	if err := db.RecordResult(res); err != nil {
		t.Fatal(err)
	}
	res.Status = "abandoned"
	res.Players = []PlayerResult{{UUID: "uuid-a", Outcome: "won"}}
	if err := db.RecordResult(res); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetResult("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "abandoned" || len(got.Players) != 1 {
		t.Errorf("replacement not applied: %+v", got)
	}
}
