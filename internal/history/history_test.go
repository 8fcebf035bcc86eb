package history

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := s.Record(ctx,
		Entry{File: "/pics/a.jpg", URL: "http://x/a.jpg", Size: 10, Username: "bob", UploadedAt: base},
		Entry{File: "/pics/b.jpg", URL: "http://x/b.jpg", Size: 20, Username: "bob", UploadedAt: base.Add(time.Hour)},
	)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].File != "/pics/b.jpg" {
		t.Errorf("newest first expected, got %s", entries[0].File)
	}
	if entries[1].Size != 10 || entries[1].URL != "http://x/a.jpg" || !entries[1].UploadedAt.Equal(base) {
		t.Errorf("entry = %+v", entries[1])
	}

	limited, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d entries", len(limited))
	}
}

func TestRecordDefaultsTime(t *testing.T) {
	s := openTestStore(t)
	before := time.Now().Add(-time.Second)
	if err := s.Record(context.Background(), Entry{File: "f", URL: "u"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, _ := s.List(context.Background(), 0)
	if len(entries) != 1 || entries[0].UploadedAt.Before(before) {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestRecordNothing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Record(context.Background()); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Record(context.Background(), Entry{File: "f", URL: "u"})
	s.Close()

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	entries, _ := s.List(context.Background(), 0)
	if len(entries) != 1 {
		t.Fatalf("got %d entries after reopen", len(entries))
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	s.Record(context.Background(), Entry{File: "f", URL: "u"})
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := s.List(context.Background(), 0)
	if len(entries) != 0 {
		t.Fatalf("got %d entries after Clear", len(entries))
	}
}
