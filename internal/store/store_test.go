package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked with a file-based DB below.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestFileStoreUsesWAL(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"llm_request_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestAppendAndGetLLMEvent(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Purpose:      "insight.chat",
		RequestID:    "req-1",
		InputTokens:  120,
		OutputTokens: 40,
		LatencyMs:    850,
		Success:      true,
		RequestBody:  "[user]\nhow am I doing?",
		ResponseBody: "You look well rested.",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil {
		t.Fatal("expected event")
	}
	if e.Model != "gpt-4o-mini" || e.Purpose != "insight.chat" || e.RequestID != "req-1" {
		t.Errorf("unexpected event: %+v", e.LLMRequestEventData)
	}
	if !e.Success || e.InputTokens != 120 || e.OutputTokens != 40 || e.LatencyMs != 850 {
		t.Errorf("unexpected counters: %+v", e.LLMRequestEventData)
	}
	if e.ResponseBody != "You look well rested." {
		t.Errorf("response body = %q", e.ResponseBody)
	}
	if e.Timestamp.Before(before) {
		t.Errorf("timestamp %v earlier than %v", e.Timestamp, before)
	}
	if e.Sequence != 1 {
		t.Errorf("sequence = %d, want 1", e.Sequence)
	}
}

func TestGetLLMEventMissing(t *testing.T) {
	s := openTestStore(t)
	e, err := s.EventRepo().GetLLMEvent(context.Background(), 999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e != nil {
		t.Fatalf("expected nil, got %+v", e)
	}
}

func TestQueryLLMEventsFilters(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	purposes := []string{"insight.chat", "insight.structured_prediction", "insight.chat", "insight.free_text_insight"}
	for _, p := range purposes {
		if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: p, Model: "mock", Success: true}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("all = %d, want 4", len(all))
	}
	if all[0].Sequence != 4 || all[3].Sequence != 1 {
		t.Errorf("expected newest first, got sequences %d..%d", all[0].Sequence, all[3].Sequence)
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}

	chat, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "insight.chat"})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(chat) != 2 {
		t.Errorf("chat = %d, want 2", len(chat))
	}

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: 2, Before: 4})
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(after) != 1 || after[0].Sequence != 3 {
		t.Errorf("range query = %+v, want only sequence 3", after)
	}

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "insight.chat", Model: "mock", ErrorMessage: "timeout"}); err != nil {
		t.Fatalf("append failure: %v", err)
	}
	failed, err := repo.QueryLLMEvents(ctx, QueryOpts{Failed: true})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ErrorMessage != "timeout" {
		t.Errorf("failed query = %+v, want only the timeout", failed)
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	rows := []LLMRequestEventData{
		{Purpose: "insight.chat", Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 20, LatencyMs: 100, Success: true},
		{Purpose: "insight.chat", Model: "gpt-4o-mini", InputTokens: 50, OutputTokens: 10, LatencyMs: 300, Success: false},
		{Purpose: "insight.structured_prediction", Model: "claude-haiku", InputTokens: 10, OutputTokens: 5, LatencyMs: 50, Success: true},
	}
	for _, r := range rows {
		if err := repo.AppendLLMRequest(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	chat := byPurpose[0]
	if chat.Purpose != "insight.chat" || chat.Calls != 2 || chat.Failures != 1 {
		t.Errorf("chat usage = %+v", chat)
	}
	if chat.InputTokens != 150 || chat.OutputTokens != 30 || chat.AvgLatencyMs != 200 {
		t.Errorf("chat totals = %+v", chat)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o-mini" || byModel[0].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestConcurrentAppendsGetDistinctSequences(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	repo := s.EventRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "load"}); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	seen := make(map[int64]bool)
	for _, e := range events {
		if seen[e.Sequence] {
			t.Fatalf("duplicate sequence %d", e.Sequence)
		}
		seen[e.Sequence] = true
	}
	if len(seen) != 10 {
		t.Errorf("sequences = %d, want 10", len(seen))
	}
}

func TestDefaultDBPathHonorsEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "x.db")
	t.Setenv("STRESSLENS_DB", p)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if got != p {
		t.Errorf("path = %q, want %q", got, p)
	}
}

func TestPragmasOnEveryConnection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Hold two connections at once so the pool cannot hand back the same one.
	var conns []*sql.Conn
	for range 2 {
		c, err := s.DB().Conn(ctx)
		if err != nil {
			t.Fatalf("conn: %v", err)
		}
		defer c.Close()
		conns = append(conns, c)
	}
	for i, c := range conns {
		var timeout int
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if timeout != 5000 {
			t.Errorf("conn %d busy_timeout = %d, want 5000", i, timeout)
		}
	}
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas("/tmp/a.db"); !strings.HasPrefix(got, "/tmp/a.db?_pragma=busy_timeout%285000%29&") {
		t.Errorf("plain path dsn = %q", got)
	}
	if got := withPragmas("file:x?mode=memory"); !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Errorf("uri dsn = %q", got)
	}
}

func TestPruneLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for range 3 {
		if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "insight.chat"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n, err := repo.PruneLLMEvents(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("prune old = %d, %v; want nothing removed", n, err)
	}
	n, err = repo.PruneLLMEvents(ctx, time.Now().Add(time.Minute))
	if err != nil || n != 3 {
		t.Fatalf("prune all = %d, %v; want 3", n, err)
	}
	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events after prune = %d", len(events))
	}
}
