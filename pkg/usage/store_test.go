package usage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	titanerrors "github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/llm"
	"github.com/titanlabs/titan/pkg/resilience"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestRecordCallAndStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.RecordCall(ctx, llm.Completion{
		Provider: "yandexgpt",
		Model:    "yandexgpt",
		Usage:    llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		Duration: 120 * time.Millisecond,
	}, nil)
	store.RecordCall(ctx, llm.Completion{
		Provider: "yandexgpt",
		Model:    "yandexgpt",
		Usage:    llm.Usage{TotalTokens: 7},
	}, nil)
	store.RecordCall(ctx, llm.Completion{
		Provider: "gpt-4",
		Model:    "gpt-4",
	}, titanerrors.New(titanerrors.CodeTimeout, "deadline", nil))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCalls != 3 || stats.TotalErrors != 1 || stats.TotalTokens != 22 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if len(stats.ByProvider) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(stats.ByProvider))
	}
	// Alphabetical: gpt-4 before yandexgpt.
	if stats.ByProvider[0].Provider != "gpt-4" || stats.ByProvider[0].Errors != 1 {
		t.Errorf("unexpected gpt-4 stats: %+v", stats.ByProvider[0])
	}
	if stats.ByProvider[1].Calls != 2 || stats.ByProvider[1].TotalTokens != 22 {
		t.Errorf("unexpected yandexgpt stats: %+v", stats.ByProvider[1])
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.RecordCall(ctx, llm.Completion{Provider: "mock", Model: "m"}, nil)
	}

	records, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
	for _, r := range records {
		if r.ID == "" {
			t.Errorf("record missing id")
		}
		if r.Status != StatusOK {
			t.Errorf("unexpected status %q", r.Status)
		}
	}
}

func TestErrorCodePersisted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.RecordCall(ctx, llm.Completion{Provider: "mock"},
		titanerrors.New(titanerrors.CodeProviderResponse, "bad response", errors.New("boom")))

	records, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != StatusError {
		t.Errorf("status = %q, want error", records[0].Status)
	}
	if records[0].ErrorCode != string(titanerrors.CodeProviderResponse) {
		t.Errorf("error code = %q", records[0].ErrorCode)
	}
}

func TestStoreAsRouterRecorder(t *testing.T) {
	store := newTestStore(t)

	router := llm.NewRouter(
		llm.WithDefaultProvider("mock"),
		llm.WithRecorder(store),
		llm.WithRetry(resilience.DefaultRetryConfig().WithMaxAttempts(1)),
	)
	router.Bind(&llm.MockProvider{Response: "ok"}, "mock-model", "mock")

	if _, err := router.Generate(context.Background(), "hi", "", nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCalls != 1 || stats.TotalTokens != 20 {
		t.Errorf("router call not recorded: %+v", stats)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	store, err := Open(t.TempDir() + "/usage.db")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	store.RecordCall(context.Background(), llm.Completion{Provider: "mock"}, nil)
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCalls != 1 {
		t.Errorf("expected 1 call, got %d", stats.TotalCalls)
	}
}

func TestRecordCallWarnsWhenInsertFails(t *testing.T) {
	store := newTestStore(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	store.RecordCall(context.Background(), llm.Completion{Provider: "mock"}, nil)

	if !strings.Contains(buf.String(), "usage record insert failed") {
		t.Errorf("expected a warning about the failed insert, got %q", buf.String())
	}
}
