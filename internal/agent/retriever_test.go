package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticRetrieverDummySource(t *testing.T) {
	retriever := NewStaticRetriever()

	record, err := retriever.FetchBusinessData(context.Background(), DefaultSource)
	if err != nil {
		t.Fatalf("fetch dummy source: %v", err)
	}
	if record.String("order_id") != "ORD-67890" {
		t.Fatalf("unexpected order_id: %v", record["order_id"])
	}
	if record.Float("amount") != 1250.00 {
		t.Fatalf("unexpected amount: %v", record["amount"])
	}
	if record.String("status") != "pending_review" {
		t.Fatalf("unexpected status: %v", record["status"])
	}

	// 返回的是副本，调用方修改不影响内部数据。
	record["amount"] = 1.0
	again, _ := retriever.FetchBusinessData(context.Background(), DefaultSource)
	if again.Float("amount") != 1250.00 {
		t.Fatal("retriever must hand out cloned records")
	}
}

func TestStaticRetrieverUnknownSource(t *testing.T) {
	retriever := NewStaticRetriever()

	record, err := retriever.FetchBusinessData(context.Background(), "no-such-source")
	if err != nil {
		t.Fatalf("unknown source should not fail: %v", err)
	}
	if len(record) != 0 {
		t.Fatalf("unknown source should yield an empty record, got %v", record)
	}
}

func TestStaticRetrieverLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  small-order:
    order_id: ORD-SMALL
    amount: 12.5
    status: ok
  dummy:
    order_id: OVERRIDDEN
    amount: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	retriever := NewStaticRetriever()
	if err := retriever.LoadSources(path); err != nil {
		t.Fatalf("load sources: %v", err)
	}

	record, err := retriever.FetchBusinessData(context.Background(), "small-order")
	if err != nil {
		t.Fatalf("fetch small-order: %v", err)
	}
	if record.String("order_id") != "ORD-SMALL" || record.Float("amount") != 12.5 {
		t.Fatalf("unexpected record: %v", record)
	}

	// 同名数据源以文件中的定义为准。
	dummy, _ := retriever.FetchBusinessData(context.Background(), DefaultSource)
	if dummy.String("order_id") != "OVERRIDDEN" {
		t.Fatalf("file definition should override builtin dummy, got %v", dummy["order_id"])
	}
}

func TestStaticRetrieverLoadSourcesErrors(t *testing.T) {
	retriever := NewStaticRetriever()

	if err := retriever.LoadSources(""); err == nil {
		t.Fatal("empty path should fail")
	}
	if err := retriever.LoadSources(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("sources: [unterminated"), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}
	if err := retriever.LoadSources(bad); err == nil {
		t.Fatal("malformed yaml should fail")
	}
}
