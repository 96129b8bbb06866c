package store

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yourorg/botapigen/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "botapigen.db"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSnapshotCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	snap, err := s.SaveSnapshot("https://core.telegram.org/bots/api", "<h4>getMe</h4>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(snap.ID, "snap_") || !strings.HasSuffix(snap.ID, "_001") {
		t.Fatalf("unexpected snapshot id %q", snap.ID)
	}
	if snap.Size != len("<h4>getMe</h4>") || len(snap.ContentHash) != 64 {
		t.Fatalf("unexpected snapshot metadata: %+v", snap)
	}

	got, err := s.GetSnapshot(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HTML != "<h4>getMe</h4>" || got.Source != snap.Source {
		t.Fatalf("snapshot mismatch: %+v", got)
	}

	second, err := s.SaveSnapshot("file", "<h4>getUpdates</h4>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(second.ID, "_002") {
		t.Fatalf("expected second id to end in _002, got %q", second.ID)
	}

	list, err := s.ListSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(list))
	}
	for _, l := range list {
		if l.HTML != "" {
			t.Fatalf("list should not carry html")
		}
	}
}

func TestSaveSnapshotDeduplicates(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	first, err := s.SaveSnapshot("a", "<p>same</p>")
	if err != nil {
		t.Fatal(err)
	}
	again, err := s.SaveSnapshot("b", "<p>same</p>")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID || again.Source != "a" {
		t.Fatalf("expected existing snapshot %s, got %+v", first.ID, again)
	}
	if list, _ := s.ListSnapshots(); len(list) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(list))
	}
}

func TestRunsAndCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	snap, _ := s.SaveSnapshot("file", "<p>x</p>")
	clean := &types.Run{SnapshotID: snap.ID, Catalogue: "api.yaml", Format: "typescript", TypeCount: 2, MethodCount: 1}
	if err := s.SaveRun(clean, nil); err != nil {
		t.Fatal(err)
	}
	if clean.ID == 0 || clean.Status != RunOK || clean.CreatedAt.IsZero() {
		t.Fatalf("run not filled in: %+v", clean)
	}

	partial := &types.Run{SnapshotID: snap.ID, Catalogue: "api.yaml", Format: "json"}
	diags := []types.Diagnostic{
		{Kind: types.MissingSection, Entity: "sendTelepathy", Message: "no heading"},
		{Kind: types.StructuralAnomaly, Entity: "getMe", Message: "unexpected tag div"},
	}
	if err := s.SaveRun(partial, diags); err != nil {
		t.Fatal(err)
	}
	if partial.Status != RunPartial || partial.DiagnosticCount != 2 {
		t.Fatalf("unexpected partial run: %+v", partial)
	}

	runs, err := s.ListRuns(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != partial.ID {
		t.Fatalf("expected newest run first, got %+v", runs)
	}

	got, err := s.GetDiagnostics(partial.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != diags[0] || got[1] != diags[1] {
		t.Fatalf("diagnostics mismatch: %+v", got)
	}

	if err := s.DeleteSnapshot(snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSnapshot(snap.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if runs, _ := s.ListRuns(snap.ID); len(runs) != 0 {
		t.Fatalf("expected runs deleted")
	}
	if _, err := s.GetDiagnostics(partial.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected diagnostics gone with run, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if err := s.DeleteSnapshot("snap_20240101_001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetDiagnostics(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	runs, err := s.ListRuns("snap_20240101_001")
	if err != nil || runs == nil || len(runs) != 0 {
		t.Fatalf("expected empty run list, got %v err=%v", runs, err)
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	snap, _ := s.SaveSnapshot("file", "<p>concurrent</p>")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.SaveRun(&types.Run{SnapshotID: snap.ID, Catalogue: "c", Format: "typescript"}, []types.Diagnostic{{Kind: types.StructuralAnomaly, Entity: "x", Message: "y"}})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ListSnapshots()
		}()
	}
	wg.Wait()

	runs, err := s.ListRuns(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) == 0 {
		t.Fatalf("expected runs")
	}
}
