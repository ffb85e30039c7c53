package jobs

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLifecycle(t *testing.T) {
	m := NewManager()

	j := m.Create(KindBuild, "/repo", 500*time.Millisecond)
	if j.ID == "" {
		t.Fatal("expected non-empty job ID")
	}
	if j.Status != StatusPending {
		t.Fatalf("status = %q, want %q", j.Status, StatusPending)
	}
	if j.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set at creation")
	}
	if j.Estimated != 500*time.Millisecond {
		t.Errorf("estimated = %v, want 500ms", j.Estimated)
	}

	m.Start(j.ID)
	m.SetTotal(j.ID, 3)
	m.SetCurrentFile(j.ID, "/repo/a.py")
	m.SetProcessed(j.ID, 1)
	m.AddWarning(j.ID)
	m.AddWarning(j.ID)

	got, ok := m.Get(j.ID)
	if !ok {
		t.Fatal("job disappeared")
	}
	if got.Status != StatusRunning {
		t.Errorf("status = %q, want %q", got.Status, StatusRunning)
	}
	if got.TotalFiles != 3 || got.ProcessedFiles != 1 {
		t.Errorf("progress = %d/%d, want 1/3", got.ProcessedFiles, got.TotalFiles)
	}
	if got.CurrentFile != "/repo/a.py" {
		t.Errorf("current file = %q", got.CurrentFile)
	}
	if got.Warnings != 2 {
		t.Errorf("warnings = %d, want 2", got.Warnings)
	}
	if got.Status.Terminal() {
		t.Error("running job reported terminal")
	}

	m.Complete(j.ID)
	got, _ = m.Get(j.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.EndedAt.IsZero() {
		t.Error("expected EndedAt to be set")
	}
	if !got.Status.Terminal() {
		t.Error("completed job not terminal")
	}
}

func TestFailRecordsErrors(t *testing.T) {
	m := NewManager()
	j := m.Create(KindBuild, "/repo", 0)

	m.Fail(j.ID, "store write: disk full")

	got, _ := m.Get(j.ID)
	if got.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", got.Status, StatusFailed)
	}
	if len(got.Errors) != 1 || got.Errors[0] != "store write: disk full" {
		t.Fatalf("errors = %v", got.Errors)
	}
	if got.EndedAt.IsZero() {
		t.Error("expected EndedAt to be set")
	}
}

func TestCancelIsTerminal(t *testing.T) {
	m := NewManager()
	j := m.Create(KindBuild, "/repo", 0)

	m.Cancel(j.ID, "target vanished: /repo")

	got, _ := m.Get(j.ID)
	if got.Status != StatusCancelled {
		t.Fatalf("status = %q, want %q", got.Status, StatusCancelled)
	}
	if !got.Status.Terminal() {
		t.Error("cancelled job not terminal")
	}
	if len(got.Errors) != 1 {
		t.Fatalf("errors = %v", got.Errors)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m := NewManager()
	j := m.Create(KindBuild, "/repo", 0)
	m.Fail(j.ID, "boom")

	got, _ := m.Get(j.ID)
	got.Errors[0] = "mutated"
	got.Status = StatusPending

	again, _ := m.Get(j.ID)
	if again.Errors[0] != "boom" {
		t.Errorf("registry errors mutated through snapshot: %v", again.Errors)
	}
	if again.Status != StatusFailed {
		t.Errorf("registry status mutated through snapshot: %q", again.Status)
	}
}

func TestListNewestFirst(t *testing.T) {
	m := NewManager()
	a := m.Create(KindBuild, "/a", 0)
	b := m.Create(KindBuild, "/b", 0)
	c := m.Create(KindUpdate, "/c", 0)

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].ID != c.ID || list[1].ID != b.ID || list[2].ID != a.ID {
		t.Fatalf("order = %s, %s, %s", list[0].Path, list[1].Path, list[2].Path)
	}
}

func TestUnknownJob(t *testing.T) {
	m := NewManager()

	if _, ok := m.Get("nope"); ok {
		t.Fatal("Get on unknown id reported ok")
	}
	// Mutators on unknown ids are no-ops.
	m.Start("nope")
	m.Complete("nope")
	if len(m.List()) != 0 {
		t.Fatal("mutating an unknown id created a job")
	}
}

func TestConcurrentPollers(t *testing.T) {
	m := NewManager()
	j := m.Create(KindBuild, "/repo", 0)
	m.Start(j.ID)
	m.SetTotal(j.ID, 100)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			m.SetCurrentFile(j.ID, fmt.Sprintf("/repo/f%d.py", i))
			m.SetProcessed(j.ID, i)
		}
		m.Complete(j.ID)
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if got, ok := m.Get(j.ID); ok {
					if got.ProcessedFiles > got.TotalFiles {
						t.Errorf("processed %d exceeds total %d", got.ProcessedFiles, got.TotalFiles)
					}
				}
				m.List()
			}
		}()
	}
	wg.Wait()

	got, _ := m.Get(j.ID)
	if got.Status != StatusCompleted || got.ProcessedFiles != 100 {
		t.Fatalf("final state: %q %d/100", got.Status, got.ProcessedFiles)
	}
}
