package applications_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/jobtrack/internal/apperror"
	"github.com/garnizeh/jobtrack/internal/reminder"
)

// Updates racing a delete either apply fully before it or report NotFound;
// none may leave reminders behind on a removed record.
func TestConcurrentUpdateAndDelete(t *testing.T) {
	svc, d, alice, _ := setupSQLite(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, alice, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const writers = 8
	var deleted, updated, missing atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			in := validInput()
			in.Reminders = []reminder.Input{
				{Title: fmt.Sprintf("r%d-a", i), Date: "2024-05-01"},
				{Title: fmt.Sprintf("r%d-b", i), Date: "2024-05-02"},
			}
			_, err := svc.Update(gctx, alice, a.ID, in)
			switch {
			case err == nil:
				updated.Add(1)
			case apperror.IsNotFound(err):
				missing.Add(1)
			default:
				return fmt.Errorf("update %d: %w", i, err)
			}
			return nil
		})
	}
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			err := svc.Delete(gctx, alice, a.ID)
			switch {
			case err == nil:
				deleted.Add(1)
			case apperror.IsNotFound(err):
			default:
				return fmt.Errorf("delete %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if deleted.Load() != 1 {
		t.Fatalf("exactly one delete must succeed, got %d", deleted.Load())
	}
	if updated.Load()+missing.Load() != writers {
		t.Fatalf("every update must finish: %d applied, %d missing", updated.Load(), missing.Load())
	}

	var n int
	if err := d.QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE application_id = ?`, a.ID).Scan(&n); err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0 reminders after delete got %d", n)
	}
}

// Concurrent updates serialise: the stored reminder set always comes from
// exactly one of them.
func TestConcurrentUpdatesDoNotInterleave(t *testing.T) {
	svc, _, alice, _ := setupSQLite(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, alice, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var g errgroup.Group
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			in := validInput()
			in.Reminders = []reminder.Input{
				{Title: fmt.Sprintf("w%d", i), Date: "2024-06-01"},
				{Title: fmt.Sprintf("w%d", i), Date: "2024-06-02"},
				{Title: fmt.Sprintf("w%d", i), Date: "2024-06-03"},
			}
			_, err := svc.Update(ctx, alice, a.ID, in)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.Get(ctx, alice, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Reminders) != 3 {
		t.Fatalf("want 3 reminders got %d", len(got.Reminders))
	}
	for _, r := range got.Reminders[1:] {
		if r.Title != got.Reminders[0].Title {
			t.Fatalf("reminder sets interleaved: %q vs %q", r.Title, got.Reminders[0].Title)
		}
	}
}
