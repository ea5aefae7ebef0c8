package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testCodeStore(t *testing.T, ttl time.Duration) (*CodeStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCodeStore(client, ttl), mr
}

func TestIssueAndCheck(t *testing.T) {
	store, _ := testCodeStore(t, time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "ivan@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != codeLength {
		t.Fatalf("expected %d-digit code, got %q", codeLength, code)
	}

	if err := store.Check(ctx, "ivan@example.com", code); err != nil {
		t.Fatalf("Check: %v", err)
	}

	// Code is consumed on success.
	if err := store.Check(ctx, "ivan@example.com", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired after consumption, got %v", err)
	}
}

func TestCheckEmailCaseInsensitive(t *testing.T) {
	store, _ := testCodeStore(t, time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "Ivan@Example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := store.Check(ctx, "ivan@example.com", code); err != nil {
		t.Fatalf("Check with lowered email: %v", err)
	}
}

func TestCheckMismatch(t *testing.T) {
	store, _ := testCodeStore(t, time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "ivan@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := store.Check(ctx, "ivan@example.com", "000000"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
	// Right code still works after one miss.
	if err := store.Check(ctx, "ivan@example.com", code); err != nil {
		t.Fatalf("Check after one miss: %v", err)
	}
}

func TestCheckAttemptBudget(t *testing.T) {
	store, _ := testCodeStore(t, time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "ivan@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var last error
	for i := 0; i < maxAttempts; i++ {
		last = store.Check(ctx, "ivan@example.com", "000000")
	}
	if !errors.Is(last, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", last)
	}
	// The pending code was invalidated with the budget.
	if err := store.Check(ctx, "ivan@example.com", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired after lockout, got %v", err)
	}
}

func TestCheckExpiry(t *testing.T) {
	store, mr := testCodeStore(t, time.Minute)
	ctx := context.Background()

	code, err := store.Issue(ctx, "ivan@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := store.Check(ctx, "ivan@example.com", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestIssueReplacesPendingCode(t *testing.T) {
	store, _ := testCodeStore(t, time.Minute)
	ctx := context.Background()

	first, err := store.Issue(ctx, "ivan@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := store.Issue(ctx, "ivan@example.com")
	if err != nil {
		t.Fatalf("Issue again: %v", err)
	}

	if first != second {
		if err := store.Check(ctx, "ivan@example.com", first); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("stale code should not verify after reissue, got %v", err)
		}
	}
	if err := store.Check(ctx, "ivan@example.com", second); err != nil {
		t.Fatalf("Check with fresh code: %v", err)
	}
}
