package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Class
	}{
		{errors.New("invalid_grant"), ClassAuthentication},
		{errors.New("Reauth required for account"), ClassAuthentication},
		{errors.New("429 Too Many Requests"), ClassRateLimit},
		{errors.New("request timed out"), ClassTimeout},
		{context.DeadlineExceeded, ClassTimeout},
		{errors.New("context_length_exceeded"), ClassContextTooLarge},
		{errors.New("something odd"), ClassUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	breakers := NewBreakerStore(5, 5*time.Minute)
	cfg := DefaultRetryConfig()
	cfg.Sleep = noSleep

	calls := 0
	result, err := Do(context.Background(), breakers, "op-1", cfg, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if st := breakers.State("op-1"); st.ConsecutiveFailures != 0 {
		t.Errorf("failures after success = %d, want 0", st.ConsecutiveFailures)
	}
}

func TestDo_AuthenticationIsNotRetried(t *testing.T) {
	breakers := NewBreakerStore(5, 5*time.Minute)
	cfg := DefaultRetryConfig()
	cfg.Sleep = noSleep

	calls := 0
	_, err := Do(context.Background(), breakers, "op-auth", cfg, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("invalid_grant: token revoked")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries for auth errors)", calls)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("error type = %T, want *OperationError", err)
	}
	if opErr.Class != ClassAuthentication {
		t.Errorf("class = %s, want AUTHENTICATION", opErr.Class)
	}
	if opErr.OperationID != "op-auth" || opErr.Attempts != 1 {
		t.Errorf("annotation = %q/%d, want op-auth/1", opErr.OperationID, opErr.Attempts)
	}
}

func TestDo_ExhaustsRetryBudget(t *testing.T) {
	breakers := NewBreakerStore(5, 5*time.Minute)
	cfg := DefaultRetryConfig()
	cfg.Sleep = noSleep

	calls := 0
	_, err := Do(context.Background(), breakers, "op-flaky", cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("timed out")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 initial + 3 retries)", calls)
	}
	if st := breakers.State("op-flaky"); st.ConsecutiveFailures != 1 {
		t.Errorf("failures = %d, want 1 (one per exhausted run)", st.ConsecutiveFailures)
	}
}

func TestCircuit_OpensAfterThresholdAndAutoResets(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	breakers := NewBreakerStore(5, 5*time.Minute)
	breakers.Now = func() time.Time { return now }

	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 0
	cfg.Sleep = noSleep

	fail := func(ctx context.Context) (string, error) {
		return "", errors.New("backend exploded")
	}

	for i := 0; i < 5; i++ {
		if _, err := Do(context.Background(), breakers, "op-circ", cfg, fail); err == nil {
			t.Fatal("expected failure")
		}
	}
	if st := breakers.State("op-circ"); !st.Open {
		t.Fatal("circuit should be open after 5 consecutive failures")
	}

	// The 6th call must be rejected without invoking the operation.
	invoked := false
	_, err := Do(context.Background(), breakers, "op-circ", cfg, func(ctx context.Context) (string, error) {
		invoked = true
		return "", nil
	})
	if !IsCircuitOpen(err) {
		t.Fatalf("err = %v, want circuit-open rejection", err)
	}
	if invoked {
		t.Error("operation was invoked while circuit open")
	}

	// After the cool-down elapses the next call goes through again.
	now = now.Add(5*time.Minute + time.Second)
	result, err := Do(context.Background(), breakers, "op-circ", cfg, func(ctx context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("call after cooldown failed: %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %q, want recovered", result)
	}
}

func TestCircuit_KeysAreIndependent(t *testing.T) {
	breakers := NewBreakerStore(5, 5*time.Minute)
	for i := 0; i < 5; i++ {
		breakers.RecordFailure("calendar-check-user-a")
	}
	if breakers.Allow("calendar-check-user-a") {
		t.Error("user-a circuit should be open")
	}
	if !breakers.Allow("calendar-check-user-b") {
		t.Error("user-b circuit should be unaffected")
	}
}
