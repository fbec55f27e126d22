package security

import (
	"context"
	"errors"
	"testing"
	"time"
)

type inlineRunner struct {
	err   error
	calls int
}

func (r *inlineRunner) Do(_ context.Context, fn func()) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	fn()
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Verify(_ context.Context, p, d string) bool      { return d == "h:"+p }

func TestPooledHasher_DelegatesThroughRunner(t *testing.T) {
	runner := &inlineRunner{}
	var ops []string
	h := NewPooledHasher(plainHasher{}, runner, func(op string, _ time.Duration) { ops = append(ops, op) })

	digest, err := h.Hash(context.Background(), "secret")
	if err != nil || digest != "h:secret" {
		t.Fatalf("unexpected hash result %q, %v", digest, err)
	}
	if !h.Verify(context.Background(), "secret", digest) {
		t.Fatalf("verify failed")
	}
	if runner.calls != 2 {
		t.Fatalf("expected 2 runner calls, got %d", runner.calls)
	}
	if len(ops) != 2 || ops[0] != "hash" || ops[1] != "verify" {
		t.Fatalf("unexpected observed ops: %v", ops)
	}
}

func TestPooledHasher_RunnerFailure(t *testing.T) {
	runner := &inlineRunner{err: context.DeadlineExceeded}
	h := NewPooledHasher(plainHasher{}, runner, nil)

	if _, err := h.Hash(context.Background(), "secret"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if h.Verify(context.Background(), "secret", "h:secret") {
		t.Fatalf("verify must fail when the runner could not run it")
	}
}
