package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/minerack/pkg/layout"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	p, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if p == nil {
		t.Fatal("expected non-nil program")
	}
	if len(p.Scenes) != 0 {
		t.Errorf("expected no scenes, got %d", len(p.Scenes))
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine()

	p, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if p == nil {
		t.Fatal("expected non-nil program")
	}
	if len(p.Scenes) != 0 {
		t.Errorf("expected no scenes, got %d", len(p.Scenes))
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// (+ 1 2) is valid Lisp that declares no scenes.
	p, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if p == nil {
		t.Fatal("expected non-nil program")
	}
	if len(p.Scenes) != 0 {
		t.Errorf("expected no scenes, got %d", len(p.Scenes))
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 1)
(def y 3)
(scene "pair" :variant :frame (rack :levels (+ x 1) :machines y :conduit 0.03))
`
	p, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if p == nil {
		t.Fatal("expected non-nil program")
	}

	want := layout.DefaultConfig()
	want.Levels = 2
	want.MachinesPerLevel = 3
	want.ConduitDiameter = 0.03
	got, ok := p.Lookup("pair")
	if !ok {
		t.Fatalf("scene %q not declared, got %+v", "pair", p.Scenes)
	}
	if got != (SceneRequest{Name: "pair", Variant: layout.VariantFrame, Config: want}) {
		t.Errorf("scene request = %+v", got)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	p, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil program on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}

	// The error message should contain something meaningful.
	msg := evalErrs[0].Message
	if msg == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	// Referencing an undefined symbol should produce an eval error.
	p, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil program on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	eng := NewEngine()

	// Put the error on line 2.
	source := "(+ 1 2)\n(+ 3"
	p, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil program on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}

	// We expect the line number to be extracted from the zygomys error.
	// Line info may or may not be available depending on the error format;
	// we just check the error is populated.
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	// If line info was extracted, verify it's positive.
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	} else {
		t.Logf("no line info extracted (line=0), message=%q", e.Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	// No line info.
	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	s2 := e2.Error()
	if strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	// Multiple evaluations of the same source should produce equivalent results.
	for i := 0; i < 5; i++ {
		p, evalErrs, err := eng.Evaluate("(+ 1 2)")
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if p == nil {
			t.Fatalf("iteration %d: expected non-nil program", i)
		}
		if len(p.Scenes) != 0 {
			t.Errorf("iteration %d: expected no scenes, got %d", i, len(p.Scenes))
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// Test the timeout plumbing directly with a channel that never sends;
	// a runaway zygomys loop would only prove the same thing more slowly.
	ch := make(chan evalResult) // Never sends

	const limit = 50 * time.Millisecond
	done := make(chan struct{})
	var resultErr error

	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, limit, nil)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(limit + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestWithTimeout(t *testing.T) {
	if got := NewEngine().Timeout(); got != EvalTimeout {
		t.Errorf("default Timeout() = %s, want %s", got, EvalTimeout)
	}
	if got := NewEngine(WithTimeout(time.Second)).Timeout(); got != time.Second {
		t.Errorf("Timeout() = %s, want 1s", got)
	}
	if got := NewEngine(WithTimeout(0)).Timeout(); got != EvalTimeout {
		t.Errorf("zero timeout should keep the default, got %s", got)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	ch := make(chan evalResult, 1)
	ch <- evalResult{program: &Program{}}

	_, _, err := waitWithTimeout(ch, EvalTimeout, func() bool { return true })
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestEvaluateIndependentIsNeverSuperseded(t *testing.T) {
	eng := NewEngine()
	src := `(scene "a" :variant :frame (rack :levels 1 :conduit 0.03))`

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, evalErrs, err := eng.EvaluateIndependent(src)
			switch {
			case err != nil:
				errs <- err
			case len(evalErrs) > 0:
				errs <- evalErrs[0]
			case len(p.Scenes) != 1:
				errs <- fmt.Errorf("got %d scenes", len(p.Scenes))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent evaluation failed: %v", err)
	}
}

func TestWithMaxRunning(t *testing.T) {
	eng := NewEngine(WithMaxRunning(1))

	// Occupy the only slot, as a runaway interpreter would.
	if !eng.running.TryAcquire(1) {
		t.Fatal("fresh engine should have a free slot")
	}
	if _, _, err := eng.EvaluateIndependent("(+ 1 2)"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, _, err := eng.Evaluate("(+ 1 2)"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy from Evaluate, got %v", err)
	}
	eng.running.Release(1)

	// The slot comes back once the interpreter goroutine exits, which is
	// just after it hands over its result.
	for i := 0; i < 3; i++ {
		if _, _, err := eng.EvaluateIndependent("(+ 1 2)"); err != nil {
			t.Fatalf("evaluation %d: %v", i, err)
		}
		if err := eng.running.Acquire(context.Background(), 1); err != nil {
			t.Fatal(err)
		}
		eng.running.Release(1)
	}

	if NewEngine(WithMaxRunning(0)).running != nil {
		t.Error("non-positive limit should leave the engine unlimited")
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
