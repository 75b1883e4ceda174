// Package engine provides the Lisp evaluation engine for scene descriptions.
// It wraps zygomys in a sandboxed environment and produces a Program: the
// ordered list of scenes the source asked for.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"golang.org/x/sync/semaphore"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal finding about a scene the program
// built successfully.
type EvalWarning struct {
	Scene     string `json:"scene"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// ErrBusy is returned when the engine already runs as many interpreters as
// WithMaxRunning allows.
var ErrBusy = errors.New("too many evaluations in progress")

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	running    *semaphore.Weighted // nil when unlimited
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout replaces EvalTimeout as the evaluation limit. Non-positive
// values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxRunning caps the number of interpreters running at once. A slot is
// held until the interpreter returns, which for a timed-out evaluation may be
// never: zygomys cannot be interrupted. Non-positive values mean no cap.
func WithMaxRunning(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.running = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Timeout returns the evaluation limit.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Evaluate takes Lisp source code and produces a new Program.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
// A call that finishes after a newer call has started is discarded, which
// suits a single editor re-evaluating as the user types.
//
// Return semantics:
//   - On success: returns program + nil errors + nil error
//   - On parse/eval failure: returns nil program + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded, busy): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Program, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	return e.run(source, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.generation != gen
	})
}

// EvaluateIndependent is Evaluate for unrelated callers, such as separate
// HTTP clients: it neither supersedes nor is superseded by other calls.
func (e *Engine) EvaluateIndependent(source string) (*Program, []EvalError, error) {
	return e.run(source, nil)
}

func (e *Engine) run(source string, stale func() bool) (*Program, []EvalError, error) {
	if e.running != nil && !e.running.TryAcquire(1) {
		return nil, nil, ErrBusy
	}

	ch := make(chan evalResult, 1)

	go func() {
		if e.running != nil {
			defer e.running.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		p, evalErrs, err := e.evaluate(source)
		ch <- evalResult{program: p, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, e.timeout, stale)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Program, []EvalError, error) {
	p := &Program{}

	// Empty source is a valid program that describes no scenes.
	if strings.TrimSpace(source) == "" {
		return p, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, p)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return p, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
