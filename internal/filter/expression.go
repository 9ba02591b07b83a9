package filter

import (
	"fmt"
	"log"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/filewatch/fw/internal/events"
)

// Expression is a pre-compiled boolean predicate over canonical events.
// It supplements the extension filter with arbitrary conditions, e.g.
// `name == "vim" && pid != 1`.
type Expression struct {
	src     string
	program *vm.Program
	warn    sync.Once
}

// exprEnv defines the identifiers available to expressions and their
// types for compile-time checking.
func exprEnv(ev *events.CanonicalEvent) map[string]interface{} {
	env := map[string]interface{}{
		"path":      "",
		"name":      "",
		"pid":        0,
		"action":    "",
		"unmatched": false,
	}
	if ev != nil {
		env["path"] = ev.Path
		env["name"] = ev.ProcName
		env["pid"] = int(ev.PID)
		env["action"] = ev.Action.String()
		env["unmatched"] = ev.Unmatched
	}
	return env
}

// Compile type-checks and compiles an expression source. The result
// must be boolean; compilation failures abort startup.
func Compile(src string) (*Expression, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv(nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter expression %q: %w", src, err)
	}
	return &Expression{src: src, program: program}, nil
}

// Match runs the compiled program against an event. Runtime evaluation
// errors are logged once and the event passes: an observation tool
// fails open rather than dropping visibility.
func (e *Expression) Match(ev *events.CanonicalEvent) bool {
	out, err := expr.Run(e.program, exprEnv(ev))
	if err != nil {
		e.warn.Do(func() {
			log.Printf("Warning: filter expression %q failed to evaluate: %v", e.src, err)
		})
		return true
	}
	verdict, ok := out.(bool)
	if !ok {
		return true
	}
	return verdict
}
