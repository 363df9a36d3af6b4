// Package predicate compiles boolean filter expressions evaluated against
// pipeline messages.
//
// Expressions see three variables:
//
//	id      the message ID
//	data    the message payload
//	fields  the payload as []string when it is a CSV record, nil otherwise
//
// For example `len(fields) > 1 && fields[0] == "1"` or `data contains "error"`.
package predicate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

// Env is the evaluation environment of a predicate.
type Env struct {
	ID     string   `expr:"id"`
	Data   any      `expr:"data"`
	Fields []string `expr:"fields"`
}

type Predicate struct {
	source  string
	program *vm.Program
}

// Compile type-checks src and requires it to yield a bool.
func Compile(src string) (*Predicate, error) {
	program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", src, err)
	}

	return &Predicate{source: src, program: program}, nil
}

func (p *Predicate) String() string {
	return p.source
}

// Match evaluates the predicate for msg.
func (p *Predicate) Match(msg pipeline.Msg) (bool, error) {
	env := Env{ID: msg.ID, Data: msg.Data}
	if fields, ok := msg.Data.([]string); ok {
		env.Fields = fields
	}

	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate predicate %q on message %s: %w", p.source, msg.ID, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q returned %T", p.source, out)
	}

	return matched, nil
}
