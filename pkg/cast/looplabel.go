package cast

import (
	"fmt"

	"cc0.dev/compiler/pkg/utils"
)

// ----------------------------------------------------------------------------
// Loop labelling
//
// Assigns every While/DoWhile/For a unique label and rewrites every Break and
// Continue it (transitively) encloses to carry that label, so later passes
// never need to re-derive loop nesting. Grounded on
// original_source/src/c_ast/semantic/loop_lab.rs, which threads the
// "currently enclosing loop" as a single field replaced per loop entered;
// here that's a genuine push/pop over utils.Stack[string] instead, since a
// stack is exactly what "currently enclosing loop, restored on exit" means.

// LabelError reports a Break/Continue that isn't inside any loop.
type LabelError struct{ msg string }

func (e *LabelError) Error() string { return "label error: " + e.msg }

type LoopLabeller struct {
	Base
	enclosing utils.Stack[string]
	counter   int
}

// Initializes and returns to the caller a brand new 'LoopLabeller'.
func NewLoopLabeller() *LoopLabeller {
	l := &LoopLabeller{}
	l.Base.Self = l
	return l
}

// Label assigns loop labels throughout p, or fails with a *LabelError at the
// first Break/Continue found outside of any loop.
func (l *LoopLabeller) Label(p Program) (Program, error) {
	return l.FoldProgram(p)
}

func (l *LoopLabeller) freshLabel() string {
	l.counter++
	return fmt.Sprintf("loop.%d", l.counter)
}

func (l *LoopLabeller) FoldStatement(s Statement) (Statement, error) {
	switch {
	case s.Break != nil:
		label, err := l.enclosing.Top()
		if err != nil {
			return Statement{}, &LabelError{msg: "outside-loop"}
		}
		return Statement{Break: &BreakStmt{Label: label}}, nil

	case s.Continue != nil:
		label, err := l.enclosing.Top()
		if err != nil {
			return Statement{}, &LabelError{msg: "outside-loop"}
		}
		return Statement{Continue: &ContinueStmt{Label: label}}, nil

	case s.While != nil:
		label := l.freshLabel()
		l.enclosing.Push(label)
		cond, condErr := l.FoldExpression(s.While.Cond)
		body, bodyErr := l.foldBodyIfOk(condErr, *s.While.Body)
		l.enclosing.Pop()
		if err := firstOf(condErr, bodyErr); err != nil {
			return Statement{}, err
		}
		return Statement{While: &WhileStmt{Cond: cond, Body: &body, Label: label}}, nil

	case s.DoWhile != nil:
		label := l.freshLabel()
		l.enclosing.Push(label)
		body, bodyErr := l.FoldStatement(*s.DoWhile.Body)
		cond, condErr := l.foldCondIfOk(bodyErr, s.DoWhile.Cond)
		l.enclosing.Pop()
		if err := firstOf(bodyErr, condErr); err != nil {
			return Statement{}, err
		}
		return Statement{DoWhile: &DoWhileStmt{Body: &body, Cond: cond, Label: label}}, nil

	case s.For != nil:
		label := l.freshLabel()
		l.enclosing.Push(label)
		init, initErr := l.FoldForInit(s.For.Init)

		var cond Expression
		var condErr error
		if initErr == nil && !s.For.Cond.IsNil() {
			cond, condErr = l.FoldExpression(s.For.Cond)
		}

		var post Expression
		var postErr error
		if initErr == nil && condErr == nil && !s.For.Post.IsNil() {
			post, postErr = l.FoldExpression(s.For.Post)
		}

		var body Statement
		var bodyErr error
		if initErr == nil && condErr == nil && postErr == nil {
			body, bodyErr = l.FoldStatement(*s.For.Body)
		}
		l.enclosing.Pop()

		if err := firstOf(initErr, condErr, postErr, bodyErr); err != nil {
			return Statement{}, err
		}
		return Statement{For: &ForStmt{Init: init, Cond: cond, Post: post, Body: &body, Label: label}}, nil

	default:
		return l.Base.FoldStatement(s)
	}
}

func (l *LoopLabeller) foldBodyIfOk(priorErr error, body Statement) (Statement, error) {
	if priorErr != nil {
		return Statement{}, nil
	}
	return l.FoldStatement(body)
}

func (l *LoopLabeller) foldCondIfOk(priorErr error, cond Expression) (Expression, error) {
	if priorErr != nil {
		return Expression{}, nil
	}
	return l.FoldExpression(cond)
}

func firstOf(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
