package tacky

import (
	"fmt"

	"cc0.dev/compiler/pkg/cast"
)

// ----------------------------------------------------------------------------
// Lowering C AST -> TACKY
//
// Grounded on original_source/src/tacky/from.rs for the expression shapes
// (short-circuit && / ||, the conditional operator, if/else) and on
// SPEC_FULL.md §4.9 for the loop statements added on top of it. Every
// temporary and label comes from the function-scoped Builder rather than the
// literal, non-unique names from.rs uses ("end", "else_label", ...) -- reused
// literal labels would collide the moment a function has more than one `if`
// or loop, which is exactly the problem builder.rs (and its per-function
// counter) exists to solve.

type Lowerer struct {
	builder *Builder
}

func NewLowerer() *Lowerer { return &Lowerer{} }

// Lower converts a fully resolved and loop-labelled cast.Program into its
// TACKY counterpart.
func (l *Lowerer) Lower(p cast.Program) (Program, error) {
	fn, err := l.lowerFunction(p.Function)
	if err != nil {
		return Program{}, err
	}
	return Program{Function: fn}, nil
}

func (l *Lowerer) lowerFunction(fn cast.FunctionDefinition) (FunctionDefinition, error) {
	l.builder = NewBuilder()

	if err := l.lowerBlock(fn.Body); err != nil {
		return FunctionDefinition{}, err
	}
	// Every path falls through to an implicit `return 0` if control reaches
	// the end of main without an explicit return.
	l.builder.EmitReturn(Constant{Value: 0})

	return FunctionDefinition{Name: fn.Name, Instructions: l.builder.Finish()}, nil
}

func (l *Lowerer) lowerBlock(block cast.Block) error {
	for _, item := range block.Items {
		if err := l.lowerBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) lowerBlockItem(item cast.BlockItem) error {
	if item.Decl != nil {
		return l.lowerDeclaration(*item.Decl)
	}
	return l.lowerStatement(*item.Stmt)
}

func (l *Lowerer) lowerDeclaration(d cast.Declaration) error {
	if d.Initializer.IsNil() {
		return nil
	}
	v, err := l.lowerExpr(d.Initializer)
	if err != nil {
		return err
	}
	l.builder.EmitCopy(v, Var{Name: d.Name})
	return nil
}

func (l *Lowerer) lowerForInit(fi cast.ForInit) error {
	if fi.Decl != nil {
		return l.lowerDeclaration(*fi.Decl)
	}
	if fi.Expr.IsNil() {
		return nil
	}
	_, err := l.lowerExpr(fi.Expr)
	return err
}

func (l *Lowerer) lowerStatement(s cast.Statement) error {
	switch {
	case s.Return != nil:
		v, err := l.lowerExpr(s.Return.Expr)
		if err != nil {
			return err
		}
		l.builder.EmitReturn(v)
		return nil

	case s.Expr != nil:
		_, err := l.lowerExpr(s.Expr.Expr)
		return err

	case s.Null != nil:
		return nil

	case s.Compound != nil:
		return l.lowerBlock(s.Compound.Block)

	case s.If != nil:
		return l.lowerIf(s.If)

	case s.While != nil:
		return l.lowerWhile(s.While)

	case s.DoWhile != nil:
		return l.lowerDoWhile(s.DoWhile)

	case s.For != nil:
		return l.lowerFor(s.For)

	case s.Break != nil:
		l.builder.EmitJump(l.builder.LabelWithPrefix("break_", s.Break.Label))
		return nil

	case s.Continue != nil:
		l.builder.EmitJump(l.builder.LabelWithPrefix("continue_", s.Continue.Label))
		return nil

	default:
		return fmt.Errorf("lowering: empty statement node")
	}
}

func (l *Lowerer) lowerIf(ifs *cast.IfStmt) error {
	cond, err := l.lowerExpr(ifs.Cond)
	if err != nil {
		return err
	}

	if ifs.Else == nil {
		end := l.builder.FreshLabel("if_end")
		l.builder.EmitJumpIfZero(cond, end)
		if err := l.lowerStatement(*ifs.Then); err != nil {
			return err
		}
		l.builder.EmitLabel(end)
		return nil
	}

	elseLabel := l.builder.FreshLabel("else")
	end := l.builder.FreshLabel("if_end")
	l.builder.EmitJumpIfZero(cond, elseLabel)
	if err := l.lowerStatement(*ifs.Then); err != nil {
		return err
	}
	l.builder.EmitJump(end)
	l.builder.EmitLabel(elseLabel)
	if err := l.lowerStatement(*ifs.Else); err != nil {
		return err
	}
	l.builder.EmitLabel(end)
	return nil
}

// lowerWhile implements SPEC_FULL.md §4.9's head-test pattern.
func (l *Lowerer) lowerWhile(w *cast.WhileStmt) error {
	continueLabel := l.builder.LabelWithPrefix("continue_", w.Label)
	breakLabel := l.builder.LabelWithPrefix("break_", w.Label)

	l.builder.EmitLabel(continueLabel)
	cond, err := l.lowerExpr(w.Cond)
	if err != nil {
		return err
	}
	l.builder.EmitJumpIfZero(cond, breakLabel)
	if err := l.lowerStatement(*w.Body); err != nil {
		return err
	}
	l.builder.EmitJump(continueLabel)
	l.builder.EmitLabel(breakLabel)
	return nil
}

// lowerDoWhile implements SPEC_FULL.md §4.9's tail-test pattern.
func (l *Lowerer) lowerDoWhile(d *cast.DoWhileStmt) error {
	startLabel := l.builder.LabelWithPrefix("start_", d.Label)
	continueLabel := l.builder.LabelWithPrefix("continue_", d.Label)
	breakLabel := l.builder.LabelWithPrefix("break_", d.Label)

	l.builder.EmitLabel(startLabel)
	if err := l.lowerStatement(*d.Body); err != nil {
		return err
	}
	l.builder.EmitLabel(continueLabel)
	cond, err := l.lowerExpr(d.Cond)
	if err != nil {
		return err
	}
	l.builder.EmitJumpIfNotZero(cond, startLabel)
	l.builder.EmitLabel(breakLabel)
	return nil
}

// lowerFor implements SPEC_FULL.md §4.9's pattern with optional cond/post.
func (l *Lowerer) lowerFor(f *cast.ForStmt) error {
	startLabel := l.builder.LabelWithPrefix("start_", f.Label)
	continueLabel := l.builder.LabelWithPrefix("continue_", f.Label)
	breakLabel := l.builder.LabelWithPrefix("break_", f.Label)

	if err := l.lowerForInit(f.Init); err != nil {
		return err
	}
	l.builder.EmitLabel(startLabel)

	if !f.Cond.IsNil() {
		cond, err := l.lowerExpr(f.Cond)
		if err != nil {
			return err
		}
		l.builder.EmitJumpIfZero(cond, breakLabel)
	}

	if err := l.lowerStatement(*f.Body); err != nil {
		return err
	}

	l.builder.EmitLabel(continueLabel)
	if !f.Post.IsNil() {
		if _, err := l.lowerExpr(f.Post); err != nil {
			return err
		}
	}
	l.builder.EmitJump(startLabel)
	l.builder.EmitLabel(breakLabel)
	return nil
}

func (l *Lowerer) lowerExpr(e cast.Expression) (Value, error) {
	switch {
	case e.Constant != nil:
		return Constant{Value: e.Constant.Value}, nil

	case e.Var != nil:
		return Var{Name: e.Var.Name}, nil

	case e.Unary != nil:
		src, err := l.lowerExpr(*e.Unary.Expr)
		if err != nil {
			return nil, err
		}
		dst := l.builder.FreshTemp("unary")
		l.builder.Emit(Unary{Op: unaryOpOf[e.Unary.Op], Src: src, Dst: dst})
		return dst, nil

	case e.Binary != nil:
		return l.lowerBinary(e.Binary)

	case e.Assignment != nil:
		if e.Assignment.Left.Var == nil {
			return nil, fmt.Errorf("lowering: assignment target is not a variable")
		}
		rhs, err := l.lowerExpr(*e.Assignment.Right)
		if err != nil {
			return nil, err
		}
		dst := Var{Name: e.Assignment.Left.Var.Name}
		l.builder.EmitCopy(rhs, dst)
		return dst, nil

	case e.Conditional != nil:
		return l.lowerConditional(e.Conditional)

	default:
		return nil, fmt.Errorf("lowering: empty expression node")
	}
}

// lowerConditional implements from.rs's Expression::Conditional pattern.
func (l *Lowerer) lowerConditional(c *cast.ConditionalExpr) (Value, error) {
	cond, err := l.lowerExpr(*c.Cond)
	if err != nil {
		return nil, err
	}

	elseLabel := l.builder.FreshLabel("cond_else")
	end := l.builder.FreshLabel("cond_end")
	result := l.builder.FreshTemp("cond_result")

	l.builder.EmitJumpIfZero(cond, elseLabel)

	thenVal, err := l.lowerExpr(*c.Then)
	if err != nil {
		return nil, err
	}
	l.builder.EmitCopy(thenVal, result)
	l.builder.EmitJump(end)

	l.builder.EmitLabel(elseLabel)
	elseVal, err := l.lowerExpr(*c.Else)
	if err != nil {
		return nil, err
	}
	l.builder.EmitCopy(elseVal, result)

	l.builder.EmitLabel(end)
	return result, nil
}

func (l *Lowerer) lowerBinary(b *cast.BinaryExpr) (Value, error) {
	switch b.Op {
	case cast.And:
		return l.lowerShortCircuit(b, false)
	case cast.Or:
		return l.lowerShortCircuit(b, true)
	default:
		left, err := l.lowerExpr(*b.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerExpr(*b.Right)
		if err != nil {
			return nil, err
		}
		dst := l.builder.FreshTemp("binary")
		l.builder.Emit(Binary{Op: binaryOpOf[b.Op], Src1: left, Src2: right, Dst: dst})
		return dst, nil
	}
}

// lowerShortCircuit implements from.rs's And/Or patterns: shortOnTrue
// selects `||`'s "jump on first truthy operand" behavior; false selects
// `&&`'s "jump on first falsy operand" behavior.
func (l *Lowerer) lowerShortCircuit(b *cast.BinaryExpr, shortOnTrue bool) (Value, error) {
	shortLabel := l.builder.FreshLabel("short_circuit")
	end := l.builder.FreshLabel("short_circuit_end")
	result := l.builder.FreshTemp("logical")

	emitBranch := l.builder.EmitJumpIfZero
	shortResult, otherResult := Constant{Value: 0}, Constant{Value: 1}
	if shortOnTrue {
		emitBranch = l.builder.EmitJumpIfNotZero
		shortResult, otherResult = Constant{Value: 1}, Constant{Value: 0}
	}

	left, err := l.lowerExpr(*b.Left)
	if err != nil {
		return nil, err
	}
	emitBranch(left, shortLabel)

	right, err := l.lowerExpr(*b.Right)
	if err != nil {
		return nil, err
	}
	emitBranch(right, shortLabel)

	l.builder.EmitCopy(otherResult, result)
	l.builder.EmitJump(end)
	l.builder.EmitLabel(shortLabel)
	l.builder.EmitCopy(shortResult, result)
	l.builder.EmitLabel(end)

	return result, nil
}

var unaryOpOf = map[cast.UnaryOperator]UnaryOperator{
	cast.Complement: Complement,
	cast.Negate:     Negate,
	cast.Not:        Not,
}

var binaryOpOf = map[cast.BinaryOperator]BinaryOperator{
	cast.Add: Add, cast.Subtract: Subtract, cast.Multiply: Multiply,
	cast.Divide: Divide, cast.Remainder: Remainder,
	cast.BitwiseAnd: BitwiseAnd, cast.BitwiseOr: BitwiseOr, cast.BitwiseXor: BitwiseXor,
	cast.LeftShift: LeftShift, cast.RightShift: RightShift,
	cast.Equal: Equal, cast.NotEqual: NotEqual,
	cast.GreaterThan: GreaterThan, cast.LessThan: LessThan,
	cast.GreaterThanOrEqual: GreaterThanOrEqual, cast.LessThanOrEqual: LessThanOrEqual,
}
