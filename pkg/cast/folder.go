package cast

import "fmt"

// ----------------------------------------------------------------------------
// Folder framework
//
// A Folder walks a Program and rebuilds it node by node; Base implements it as
// the identity transformation. A pass embeds Base, overrides only the methods
// it cares about, and points Base.Self back at itself so the default
// traversal dispatches through the override for every child node it recurses
// into -- exactly the override-then-delegate shape of the Rust FolderC trait
// this is grounded on (original_source/src/common/folder.rs), translated to
// Go's usual "self" pointer since Go has no virtual dispatch through an
// embedded value.

type Folder interface {
	FoldProgram(Program) (Program, error)
	FoldFunctionDefinition(FunctionDefinition) (FunctionDefinition, error)
	FoldBlock(Block) (Block, error)
	FoldBlockItem(BlockItem) (BlockItem, error)
	FoldDeclaration(Declaration) (Declaration, error)
	FoldForInit(ForInit) (ForInit, error)
	FoldStatement(Statement) (Statement, error)
	FoldExpression(Expression) (Expression, error)
	FoldIdent(string) (string, error)
	FoldUnaryOp(UnaryOperator) (UnaryOperator, error)
	FoldBinaryOp(BinaryOperator) (BinaryOperator, error)
}

// Base is the identity Folder. Embedders must set Self to themselves before
// folding, e.g.:
//
//	l := &LoopLabeller{}
//	l.Base.Self = l
type Base struct{ Self Folder }

func (b *Base) FoldProgram(p Program) (Program, error) {
	fn, err := b.Self.FoldFunctionDefinition(p.Function)
	if err != nil {
		return Program{}, err
	}
	return Program{Function: fn}, nil
}

func (b *Base) FoldFunctionDefinition(fn FunctionDefinition) (FunctionDefinition, error) {
	name, err := b.Self.FoldIdent(fn.Name)
	if err != nil {
		return FunctionDefinition{}, err
	}
	body, err := b.Self.FoldBlock(fn.Body)
	if err != nil {
		return FunctionDefinition{}, err
	}
	return FunctionDefinition{Name: name, Body: body}, nil
}

func (b *Base) FoldBlock(blk Block) (Block, error) {
	items := make([]BlockItem, 0, len(blk.Items))
	for _, item := range blk.Items {
		folded, err := b.Self.FoldBlockItem(item)
		if err != nil {
			return Block{}, err
		}
		items = append(items, folded)
	}
	return Block{Items: items}, nil
}

func (b *Base) FoldBlockItem(item BlockItem) (BlockItem, error) {
	if item.Decl != nil {
		d, err := b.Self.FoldDeclaration(*item.Decl)
		if err != nil {
			return BlockItem{}, err
		}
		return DeclItem(d), nil
	}
	s, err := b.Self.FoldStatement(*item.Stmt)
	if err != nil {
		return BlockItem{}, err
	}
	return StmtItem(s), nil
}

func (b *Base) FoldDeclaration(d Declaration) (Declaration, error) {
	name, err := b.Self.FoldIdent(d.Name)
	if err != nil {
		return Declaration{}, err
	}
	init := d.Initializer
	if !init.IsNil() {
		if init, err = b.Self.FoldExpression(init); err != nil {
			return Declaration{}, err
		}
	}
	return Declaration{Name: name, Initializer: init}, nil
}

func (b *Base) FoldForInit(fi ForInit) (ForInit, error) {
	if fi.Decl != nil {
		d, err := b.Self.FoldDeclaration(*fi.Decl)
		if err != nil {
			return ForInit{}, err
		}
		return ForInit{Decl: &d}, nil
	}
	if fi.Expr.IsNil() {
		return ForInit{}, nil
	}
	e, err := b.Self.FoldExpression(fi.Expr)
	if err != nil {
		return ForInit{}, err
	}
	return ForInit{Expr: e}, nil
}

func (b *Base) FoldStatement(s Statement) (Statement, error) {
	switch {
	case s.Return != nil:
		e, err := b.Self.FoldExpression(s.Return.Expr)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Return: &ReturnStmt{Expr: e}}, nil

	case s.Expr != nil:
		e, err := b.Self.FoldExpression(s.Expr.Expr)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Expr: &ExpressionStmt{Expr: e}}, nil

	case s.If != nil:
		cond, err := b.Self.FoldExpression(s.If.Cond)
		if err != nil {
			return Statement{}, err
		}
		then, err := b.Self.FoldStatement(*s.If.Then)
		if err != nil {
			return Statement{}, err
		}
		var elseStmt *Statement
		if s.If.Else != nil {
			e, err := b.Self.FoldStatement(*s.If.Else)
			if err != nil {
				return Statement{}, err
			}
			elseStmt = &e
		}
		return Statement{If: &IfStmt{Cond: cond, Then: &then, Else: elseStmt}}, nil

	case s.Compound != nil:
		blk, err := b.Self.FoldBlock(s.Compound.Block)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Compound: &CompoundStmt{Block: blk}}, nil

	case s.While != nil:
		cond, err := b.Self.FoldExpression(s.While.Cond)
		if err != nil {
			return Statement{}, err
		}
		body, err := b.Self.FoldStatement(*s.While.Body)
		if err != nil {
			return Statement{}, err
		}
		return Statement{While: &WhileStmt{Cond: cond, Body: &body, Label: s.While.Label}}, nil

	case s.DoWhile != nil:
		body, err := b.Self.FoldStatement(*s.DoWhile.Body)
		if err != nil {
			return Statement{}, err
		}
		cond, err := b.Self.FoldExpression(s.DoWhile.Cond)
		if err != nil {
			return Statement{}, err
		}
		return Statement{DoWhile: &DoWhileStmt{Body: &body, Cond: cond, Label: s.DoWhile.Label}}, nil

	case s.For != nil:
		init, err := b.Self.FoldForInit(s.For.Init)
		if err != nil {
			return Statement{}, err
		}
		var cond Expression
		if !s.For.Cond.IsNil() {
			if cond, err = b.Self.FoldExpression(s.For.Cond); err != nil {
				return Statement{}, err
			}
		}
		var post Expression
		if !s.For.Post.IsNil() {
			if post, err = b.Self.FoldExpression(s.For.Post); err != nil {
				return Statement{}, err
			}
		}
		body, err := b.Self.FoldStatement(*s.For.Body)
		if err != nil {
			return Statement{}, err
		}
		return Statement{For: &ForStmt{Init: init, Cond: cond, Post: post, Body: &body, Label: s.For.Label}}, nil

	case s.Break != nil:
		return Statement{Break: &BreakStmt{Label: s.Break.Label}}, nil

	case s.Continue != nil:
		return Statement{Continue: &ContinueStmt{Label: s.Continue.Label}}, nil

	case s.Null != nil:
		return Statement{Null: &NullStmt{}}, nil

	default:
		return Statement{}, fmt.Errorf("folder: empty statement node")
	}
}

func (b *Base) FoldExpression(e Expression) (Expression, error) {
	switch {
	case e.Constant != nil:
		return e, nil

	case e.Var != nil:
		name, err := b.Self.FoldIdent(e.Var.Name)
		if err != nil {
			return Expression{}, err
		}
		return VarRef(name), nil

	case e.Unary != nil:
		op, err := b.Self.FoldUnaryOp(e.Unary.Op)
		if err != nil {
			return Expression{}, err
		}
		inner, err := b.Self.FoldExpression(*e.Unary.Expr)
		if err != nil {
			return Expression{}, err
		}
		return UnaryE(op, inner), nil

	case e.Binary != nil:
		op, err := b.Self.FoldBinaryOp(e.Binary.Op)
		if err != nil {
			return Expression{}, err
		}
		left, err := b.Self.FoldExpression(*e.Binary.Left)
		if err != nil {
			return Expression{}, err
		}
		right, err := b.Self.FoldExpression(*e.Binary.Right)
		if err != nil {
			return Expression{}, err
		}
		return BinaryE(op, left, right), nil

	case e.Assignment != nil:
		left, err := b.Self.FoldExpression(*e.Assignment.Left)
		if err != nil {
			return Expression{}, err
		}
		right, err := b.Self.FoldExpression(*e.Assignment.Right)
		if err != nil {
			return Expression{}, err
		}
		return AssignE(left, right), nil

	case e.Conditional != nil:
		cond, err := b.Self.FoldExpression(*e.Conditional.Cond)
		if err != nil {
			return Expression{}, err
		}
		then, err := b.Self.FoldExpression(*e.Conditional.Then)
		if err != nil {
			return Expression{}, err
		}
		els, err := b.Self.FoldExpression(*e.Conditional.Else)
		if err != nil {
			return Expression{}, err
		}
		return CondE(cond, then, els), nil

	default:
		return Expression{}, fmt.Errorf("folder: empty expression node")
	}
}

func (b *Base) FoldIdent(name string) (string, error)                  { return name, nil }
func (b *Base) FoldUnaryOp(op UnaryOperator) (UnaryOperator, error)    { return op, nil }
func (b *Base) FoldBinaryOp(op BinaryOperator) (BinaryOperator, error) { return op, nil }
