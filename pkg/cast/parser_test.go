package cast_test

import (
	"testing"

	"cc0.dev/compiler/pkg/cast"
)

func parseSource(t *testing.T, src string) cast.Program {
	t.Helper()
	tokens, err := cast.Lex([]byte(src))
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	parser := cast.NewParser(tokens)
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program
}

func TestParseMinimalFunction(t *testing.T) {
	prog := parseSource(t, "int main(void) { return 2; }")

	if prog.Function.Name != "main" {
		t.Fatalf("expected function name 'main', got %q", prog.Function.Name)
	}
	if len(prog.Function.Body.Items) != 1 {
		t.Fatalf("expected 1 block item, got %d", len(prog.Function.Body.Items))
	}

	ret := prog.Function.Body.Items[0].Stmt
	if ret == nil || ret.Return == nil {
		t.Fatalf("expected a return statement, got %+v", prog.Function.Body.Items[0])
	}
	if ret.Return.Expr.Constant == nil || ret.Return.Expr.Constant.Value != 2 {
		t.Fatalf("expected constant 2, got %+v", ret.Return.Expr)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	// "1 + 2 * 3" must parse as "1 + (2 * 3)", never "(1 + 2) * 3".
	prog := parseSource(t, "int main(void) { return 1 + 2 * 3; }")
	expr := prog.Function.Body.Items[0].Stmt.Return.Expr

	if expr.Binary == nil || expr.Binary.Op != cast.Add {
		t.Fatalf("expected top-level '+', got %+v", expr)
	}
	if expr.Binary.Left.Constant == nil || expr.Binary.Left.Constant.Value != 1 {
		t.Fatalf("expected left operand 1, got %+v", expr.Binary.Left)
	}
	rhs := expr.Binary.Right
	if rhs.Binary == nil || rhs.Binary.Op != cast.Multiply {
		t.Fatalf("expected right operand '2 * 3', got %+v", rhs)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := parseSource(t, "int main(void) { int a = 0; int b = 0; a = b = 3; return a; }")
	assign := prog.Function.Body.Items[2].Stmt.Expr.Expr

	if assign.Assignment == nil {
		t.Fatalf("expected top-level assignment, got %+v", assign)
	}
	if assign.Assignment.Left.Var == nil || assign.Assignment.Left.Var.Name != "a" {
		t.Fatalf("expected left side 'a', got %+v", assign.Assignment.Left)
	}
	inner := assign.Assignment.Right
	if inner.Assignment == nil || inner.Assignment.Left.Var.Name != "b" {
		t.Fatalf("expected right side to be the nested assignment 'b = 3', got %+v", inner)
	}
}

func TestParseAcceptsNonVariableAssignmentTarget(t *testing.T) {
	// The grammar alone doesn't rule out "(1 + 2) = 3" -- the parser accepts
	// any expression on the left of '='. Rejecting a non-lvalue target is
	// VariableResolver's job (resolve.go), not the parser's; see
	// TestResolveRejectsNonVariableAssignmentTarget in resolve_test.go.
	prog := parseSource(t, "int main(void) { (1 + 2) = 3; return 0; }")
	assign := prog.Function.Body.Items[0].Stmt.Expr.Expr

	if assign.Assignment == nil {
		t.Fatalf("expected the parser to accept the assignment shape, got %+v", assign)
	}
	if assign.Assignment.Left.Binary == nil {
		t.Fatalf("expected the (unchecked) left side to be the parenthesized binary expression, got %+v", assign.Assignment.Left)
	}
}

func TestParseConditionalExpression(t *testing.T) {
	prog := parseSource(t, "int main(void) { return 1 ? 2 : 3; }")
	expr := prog.Function.Body.Items[0].Stmt.Return.Expr

	if expr.Conditional == nil {
		t.Fatalf("expected a conditional expression, got %+v", expr)
	}
	if expr.Conditional.Then.Constant.Value != 2 || expr.Conditional.Else.Constant.Value != 3 {
		t.Fatalf("unexpected conditional branches: %+v", expr.Conditional)
	}
}

func TestParseWhileStatement(t *testing.T) {
	prog := parseSource(t, "int main(void) { while (1) { return 0; } return 1; }")
	stmt := prog.Function.Body.Items[0].Stmt
	if stmt.While == nil {
		t.Fatalf("expected a while statement, got %+v", stmt)
	}
}

func TestParseDoWhileStatement(t *testing.T) {
	prog := parseSource(t, "int main(void) { do { return 0; } while (1); return 1; }")
	stmt := prog.Function.Body.Items[0].Stmt
	if stmt.DoWhile == nil {
		t.Fatalf("expected a do-while statement, got %+v", stmt)
	}
}

func TestParseForStatementWithDeclarationInit(t *testing.T) {
	prog := parseSource(t, "int main(void) { for (int i = 0; i < 10; i = i + 1) { continue; } return 0; }")
	stmt := prog.Function.Body.Items[0].Stmt
	if stmt.For == nil {
		t.Fatalf("expected a for statement, got %+v", stmt)
	}
	if stmt.For.Init.Decl == nil || stmt.For.Init.Decl.Name != "i" {
		t.Fatalf("expected for-init to declare 'i', got %+v", stmt.For.Init)
	}
	if stmt.For.Cond.IsNil() || stmt.For.Post.IsNil() {
		t.Fatalf("expected both cond and post to be present, got %+v", stmt.For)
	}
}

func TestParseForStatementWithEmptyClauses(t *testing.T) {
	prog := parseSource(t, "int main(void) { for (;;) { break; } return 0; }")
	stmt := prog.Function.Body.Items[0].Stmt
	if stmt.For == nil {
		t.Fatalf("expected a for statement, got %+v", stmt)
	}
	if stmt.For.Init.Decl != nil || !stmt.For.Init.Expr.IsNil() {
		t.Fatalf("expected an empty for-init, got %+v", stmt.For.Init)
	}
	if !stmt.For.Cond.IsNil() || !stmt.For.Post.IsNil() {
		t.Fatalf("expected empty cond/post, got %+v", stmt.For)
	}
}

func TestParseRejectsDecrementOperator(t *testing.T) {
	tokens, err := cast.Lex([]byte("int main(void) { int a = 0; a--; return a; }"))
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	parser := cast.NewParser(tokens)
	if _, err := parser.Parse(); err == nil {
		t.Fatalf("expected a *ParseError: postfix decrement is not supported")
	}
}
