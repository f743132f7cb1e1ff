package cast_test

import (
	"strings"
	"testing"

	"cc0.dev/compiler/pkg/cast"
)

func resolveSource(t *testing.T, src string) (cast.Program, error) {
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
	return cast.NewVariableResolver().Resolve(program)
}

func TestResolveRenamesDeclarationAndReference(t *testing.T) {
	resolved, err := resolveSource(t, "int main(void) { int a = 1; return a; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// declarations live in BlockItem.Decl (Stmt is nil for them)
	declItem := resolved.Function.Body.Items[0].Decl
	if declItem == nil {
		t.Fatalf("expected a declaration block item")
	}
	if declItem.Name == "a" || !strings.HasPrefix(declItem.Name, "a.") {
		t.Fatalf("expected a renamed unique name prefixed with 'a.', got %q", declItem.Name)
	}

	ret := resolved.Function.Body.Items[1].Stmt.Return
	if ret.Expr.Var == nil || ret.Expr.Var.Name != declItem.Name {
		t.Fatalf("expected the reference to be rewritten to %q, got %+v", declItem.Name, ret.Expr)
	}
}

func TestResolveRejectsDuplicateDeclaration(t *testing.T) {
	if _, err := resolveSource(t, "int main(void) { int a = 1; int a = 2; return a; }"); err == nil {
		t.Fatalf("expected an error for a duplicate declaration in the same block")
	}
}

func TestResolveRejectsUndeclaredVariable(t *testing.T) {
	if _, err := resolveSource(t, "int main(void) { return a; }"); err == nil {
		t.Fatalf("expected an error for an undeclared variable")
	}
}

func TestResolveAllowsShadowingInNestedBlock(t *testing.T) {
	resolved, err := resolveSource(t, "int main(void) { int a = 1; { int a = 2; } return a; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outer := resolved.Function.Body.Items[0].Decl
	compound := resolved.Function.Body.Items[1].Stmt.Compound
	inner := compound.Block.Items[0].Decl

	if outer.Name == inner.Name {
		t.Fatalf("expected the nested 'a' to resolve to a distinct unique name, both got %q", outer.Name)
	}

	ret := resolved.Function.Body.Items[2].Stmt.Return
	if ret.Expr.Var.Name != outer.Name {
		t.Fatalf("expected the final return to reference the outer 'a' (%q), got %q", outer.Name, ret.Expr.Var.Name)
	}
}

func TestResolveAllowsSiblingForLoopsToReuseTheSameLoopVariableName(t *testing.T) {
	src := "int main(void) { int sum = 0; " +
		"for (int i = 0; i < 3; i = i + 1) { sum = sum + i; } " +
		"for (int i = 0; i < 3; i = i + 1) { sum = sum + i; } " +
		"return sum; }"
	if _, err := resolveSource(t, src); err != nil {
		t.Fatalf("expected sibling for-loops to each get their own scope for 'i', got: %v", err)
	}
}

func TestResolveRejectsNonVariableAssignmentTarget(t *testing.T) {
	// "(1 + 2) = 3;" parses fine (parser_test.go's
	// TestParseAcceptsNonVariableAssignmentTarget) -- rejecting it is
	// VariableResolver.FoldExpression's job.
	if _, err := resolveSource(t, "int main(void) { (1 + 2) = 3; return 0; }"); err == nil {
		t.Fatalf("expected an error for an assignment whose target is not a variable")
	}
}

func TestResolveRejectsRedeclarationEvenWhenShadowingOuterScope(t *testing.T) {
	// Re-declaring a name that was only inherited from a parent scope is fine;
	// re-declaring a name already declared *in this block* is not, even if a
	// variable with the same source name exists in an enclosing scope.
	if _, err := resolveSource(t, "int main(void) { int a = 1; { int a = 2; int a = 3; } return a; }"); err == nil {
		t.Fatalf("expected an error for a duplicate declaration inside the nested block")
	}
}
