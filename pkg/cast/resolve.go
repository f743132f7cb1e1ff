package cast

import "fmt"

// ----------------------------------------------------------------------------
// Variable resolution
//
// Renames every declared variable to a globally-unique name and rewrites each
// reference to the name it was declared under, rejecting duplicate
// declarations in the same block and uses of undeclared variables. Grounded
// on original_source/src/c_ast/semantic/var_res.rs: each compound statement
// gets a fresh scope seeded from its parent's (so outer names remain visible)
// but with every entry marked as not belonging to the new block, which is
// what makes shadowing legal while re-declaring in the same block illegal.
//
// The scope chain is an explicit slice rather than utils.Stack[T]: resolution
// needs to search from the innermost scope outward on every variable
// reference, and Stack[T] has no non-destructive multi-entry read beyond its
// single-value Iterator method.
// utils.Stack[T] is instead put to use in looplabel.go, where push/pop over
// the enclosing loop is the entire access pattern.

type varEntry struct {
	uniqueName    string
	fromThisBlock bool
}

type scope map[string]varEntry

// VariableResolver implements Folder, renaming declarations and references.
type VariableResolver struct {
	Base
	scopes  []scope
	counter int
}

// Initializes and returns to the caller a brand new 'VariableResolver',
// seeded with a single empty scope for the function body.
func NewVariableResolver() *VariableResolver {
	r := &VariableResolver{scopes: []scope{{}}}
	r.Base.Self = r
	return r
}

// Resolve renames every declaration/reference in p, or fails at the first
// duplicate declaration or undeclared-variable use.
func (r *VariableResolver) Resolve(p Program) (Program, error) {
	return r.FoldProgram(p)
}

func (r *VariableResolver) top() scope { return r.scopes[len(r.scopes)-1] }

func (r *VariableResolver) freshName(base string) string {
	r.counter++
	return fmt.Sprintf("%s.%d", base, r.counter)
}

func (r *VariableResolver) lookup(name string) (string, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if entry, found := r.scopes[i][name]; found {
			return entry.uniqueName, true
		}
	}
	return "", false
}

func (r *VariableResolver) FoldDeclaration(d Declaration) (Declaration, error) {
	top := r.top()
	if entry, found := top[d.Name]; found && entry.fromThisBlock {
		return Declaration{}, fmt.Errorf("duplicate variable declaration: %q", d.Name)
	}

	unique := r.freshName(d.Name)
	top[d.Name] = varEntry{uniqueName: unique, fromThisBlock: true}

	init := d.Initializer
	if !init.IsNil() {
		var err error
		if init, err = r.FoldExpression(init); err != nil {
			return Declaration{}, err
		}
	}
	return Declaration{Name: unique, Initializer: init}, nil
}

// FoldStatement overrides the Compound and For cases: a nested block inherits
// the enclosing scope's names (shadowing is legal) but starts a fresh
// "declared in this block" slate (re-declaring an inherited name is legal).
// For gets the same treatment so its own init-declared variable lives in a
// scope wrapping the whole loop -- otherwise sibling for-loops reusing the
// same loop-variable name would collide as duplicate declarations in what is
// really the same enclosing block.
func (r *VariableResolver) FoldStatement(s Statement) (Statement, error) {
	switch {
	case s.Compound != nil:
		r.pushInheritedScope()
		block, err := r.FoldBlock(s.Compound.Block)
		r.popScope()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Compound: &CompoundStmt{Block: block}}, nil

	case s.For != nil:
		r.pushInheritedScope()
		resolved, err := r.Base.FoldStatement(s)
		r.popScope()
		if err != nil {
			return Statement{}, err
		}
		return resolved, nil

	default:
		return r.Base.FoldStatement(s)
	}
}

func (r *VariableResolver) pushInheritedScope() {
	inherited := make(scope, len(r.top()))
	for name, entry := range r.top() {
		inherited[name] = varEntry{uniqueName: entry.uniqueName, fromThisBlock: false}
	}
	r.scopes = append(r.scopes, inherited)
}

func (r *VariableResolver) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// FoldExpression overrides Assignment (to enforce the lvalue-is-a-variable
// rule) and Var (to rewrite the reference to its unique name); every other
// expression shape falls through to the default recursive traversal.
func (r *VariableResolver) FoldExpression(e Expression) (Expression, error) {
	switch {
	case e.Assignment != nil:
		if e.Assignment.Left.Var == nil {
			return Expression{}, fmt.Errorf("invalid assignment target")
		}
		left, err := r.FoldExpression(*e.Assignment.Left)
		if err != nil {
			return Expression{}, err
		}
		right, err := r.FoldExpression(*e.Assignment.Right)
		if err != nil {
			return Expression{}, err
		}
		return AssignE(left, right), nil

	case e.Var != nil:
		unique, found := r.lookup(e.Var.Name)
		if !found {
			return Expression{}, fmt.Errorf("undeclared variable: %q", e.Var.Name)
		}
		return VarRef(unique), nil

	default:
		return r.Base.FoldExpression(e)
	}
}
