package tacky

import "fmt"

// ----------------------------------------------------------------------------
// Builder
//
// Accumulates an instruction buffer and hands out unique temporary/label
// names, grounded on original_source/src/tacky/builder.rs. It is thin on
// purpose: it never reorders or drops what it's asked to emit, so the
// control-flow shapes built by the Lowerer stay visible in its own source.

type Builder struct {
	instructions []Instruction
	counter      int
}

// Initializes and returns to the caller a brand new 'Builder' with an empty
// instruction buffer.
func NewBuilder() *Builder {
	return &Builder{}
}

// tempSigil prefixes every Builder-minted temporary *variable* name only.
// cast.VariableResolver mints unique variable names as
// "<source-name>.<counter>" (resolve.go), a format a user identifier can
// collide with verbatim (e.g. a variable named "binary" next to a compiler
// temp for a binary op also named "binary.0") -- both end up as a TACKY Var
// and, after codegen, a Pseudo operand that pkg/x64/legalize.go's
// PseudoAllocator keys by name string, so a collision here silently aliases
// two distinct values onto the same stack slot. '%' can never appear in a C
// identifier, so prefixing temp names with it keeps the two Var namespaces
// disjoint regardless of what either counter produces.
//
// Label names minted by FreshLabel do NOT get this treatment: they become
// literal text in the emitted assembly (pkg/x64/emit.go's localLabel), where
// '%' is the register sigil in AT&T syntax and would produce invalid
// assembly. Labels never pass through the PseudoAllocator (Jump/Label carry
// a bare string Target/Name, never a Pseudo operand), so they were never
// part of this collision in the first place.
const tempSigil = "%"

// FreshTemp returns a Value for a new temporary variable uniquely suffixed
// off of name, e.g. FreshTemp("tmp") -> Var{"%tmp.0"}, then "%tmp.1", ...
func (b *Builder) FreshTemp(name string) Value {
	id := b.counter
	b.counter++
	return Var{Name: fmt.Sprintf("%s%s.%d", tempSigil, name, id)}
}

// FreshLabel returns a uniquely suffixed label name, e.g. FreshLabel("end") -> "end.0".
func (b *Builder) FreshLabel(name string) string {
	id := b.counter
	b.counter++
	return fmt.Sprintf("%s.%d", name, id)
}

// LabelWithPrefix derives a deterministic label from a loop's label (assigned
// by the loop labeller), without consuming the counter -- break_/continue_
// targets must be derivable from the label alone so Break/Continue can jump
// to them without threading the Builder through the loop labeller.
func (b *Builder) LabelWithPrefix(prefix, label string) string {
	return prefix + label
}

func (b *Builder) Emit(i Instruction)          { b.instructions = append(b.instructions, i) }
func (b *Builder) EmitAll(is []Instruction)    { b.instructions = append(b.instructions, is...) }
func (b *Builder) EmitLabel(name string)       { b.Emit(Label{Name: name}) }
func (b *Builder) EmitJump(target string)      { b.Emit(Jump{Target: target}) }
func (b *Builder) EmitCopy(src, dst Value)     { b.Emit(Copy{Src: src, Dst: dst}) }
func (b *Builder) EmitReturn(v Value)          { b.Emit(Return{Value: v}) }

func (b *Builder) EmitJumpIfZero(cond Value, target string) {
	b.Emit(JumpIfZero{Condition: cond, Target: target})
}

func (b *Builder) EmitJumpIfNotZero(cond Value, target string) {
	b.Emit(JumpIfNotZero{Condition: cond, Target: target})
}

// Finish returns the accumulated instructions. The Builder should not be used
// afterwards.
func (b *Builder) Finish() []Instruction { return b.instructions }
