package x64

import "fmt"

// ----------------------------------------------------------------------------
// Legalisation
//
// Two successive passes over the flat instruction list produced by
// CodeGenerator, per spec.md §4.7. Unlike the CAST passes (cast.Folder),
// there is no nested tree to recurse into here -- a FunctionDefinition is
// just a slice of Instruction -- so these are modeled as per-instruction
// rewrite passes in the shape of the teacher's own asm.Lowerer: a struct
// wrapping the input, with one "Handle"-style method per instruction kind.

// ---- Pass A: pseudo-register allocation ----

// PseudoAllocator assigns each distinct Pseudo operand its own 4-byte stack
// slot, in first-seen order, and rewrites every occurrence to a Stack
// operand. No live-range analysis, no slot reuse -- one slot per unique name.
type PseudoAllocator struct {
	offsets map[string]int
	next    int // next offset to assign, counting down from -4
}

func NewPseudoAllocator() *PseudoAllocator {
	return &PseudoAllocator{offsets: map[string]int{}, next: -4}
}

// Allocate rewrites every Pseudo operand in fn to a Stack operand and returns
// the rounded frame size (a positive byte count) to reserve in the prologue.
func (a *PseudoAllocator) Allocate(fn FunctionDefinition) (FunctionDefinition, int) {
	rewritten := make([]Instruction, len(fn.Instructions))
	for i, inst := range fn.Instructions {
		rewritten[i] = a.HandleInstruction(inst)
	}
	return FunctionDefinition{Name: fn.Name, Instructions: rewritten}, roundUpTo16(-a.next - 4)
}

func (a *PseudoAllocator) slot(name string) Stack {
	offset, ok := a.offsets[name]
	if !ok {
		offset = a.next
		a.offsets[name] = offset
		a.next -= 4
	}
	return Stack{Offset: offset}
}

func (a *PseudoAllocator) operand(op Operand) Operand {
	if p, ok := op.(Pseudo); ok {
		return a.slot(p.Name)
	}
	return op
}

func (a *PseudoAllocator) HandleInstruction(inst Instruction) Instruction {
	switch t := inst.(type) {
	case Mov:
		return Mov{Src: a.operand(t.Src), Dst: a.operand(t.Dst)}
	case Unary:
		return Unary{Op: t.Op, Dst: a.operand(t.Dst)}
	case Binary:
		return Binary{Op: t.Op, Src: a.operand(t.Src), Dst: a.operand(t.Dst)}
	case Cmp:
		return Cmp{Src: a.operand(t.Src), Dst: a.operand(t.Dst)}
	case Idiv:
		return Idiv{Src: a.operand(t.Src)}
	case SetCC:
		return SetCC{Cond: t.Cond, Dst: a.operand(t.Dst)}
	default:
		// Cdq, Jump, JmpCC, Label, Ret, Comment, AllocateStack carry no operands.
		return inst
	}
}

func roundUpTo16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}

// ---- Pass B: instruction legaliser ----

// Legalizer prepends the AllocateStack prologue instruction and rewrites
// each instruction to satisfy x86-64's operand constraints (memory-to-memory
// operands forbidden, idiv cannot take an immediate, imul's destination must
// be a register, shift counts must live in %cl, cmp cannot have an immediate
// destination), per the eight patterns in spec.md §4.7.
type Legalizer struct{}

func NewLegalizer() *Legalizer { return &Legalizer{} }

func (lg *Legalizer) Legalize(fn FunctionDefinition, frameSize int) FunctionDefinition {
	out := make([]Instruction, 0, len(fn.Instructions)+1)
	out = append(out, AllocateStack{Bytes: frameSize})

	for _, inst := range fn.Instructions {
		out = append(out, lg.HandleInstruction(inst)...)
	}
	return FunctionDefinition{Name: fn.Name, Instructions: out}
}

func isStack(op Operand) bool { _, ok := op.(Stack); return ok }
func isImm(op Operand) (Imm, bool) { v, ok := op.(Imm); return v, ok }

func (lg *Legalizer) HandleInstruction(inst Instruction) []Instruction {
	switch t := inst.(type) {
	case Mov:
		// Pattern 1: memory -> memory is forbidden.
		if isStack(t.Src) && isStack(t.Dst) {
			return []Instruction{
				Mov{Src: t.Src, Dst: Register{Name: R10}},
				Mov{Src: Register{Name: R10}, Dst: t.Dst},
			}
		}
		return []Instruction{t}

	case Idiv:
		// Pattern 2: idiv requires a register/memory operand, not an immediate.
		if _, ok := isImm(t.Src); ok {
			return []Instruction{
				Mov{Src: t.Src, Dst: Register{Name: R10}},
				Idiv{Src: Register{Name: R10}},
			}
		}
		return []Instruction{t}

	case Binary:
		return lg.handleBinary(t)

	case Cmp:
		return lg.handleCmp(t)

	default:
		return []Instruction{inst}
	}
}

func (lg *Legalizer) handleBinary(t Binary) []Instruction {
	switch t.Op {
	case Add, Subtract, And, Or, Xor:
		// Patterns 3 & 5: memory -> memory split via %r10.
		if isStack(t.Src) && isStack(t.Dst) {
			return []Instruction{
				Mov{Src: t.Src, Dst: Register{Name: R10}},
				Binary{Op: t.Op, Src: Register{Name: R10}, Dst: t.Dst},
			}
		}
		return []Instruction{t}

	case Multiply:
		// Pattern 4: imul's destination must be a register.
		if isStack(t.Dst) {
			return []Instruction{
				Mov{Src: t.Dst, Dst: Register{Name: R11}},
				Binary{Op: Multiply, Src: t.Src, Dst: Register{Name: R11}},
				Mov{Src: Register{Name: R11}, Dst: t.Dst},
			}
		}
		return []Instruction{t}

	case ShiftL, ShiftR:
		// Pattern 6: the shift count must live in %cl.
		if _, ok := isImm(t.Src); ok {
			return []Instruction{t}
		}
		return []Instruction{
			Mov{Src: t.Src, Dst: Register{Name: CX}},
			Binary{Op: t.Op, Src: Register{Name: CX}, Dst: t.Dst},
		}

	default:
		return []Instruction{t}
	}
}

func (lg *Legalizer) handleCmp(t Cmp) []Instruction {
	// Pattern 7: memory -> memory split via %r10.
	if isStack(t.Src) && isStack(t.Dst) {
		return []Instruction{
			Mov{Src: t.Src, Dst: Register{Name: R10}},
			Cmp{Src: Register{Name: R10}, Dst: t.Dst},
		}
	}
	// Pattern 8: cmp cannot have an immediate destination.
	if _, ok := isImm(t.Dst); ok {
		return []Instruction{
			Mov{Src: t.Dst, Dst: Register{Name: R11}},
			Cmp{Src: t.Src, Dst: Register{Name: R11}},
		}
	}
	return []Instruction{t}
}

// Run applies both legalisation passes in order, matching the sequencing
// required by spec.md §4.7 (frame size from Pass A feeds Pass B's prologue).
func Run(prog Program) (Program, error) {
	if len(prog.Function.Instructions) == 0 {
		return Program{}, fmt.Errorf("legalize: function %q has no instructions", prog.Function.Name)
	}

	allocator := NewPseudoAllocator()
	allocated, frameSize := allocator.Allocate(prog.Function)

	legalizer := NewLegalizer()
	legalized := legalizer.Legalize(allocated, frameSize)

	return Program{Function: legalized}, nil
}
