package x64_test

import (
	"testing"

	"cc0.dev/compiler/pkg/x64"
)

func TestAllocatePseudoGivesEachNameItsOwnSlot(t *testing.T) {
	allocator := x64.NewPseudoAllocator()
	fn := x64.FunctionDefinition{Name: "main", Instructions: []x64.Instruction{
		x64.Mov{Src: x64.Imm{Value: 1}, Dst: x64.Pseudo{Name: "a.0"}},
		x64.Mov{Src: x64.Pseudo{Name: "a.0"}, Dst: x64.Pseudo{Name: "b.1"}},
	}}

	allocated, frame := allocator.Allocate(fn)

	first := allocated.Instructions[0].(x64.Mov).Dst.(x64.Stack)
	second := allocated.Instructions[1].(x64.Mov)
	secondSrc := second.Src.(x64.Stack)
	secondDst := second.Dst.(x64.Stack)

	if first.Offset != secondSrc.Offset {
		t.Fatalf("expected 'a.0' to resolve to the same slot both times, got %d and %d", first.Offset, secondSrc.Offset)
	}
	if first.Offset == secondDst.Offset {
		t.Fatalf("expected 'a.0' and 'b.1' to get distinct slots, both got %d", first.Offset)
	}
	if frame <= 0 || frame%16 != 0 {
		t.Fatalf("expected a positive frame size rounded to 16 bytes, got %d", frame)
	}
}

func TestLegalizeSplitsMemoryToMemoryMov(t *testing.T) {
	fn := x64.FunctionDefinition{Instructions: []x64.Instruction{
		x64.Mov{Src: x64.Stack{Offset: -4}, Dst: x64.Stack{Offset: -8}},
	}}

	out := x64.NewLegalizer().Legalize(fn, 16).Instructions
	// [0] is the prologue's AllocateStack; the rewritten Mov pair follows.
	if _, ok := out[0].(x64.AllocateStack); !ok {
		t.Fatalf("expected AllocateStack to be prepended, got %#v", out[0])
	}
	if len(out) != 3 {
		t.Fatalf("expected AllocateStack + 2-instruction Mov split, got %d instructions: %#v", len(out), out)
	}
	first := out[1].(x64.Mov)
	second := out[2].(x64.Mov)
	if first.Dst != (x64.Register{Name: x64.R10}) || second.Src != (x64.Register{Name: x64.R10}) {
		t.Fatalf("expected the split to route through %%r10, got %#v then %#v", first, second)
	}
}

func TestLegalizeRewritesIdivImmediate(t *testing.T) {
	fn := x64.FunctionDefinition{Instructions: []x64.Instruction{
		x64.Idiv{Src: x64.Imm{Value: 2}},
	}}

	out := x64.NewLegalizer().Legalize(fn, 0).Instructions[1:]
	if len(out) != 2 {
		t.Fatalf("expected Mov + Idiv, got %#v", out)
	}
	if _, ok := out[1].(x64.Idiv).Src.(x64.Register); !ok {
		t.Fatalf("expected idiv's operand to be a register, got %#v", out[1])
	}
}

func TestLegalizeMultiplyRoutesThroughR11WhenDestIsStack(t *testing.T) {
	fn := x64.FunctionDefinition{Instructions: []x64.Instruction{
		x64.Binary{Op: x64.Multiply, Src: x64.Imm{Value: 3}, Dst: x64.Stack{Offset: -4}},
	}}

	out := x64.NewLegalizer().Legalize(fn, 0).Instructions[1:]
	if len(out) != 3 {
		t.Fatalf("expected Mov/Binary/Mov, got %d instructions: %#v", len(out), out)
	}
	mid := out[1].(x64.Binary)
	if mid.Dst != (x64.Register{Name: x64.R11}) {
		t.Fatalf("expected imul's destination to be %%r11, got %#v", mid)
	}
}

func TestLegalizeShiftMovesCountIntoCX(t *testing.T) {
	fn := x64.FunctionDefinition{Instructions: []x64.Instruction{
		x64.Binary{Op: x64.ShiftL, Src: x64.Stack{Offset: -4}, Dst: x64.Stack{Offset: -8}},
	}}

	out := x64.NewLegalizer().Legalize(fn, 0).Instructions[1:]
	if len(out) != 2 {
		t.Fatalf("expected Mov + Binary, got %#v", out)
	}
	shift := out[1].(x64.Binary)
	if shift.Src != (x64.Register{Name: x64.CX}) {
		t.Fatalf("expected the shift count operand to be %%cx, got %#v", shift)
	}
}

func TestLegalizeCmpRejectsImmediateDestination(t *testing.T) {
	fn := x64.FunctionDefinition{Instructions: []x64.Instruction{
		x64.Cmp{Src: x64.Stack{Offset: -4}, Dst: x64.Imm{Value: 10}},
	}}

	out := x64.NewLegalizer().Legalize(fn, 0).Instructions[1:]
	if len(out) != 2 {
		t.Fatalf("expected Mov + Cmp, got %#v", out)
	}
	cmp := out[1].(x64.Cmp)
	if cmp.Dst != (x64.Register{Name: x64.R11}) {
		t.Fatalf("expected cmp's destination to be moved into %%r11, got %#v", cmp)
	}
}
