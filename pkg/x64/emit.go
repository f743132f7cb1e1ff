package x64

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Emitter
//
// A pure function from a legalised x64.Program to AT&T-syntax assembly text,
// per spec.md §4.8. Platform resolves the open question §9 flags: the
// mach-o `_name` function-symbol convention is Darwin-only, parameterised
// here rather than hardcoded (SPEC_FULL.md §4.8).

type Platform int

const (
	Linux Platform = iota
	Darwin
)

type Emitter struct{ platform Platform }

// Initializes and returns to the caller a brand new 'Emitter' struct.
func NewEmitter(platform Platform) Emitter {
	return Emitter{platform: platform}
}

func (e Emitter) Emit(prog Program) (string, error) {
	var b strings.Builder

	name := e.functionSymbol(prog.Function.Name)
	fmt.Fprintf(&b, ".globl %s\n", name)
	fmt.Fprintf(&b, "%s:\n", name)
	b.WriteString("    pushq %rbp\n")
	b.WriteString("    movq %rsp, %rbp\n")

	for _, inst := range prog.Function.Instructions {
		line, err := e.line(inst)
		if err != nil {
			return "", err
		}
		if line != "" {
			b.WriteString(line)
		}
	}

	return b.String(), nil
}

func (e Emitter) functionSymbol(name string) string {
	if e.platform == Darwin {
		return "_" + name
	}
	return name
}

func (e Emitter) line(inst Instruction) (string, error) {
	switch t := inst.(type) {
	case Comment:
		return fmt.Sprintf("    # %s\n", t.Text), nil

	case AllocateStack:
		return fmt.Sprintf("    subq $%d, %%rsp\n", t.Bytes), nil

	case Ret:
		return "    movq %rbp, %rsp\n    popq %rbp\n    ret\n", nil

	case Mov:
		return fmt.Sprintf("    movl %s, %s\n", e.operand(t.Src, false), e.operand(t.Dst, false)), nil

	case Unary:
		return fmt.Sprintf("    %sl %s\n", t.Op, e.operand(t.Dst, false)), nil

	case Binary:
		// Shift instructions read their count from %cl, never %ecx.
		srcIsShiftCount := t.Op == ShiftL || t.Op == ShiftR
		return fmt.Sprintf("    %s %s, %s\n", binaryMnemonic(t.Op), e.operand(t.Src, srcIsShiftCount), e.operand(t.Dst, false)), nil

	case Cmp:
		return fmt.Sprintf("    cmpl %s, %s\n", e.operand(t.Src, false), e.operand(t.Dst, false)), nil

	case Idiv:
		return fmt.Sprintf("    idivl %s\n", e.operand(t.Src, false)), nil

	case Cdq:
		return "    cdq\n", nil

	case Jump:
		return fmt.Sprintf("    jmp %s\n", localLabel(t.Target)), nil

	case JmpCC:
		return fmt.Sprintf("    j%s %s\n", t.Cond, localLabel(t.Target)), nil

	case SetCC:
		return fmt.Sprintf("    set%s %s\n", t.Cond, e.operand(t.Dst, true)), nil

	case Label:
		return fmt.Sprintf("%s:\n", localLabel(t.Name)), nil

	default:
		return "", fmt.Errorf("emit: unrecognized instruction %T", inst)
	}
}

func binaryMnemonic(op BinaryOp) string { return string(op) + "l" }

func localLabel(name string) string { return "L" + name }

// operand formats op for use in an instruction; byteSized selects the
// single-byte register alias required by SetCC's destination (%al, %dl,
// %cl, %r10b, %r11b) rather than the 32-bit name used everywhere else.
func (e Emitter) operand(op Operand, byteSized bool) string {
	switch t := op.(type) {
	case Imm:
		return fmt.Sprintf("$%d", t.Value)
	case Stack:
		return fmt.Sprintf("%d(%%rbp)", t.Offset)
	case Register:
		if byteSized {
			return "%" + byteRegisterName[t.Name]
		}
		return "%" + dwordRegisterName[t.Name]
	case Pseudo:
		panic(fmt.Sprintf("emit: unresolved pseudo-register %q reached the emitter", t.Name))
	default:
		panic(fmt.Sprintf("emit: unrecognized operand %T", op))
	}
}

var dwordRegisterName = map[Reg]string{
	AX: "eax", DX: "edx", CX: "ecx", R10: "r10d", R11: "r11d",
}

var byteRegisterName = map[Reg]string{
	AX: "al", DX: "dl", CX: "cl", R10: "r10b", R11: "r11b",
}
