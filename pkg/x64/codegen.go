package x64

import (
	"fmt"

	"cc0.dev/compiler/pkg/tacky"
)

// ----------------------------------------------------------------------------
// Code Generator
//
// Translates a tacky.Program into its pseudo-register-addressed x64.Program
// counterpart, one TACKY instruction at a time, per the table in spec.md
// §4.6. Structured like the teacher's own asm.Lowerer: a struct wrapping the
// input plus a set of "Handle"-style per-case conversion methods.

type CodeGenerator struct{ program tacky.Program }

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires that argument 'p' (what we want to translate) has a populated
// Function field.
func NewCodeGenerator(p tacky.Program) CodeGenerator {
	return CodeGenerator{program: p}
}

func (cg *CodeGenerator) Generate() (Program, error) {
	instructions := make([]Instruction, 0, len(cg.program.Function.Instructions))

	for _, inst := range cg.program.Function.Instructions {
		generated, err := cg.HandleInstruction(inst)
		if err != nil {
			return Program{}, err
		}
		instructions = append(instructions, generated...)
	}

	return Program{Function: FunctionDefinition{
		Name:         cg.program.Function.Name,
		Instructions: instructions,
	}}, nil
}

func (cg *CodeGenerator) HandleInstruction(inst tacky.Instruction) ([]Instruction, error) {
	switch t := inst.(type) {
	case tacky.Comment:
		return []Instruction{Comment{Text: t.Text}}, nil

	case tacky.Return:
		return []Instruction{
			Mov{Src: cg.operand(t.Value), Dst: Register{Name: AX}},
			Ret{},
		}, nil

	case tacky.Unary:
		return cg.HandleUnary(t)

	case tacky.Binary:
		return cg.HandleBinary(t)

	case tacky.Copy:
		return []Instruction{Mov{Src: cg.operand(t.Src), Dst: cg.operand(t.Dst)}}, nil

	case tacky.Jump:
		return []Instruction{Jump{Target: t.Target}}, nil

	case tacky.JumpIfZero:
		return []Instruction{
			Cmp{Src: Imm{Value: 0}, Dst: cg.operand(t.Condition)},
			JmpCC{Cond: E, Target: t.Target},
		}, nil

	case tacky.JumpIfNotZero:
		return []Instruction{
			Cmp{Src: Imm{Value: 0}, Dst: cg.operand(t.Condition)},
			JmpCC{Cond: NE, Target: t.Target},
		}, nil

	case tacky.Label:
		return []Instruction{Label{Name: t.Name}}, nil

	default:
		return nil, fmt.Errorf("codegen: unrecognized TACKY instruction %T", inst)
	}
}

func (cg *CodeGenerator) HandleUnary(t tacky.Unary) ([]Instruction, error) {
	if t.Op == tacky.Not {
		return []Instruction{
			Cmp{Src: Imm{Value: 0}, Dst: cg.operand(t.Src)},
			Mov{Src: Imm{Value: 0}, Dst: cg.operand(t.Dst)},
			SetCC{Cond: E, Dst: cg.operand(t.Dst)},
		}, nil
	}

	op, ok := unaryOpOf[t.Op]
	if !ok {
		return nil, fmt.Errorf("codegen: unrecognized unary operator %q", t.Op)
	}
	return []Instruction{
		Mov{Src: cg.operand(t.Src), Dst: cg.operand(t.Dst)},
		Unary{Op: op, Dst: cg.operand(t.Dst)},
	}, nil
}

func (cg *CodeGenerator) HandleBinary(t tacky.Binary) ([]Instruction, error) {
	src1, src2, dst := cg.operand(t.Src1), cg.operand(t.Src2), cg.operand(t.Dst)

	switch t.Op {
	case tacky.Divide:
		return []Instruction{
			Mov{Src: src1, Dst: Register{Name: AX}},
			Cdq{},
			Idiv{Src: src2},
			Mov{Src: Register{Name: AX}, Dst: dst},
		}, nil

	case tacky.Remainder:
		return []Instruction{
			Mov{Src: src1, Dst: Register{Name: AX}},
			Cdq{},
			Idiv{Src: src2},
			Mov{Src: Register{Name: DX}, Dst: dst},
		}, nil
	}

	if cc, isRelop := condCodeOf[t.Op]; isRelop {
		return []Instruction{
			Cmp{Src: src2, Dst: src1},
			Mov{Src: Imm{Value: 0}, Dst: dst},
			SetCC{Cond: cc, Dst: dst},
		}, nil
	}

	op, ok := binaryOpOf[t.Op]
	if !ok {
		return nil, fmt.Errorf("codegen: unrecognized binary operator %q", t.Op)
	}
	return []Instruction{
		Mov{Src: src1, Dst: dst},
		Binary{Op: op, Src: src2, Dst: dst},
	}, nil
}

func (cg *CodeGenerator) operand(v tacky.Value) Operand {
	switch t := v.(type) {
	case tacky.Constant:
		return Imm{Value: t.Value}
	case tacky.Var:
		return Pseudo{Name: t.Name}
	default:
		panic(fmt.Sprintf("codegen: unrecognized TACKY value %T", v))
	}
}

var unaryOpOf = map[tacky.UnaryOperator]UnaryOp{
	tacky.Complement: Complement,
	tacky.Negate:     Neg,
}

var binaryOpOf = map[tacky.BinaryOperator]BinaryOp{
	tacky.Add: Add, tacky.Subtract: Subtract, tacky.Multiply: Multiply,
	tacky.BitwiseAnd: And, tacky.BitwiseOr: Or, tacky.BitwiseXor: Xor,
	tacky.LeftShift: ShiftL, tacky.RightShift: ShiftR,
}

var condCodeOf = map[tacky.BinaryOperator]CondCode{
	tacky.Equal: E, tacky.NotEqual: NE,
	tacky.LessThan: L, tacky.LessThanOrEqual: LE,
	tacky.GreaterThan: G, tacky.GreaterThanOrEqual: GE,
}
