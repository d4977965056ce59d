package uir

import (
	"fmt"

	"fortio.org/safecast"

	"lumen/internal/source"
)

// Builder assembles a Code stream. In production the stream arrives from
// the lowering stage; the builder exists for the driver's bundle decoding
// and for tests, which construct streams directly.
type Builder struct {
	code Code
}

func NewBuilder() *Builder {
	return &Builder{
		code: Code{Strings: source.NewInterner()},
	}
}

// NewBuilderWithStrings shares an existing string table, so that streams of
// several declarations in one file agree on StringIDs.
func NewBuilderWithStrings(strings *source.Interner) *Builder {
	return &Builder{
		code: Code{Strings: strings},
	}
}

// Finish returns the built stream. The builder must not be reused after.
func (b *Builder) Finish(root []InstIdx) *Code {
	b.code.Root = root
	code := b.code
	return &code
}

func (b *Builder) add(inst Inst) InstIdx {
	idx := safecast.MustConv[uint32](len(b.code.Insts))
	b.code.Insts = append(b.code.Insts, inst)
	return InstIdx(idx)
}

func (b *Builder) addExtra(words ...uint32) uint32 {
	at := safecast.MustConv[uint32](len(b.code.Extra))
	b.code.Extra = append(b.code.Extra, words...)
	return at
}

func (b *Builder) encodeBody(body []InstIdx) []uint32 {
	out := make([]uint32, 0, len(body)+1)
	out = append(out, safecast.MustConv[uint32](len(body)))
	for _, idx := range body {
		out = append(out, uint32(idx))
	}
	return out
}

// TypeExpr registers a type annotation and returns its index.
func (b *Builder) TypeExpr(te TypeExpr) TypeExprIdx {
	idx := safecast.MustConv[int32](len(b.code.Types))
	b.code.Types = append(b.code.Types, te)
	return TypeExprIdx(idx)
}

// Int emits an integer literal that fits in 64 signed bits.
func (b *Builder) Int(span source.Span, v int64) InstIdx {
	payload := safecast.MustConv[uint32](len(b.code.Ints))
	b.code.Ints = append(b.code.Ints, v)
	return b.add(Inst{Op: OpInt, Span: span, Payload: payload})
}

// IntBig emits an arbitrary-precision integer literal from decimal digits.
func (b *Builder) IntBig(span source.Span, digits string) InstIdx {
	return b.add(Inst{Op: OpIntBig, Span: span, Str: b.code.Strings.Intern(digits)})
}

// Float emits a floating-point literal.
func (b *Builder) Float(span source.Span, v float64) InstIdx {
	payload := safecast.MustConv[uint32](len(b.code.Floats))
	b.code.Floats = append(b.code.Floats, v)
	return b.add(Inst{Op: OpFloat, Span: span, Payload: payload})
}

// Binary emits a two-operand instruction.
func (b *Builder) Binary(op Op, span source.Span, lhs, rhs Ref) InstIdx {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr,
		OpCmpEq, OpCmpNeq, OpCmpLt, OpCmpLte, OpCmpGt, OpCmpGte,
		OpBoolAnd, OpBoolOr:
		return b.add(Inst{Op: op, Span: span, A: lhs, B: rhs})
	default:
		panic(fmt.Sprintf("Binary with %s opcode", op))
	}
}

// Unary emits a one-operand instruction.
func (b *Builder) Unary(op Op, span source.Span, operand Ref) InstIdx {
	switch op {
	case OpNeg, OpBoolNot, OpOptionalUnwrap, OpErrUnwrap:
		return b.add(Inst{Op: op, Span: span, A: operand})
	default:
		panic(fmt.Sprintf("Unary with %s opcode", op))
	}
}

// As emits a coercion of operand to the annotated type.
func (b *Builder) As(span source.Span, dest TypeExprIdx, operand Ref) InstIdx {
	return b.add(Inst{Op: OpAs, Span: span, A: operand, Payload: uint32(dest)})
}

// ReserveBlock appends a block instruction whose body is filled in later,
// so that break instructions inside the body can reference it.
func (b *Builder) ReserveBlock(span source.Span) InstIdx {
	return b.add(Inst{Op: OpBlock, Span: span})
}

// ReserveLoop appends a loop instruction whose body is filled in later.
func (b *Builder) ReserveLoop(span source.Span) InstIdx {
	return b.add(Inst{Op: OpLoop, Span: span})
}

// FinishBody attaches a body to a reserved block or loop.
func (b *Builder) FinishBody(idx InstIdx, body []InstIdx) {
	inst := &b.code.Insts[idx]
	if inst.Op != OpBlock && inst.Op != OpLoop {
		panic(fmt.Sprintf("FinishBody on %s instruction", inst.Op))
	}
	inst.Payload = b.addExtra(b.encodeBody(body)...)
}

// Break emits a break carrying operand to the given block.
func (b *Builder) Break(span source.Span, target InstIdx, operand Ref) InstIdx {
	return b.add(Inst{Op: OpBreak, Span: span, A: InstRef(target), B: operand})
}

// CondBr emits a conditional branch with two bodies.
func (b *Builder) CondBr(span source.Span, cond Ref, then, els []InstIdx) InstIdx {
	words := []uint32{
		safecast.MustConv[uint32](len(then)),
		safecast.MustConv[uint32](len(els)),
	}
	for _, idx := range then {
		words = append(words, uint32(idx))
	}
	for _, idx := range els {
		words = append(words, uint32(idx))
	}
	return b.add(Inst{Op: OpCondBr, Span: span, A: cond, Payload: b.addExtra(words...)})
}

// Switch emits a multi-way branch.
func (b *Builder) Switch(span source.Span, scrutinee Ref, cases []SwitchCase, els []InstIdx) InstIdx {
	hasElse := uint32(0)
	if els != nil {
		hasElse = 1
	}
	words := []uint32{safecast.MustConv[uint32](len(cases)), hasElse}
	for _, cs := range cases {
		isRange := uint32(0)
		if cs.IsRange {
			isRange = 1
		}
		last := cs.Last
		if !cs.IsRange {
			last = cs.First
		}
		words = append(words, isRange, uint32(cs.First), uint32(last))
		words = append(words, b.encodeBody(cs.Body)...)
	}
	if els != nil {
		words = append(words, b.encodeBody(els)...)
	}
	return b.add(Inst{Op: OpSwitch, Span: span, A: scrutinee, Payload: b.addExtra(words...)})
}

// Call emits a call of callee with the given modifier and arguments.
func (b *Builder) Call(span source.Span, callee Ref, mod CallMod, args []Ref) InstIdx {
	words := []uint32{uint32(mod), safecast.MustConv[uint32](len(args))}
	for _, a := range args {
		words = append(words, uint32(a))
	}
	return b.add(Inst{Op: OpCall, Span: span, A: callee, Payload: b.addExtra(words...)})
}

// Ret emits a return of operand. Use RefVoidValue for value-less returns.
func (b *Builder) Ret(span source.Span, operand Ref) InstIdx {
	return b.add(Inst{Op: OpRet, Span: span, A: operand})
}

// Unreachable emits the statically-unreachable marker.
func (b *Builder) Unreachable(span source.Span) InstIdx {
	return b.add(Inst{Op: OpUnreachable, Span: span})
}

// DeclRef emits a reference to another declaration by name.
func (b *Builder) DeclRef(span source.Span, name string) InstIdx {
	return b.add(Inst{Op: OpDeclRef, Span: span, Str: b.code.Strings.Intern(name)})
}

// Import emits a file import by path.
func (b *Builder) Import(span source.Span, path string) InstIdx {
	return b.add(Inst{Op: OpImport, Span: span, Str: b.code.Strings.Intern(path)})
}

// ErrorValue emits an error-set value literal.
func (b *Builder) ErrorValue(span source.Span, name string) InstIdx {
	return b.add(Inst{Op: OpErrorValue, Span: span, Str: b.code.Strings.Intern(name)})
}

// EnumLiteral emits an enum-literal value.
func (b *Builder) EnumLiteral(span source.Span, name string) InstIdx {
	return b.add(Inst{Op: OpEnumLiteral, Span: span, Str: b.code.Strings.Intern(name)})
}

// FieldVal emits a field access on operand.
func (b *Builder) FieldVal(span source.Span, operand Ref, name string) InstIdx {
	return b.add(Inst{Op: OpFieldVal, Span: span, A: operand, Str: b.code.Strings.Intern(name)})
}

// CompileLog emits a compile-log instruction over the given operands.
func (b *Builder) CompileLog(span source.Span, args []Ref) InstIdx {
	words := []uint32{safecast.MustConv[uint32](len(args))}
	for _, a := range args {
		words = append(words, uint32(a))
	}
	return b.add(Inst{Op: OpCompileLog, Span: span, Payload: b.addExtra(words...)})
}

// CompileError emits an unconditional compile error with the given message.
func (b *Builder) CompileError(span source.Span, msg string) InstIdx {
	return b.add(Inst{Op: OpCompileError, Span: span, Str: b.code.Strings.Intern(msg)})
}
