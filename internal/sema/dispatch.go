package sema

import (
	"fmt"

	"lumen/internal/tir"
	"lumen/internal/uir"
)

// analyzeBody walks a body in order, dispatching every instruction to its
// handler and memoizing the typed result. The walk stops early once a
// handler produces a noreturn-typed result: the remainder of the body is
// unreachable by construction and is deliberately not analyzed.
func (s *Sema) analyzeBody(b *block, body []uir.InstIdx) error {
	for _, idx := range body {
		inst, err := s.analyzeInst(b, idx)
		if err != nil {
			return err
		}
		s.instMap[idx] = inst
		if s.isNoReturn(inst) {
			break
		}
	}
	return nil
}

// analyzeInst dispatches one untyped instruction. The opcode set is closed;
// an opcode without a handler is an upstream defect, not user error.
func (s *Sema) analyzeInst(b *block, idx uir.InstIdx) (*tir.Inst, error) {
	inst := s.code.Get(idx)
	switch inst.Op {
	case uir.OpInt:
		return s.analyzeInt(inst), nil
	case uir.OpIntBig:
		return s.analyzeIntBig(inst)
	case uir.OpFloat:
		return s.analyzeFloat(inst), nil
	case uir.OpAdd, uir.OpSub, uir.OpMul, uir.OpDiv, uir.OpMod,
		uir.OpBitAnd, uir.OpBitOr, uir.OpBitXor, uir.OpShl, uir.OpShr:
		return s.analyzeArith(b, inst)
	case uir.OpCmpEq, uir.OpCmpNeq, uir.OpCmpLt, uir.OpCmpLte, uir.OpCmpGt, uir.OpCmpGte:
		return s.analyzeCmp(b, inst)
	case uir.OpBoolAnd, uir.OpBoolOr:
		return s.analyzeBoolBin(b, inst)
	case uir.OpBoolNot:
		return s.analyzeBoolNot(b, inst)
	case uir.OpNeg:
		return s.analyzeNeg(b, inst)
	case uir.OpAs:
		return s.analyzeAs(b, inst)
	case uir.OpBlock:
		return s.analyzeBlock(b, idx, inst)
	case uir.OpLoop:
		return s.analyzeLoop(b, idx, inst)
	case uir.OpBreak:
		return s.analyzeBreak(b, inst)
	case uir.OpCondBr:
		return s.analyzeCondBr(b, inst)
	case uir.OpSwitch:
		return s.analyzeSwitch(b, inst)
	case uir.OpCall:
		return s.analyzeCall(b, inst)
	case uir.OpRet:
		return s.analyzeRet(b, inst)
	case uir.OpOptionalUnwrap:
		return s.analyzeOptionalUnwrap(b, inst)
	case uir.OpErrUnwrap:
		return s.analyzeErrUnwrap(b, inst)
	case uir.OpUnreachable:
		return s.analyzeUnreachable(b, inst)
	case uir.OpDeclRef:
		return s.analyzeDeclRef(b, inst)
	case uir.OpImport:
		return s.analyzeImport(inst)
	case uir.OpErrorValue:
		return s.analyzeErrorValue(inst), nil
	case uir.OpEnumLiteral:
		return s.analyzeEnumLiteral(inst), nil
	case uir.OpFieldVal:
		return s.analyzeFieldVal(b, inst)
	case uir.OpCompileLog:
		return s.analyzeCompileLog(inst), nil
	case uir.OpCompileError:
		return nil, s.analyzeCompileError(inst)
	case uir.OpInvalid:
		panic("invalid opcode in stream")
	default:
		panic(fmt.Sprintf("no handler for opcode %s", inst.Op))
	}
}
