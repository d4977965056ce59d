package sema

import (
	"fmt"
	"math/big"

	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/uir"
)

const refBuiltinTableSize = 8

func (s *Sema) makeParams() {
	for i, p := range s.opts.Params {
		s.params = append(s.params, s.arena.NewInst(tir.Inst{
			Kind:  tir.KindParam,
			Type:  p.Type,
			Index: uint32(i),
		}))
	}
}

// resolveRef converts a stream reference into a typed instruction. The
// reference space is partitioned into disjoint ranges, checked in order:
// built-in constants, then parameters (or the inlining context's typed call
// arguments), then prior instruction results. Resolution never fails for a
// well-formed stream; a miss is a defect upstream.
func (s *Sema) resolveRef(ref uir.Ref) *tir.Inst {
	switch {
	case ref.IsBuiltin():
		return s.builtinConst(ref)
	case ref.IsParam():
		i := ref.ParamIndex()
		if s.inlining != nil {
			if i >= uint32(len(s.inlining.args)) {
				panic(fmt.Sprintf("argument reference %d out of range", i))
			}
			return s.inlining.args[i]
		}
		if i >= uint32(len(s.params)) {
			panic(fmt.Sprintf("parameter reference %d out of range", i))
		}
		return s.params[i]
	default:
		inst, ok := s.instMap[ref.Inst()]
		if !ok {
			panic(fmt.Sprintf("unresolved instruction reference %v", ref))
		}
		return inst
	}
}

// builtinConst returns the typed instruction for a built-in constant
// reference. The table is per activation and memoized, like the
// instruction map.
func (s *Sema) builtinConst(ref uir.Ref) *tir.Inst {
	if inst := s.builtins[ref]; inst != nil {
		return inst
	}
	bt := s.opts.Types.Builtins()
	var val tir.Value
	switch ref {
	case uir.RefVoidValue:
		val = tir.Value{Kind: tir.ValVoid, Type: bt.Void}
	case uir.RefZero:
		val = tir.Value{Kind: tir.ValInt, Type: bt.ComptimeInt, Int: big.NewInt(0)}
	case uir.RefOne:
		val = tir.Value{Kind: tir.ValInt, Type: bt.ComptimeInt, Int: big.NewInt(1)}
	case uir.RefBoolTrue:
		val = tir.Value{Kind: tir.ValBool, Type: bt.Bool, Bool: true}
	case uir.RefBoolFalse:
		val = tir.Value{Kind: tir.ValBool, Type: bt.Bool, Bool: false}
	case uir.RefNull:
		val = tir.Value{Kind: tir.ValNull, Type: bt.Null}
	case uir.RefUndef:
		val = tir.Value{Kind: tir.ValUndef, Type: bt.Undefined}
	default:
		panic(fmt.Sprintf("unknown built-in reference %v", ref))
	}
	inst := s.newConst(source.Span{}, val)
	s.builtins[ref] = inst
	return inst
}
