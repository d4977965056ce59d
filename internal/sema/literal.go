package sema

import (
	"math/big"

	"lumen/internal/tir"
	"lumen/internal/uir"
)

func (s *Sema) analyzeInt(inst uir.Inst) *tir.Inst {
	v := s.code.Ints[inst.Payload]
	return s.newConst(inst.Span, tir.Value{
		Kind: tir.ValInt,
		Type: s.opts.Types.Builtins().ComptimeInt,
		Int:  big.NewInt(v),
	})
}

func (s *Sema) analyzeIntBig(inst uir.Inst) (*tir.Inst, error) {
	digits := s.code.Strings.MustLookup(inst.Str)
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		panic("malformed big-integer literal in stream: " + digits)
	}
	return s.newConst(inst.Span, tir.Value{
		Kind: tir.ValInt,
		Type: s.opts.Types.Builtins().ComptimeInt,
		Int:  v,
	}), nil
}

func (s *Sema) analyzeFloat(inst uir.Inst) *tir.Inst {
	return s.newConst(inst.Span, tir.Value{
		Kind:  tir.ValFloat,
		Type:  s.opts.Types.Builtins().ComptimeFloat,
		Float: s.code.Floats[inst.Payload],
	})
}
