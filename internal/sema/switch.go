package sema

import (
	"math/big"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// switchCase is one case after its values have been typed: coerced to the
// scrutinee type and proven compile-time-known.
type switchCase struct {
	first *tir.Inst
	last  *tir.Inst // nil for single-value cases
	body  []uir.InstIdx
}

func (s *Sema) analyzeSwitch(b *block, inst uir.Inst) (*tir.Inst, error) {
	data := s.code.Switch(inst)
	scrut := s.resolveRef(inst.A)
	if scrut.Val.IsUndef() {
		return nil, s.fail(diag.EvalUndefinedOperand, inst.Span, "use of undefined value")
	}

	cases, err := s.typeSwitchCases(b, scrut.Type, data, inst.Span)
	if err != nil {
		return nil, err
	}
	if err := s.validateSwitch(scrut.Type, cases, data.HasElse, inst.Span); err != nil {
		return nil, err
	}

	// A known scrutinee selects exactly one body; the rest are never
	// analyzed.
	if isComptime(scrut) {
		for _, cs := range cases {
			if s.caseMatches(cs, scrut.Val) {
				return s.analyzeBodyInto(b, cs.body)
			}
		}
		if !data.HasElse {
			panic("validated switch missed a compile-time scrutinee value")
		}
		return s.analyzeBodyInto(b, data.Else)
	}

	if b.comptime {
		return nil, s.fail(diag.EvalRuntimeValue, inst.Span,
			"switch operand is not compile-time known")
	}

	out := make([]tir.SwitchCase, 0, len(cases))
	for _, cs := range cases {
		scope := b.child()
		if err := s.analyzeBody(scope, cs.body); err != nil {
			return nil, err
		}
		tc := tir.SwitchCase{Body: scope.instrs}
		if cs.last != nil {
			tc.Ranges = [][2]*tir.Inst{{cs.first, cs.last}}
		} else {
			tc.Values = []*tir.Inst{cs.first}
		}
		out = append(out, tc)
	}
	var elseBody tir.Body
	if data.HasElse {
		scope := b.child()
		if err := s.analyzeBody(scope, data.Else); err != nil {
			return nil, err
		}
		elseBody = scope.instrs
	}
	return s.add(b, tir.Inst{
		Kind:     tir.KindSwitchBr,
		Type:     s.opts.Types.Builtins().NoReturn,
		Span:     inst.Span,
		Operand:  scrut,
		Cases:    out,
		ElseBody: elseBody,
	}), nil
}

func (s *Sema) typeSwitchCases(b *block, scrutType types.TypeID, data uir.SwitchData, span source.Span) ([]switchCase, error) {
	cases := make([]switchCase, 0, len(data.Cases))
	for _, cs := range data.Cases {
		first, err := s.switchCaseValue(b, scrutType, cs.First, span)
		if err != nil {
			return nil, err
		}
		out := switchCase{first: first, body: cs.Body}
		if cs.IsRange {
			if out.last, err = s.switchCaseValue(b, scrutType, cs.Last, span); err != nil {
				return nil, err
			}
		}
		cases = append(cases, out)
	}
	return cases, nil
}

func (s *Sema) switchCaseValue(b *block, scrutType types.TypeID, ref uir.Ref, span source.Span) (*tir.Inst, error) {
	v, err := s.coerce(b, scrutType, s.resolveRef(ref), span)
	if err != nil {
		return nil, err
	}
	if !isComptime(v) {
		return nil, s.fail(diag.EvalRuntimeValue, span,
			"switch case value is not compile-time known")
	}
	return v, nil
}

// validateSwitch checks case values for duplicates and the case list for
// coverage of the scrutinee type, before any case body is analyzed.
func (s *Sema) validateSwitch(scrutType types.TypeID, cases []switchCase, hasElse bool, span source.Span) error {
	in := s.opts.Types
	switch in.Kind(scrutType) {
	case types.KindBool:
		return s.validateBoolSwitch(cases, hasElse, span)

	case types.KindInt:
		signed, bits, _ := in.IntInfo(scrutType)
		lo, hi := types.IntRange(signed, bits)
		return s.validateIntSwitch(cases, hasElse, lo, hi, span)

	case types.KindComptimeInt:
		// The representable range is unbounded, so an else is mandatory.
		return s.validateIntSwitch(cases, hasElse, nil, nil, span)

	case types.KindEnumLiteral, types.KindPointer, types.KindFn, types.KindVoid:
		return s.validateIdentitySwitch(scrutType, cases, hasElse, span)

	case types.KindFloat, types.KindErrorSet, types.KindErrorUnion:
		return s.fail(diag.SemaSwitchBadOperand, span,
			"cannot switch on a value of type %s", s.typeName(scrutType))

	case types.KindStruct, types.KindArray, types.KindOptional:
		return s.fail(diag.SemaNotImplemented, span,
			"switch on %s is not yet implemented", s.typeName(scrutType))

	default:
		return s.fail(diag.SemaSwitchBadOperand, span,
			"cannot switch on a value of type %s", s.typeName(scrutType))
	}
}

func (s *Sema) validateBoolSwitch(cases []switchCase, hasElse bool, span source.Span) error {
	var seen [2]bool
	for _, cs := range cases {
		if cs.last != nil {
			return s.fail(diag.SemaSwitchBadOperand, span, "cannot use a range over boolean values")
		}
		i := 0
		if cs.first.Val.Bool {
			i = 1
		}
		if seen[i] {
			return s.fail(diag.SemaDuplicateSwitchValue, span,
				"duplicate switch case value %t", cs.first.Val.Bool)
		}
		seen[i] = true
	}
	covered := seen[0] && seen[1]
	if covered && hasElse {
		return s.fail(diag.SemaSwitchUnreachableElse, span,
			"else case is unreachable: all possibilities are already handled")
	}
	if !covered && !hasElse {
		return s.fail(diag.SemaSwitchNotExhaustive, span,
			"switch must handle all possibilities")
	}
	return nil
}

// validateIntSwitch checks integer cases against [lo, hi]; a nil range
// means the scrutinee type is unbounded and an else case is mandatory.
func (s *Sema) validateIntSwitch(cases []switchCase, hasElse bool, lo, hi *big.Int, span source.Span) error {
	var rs rangeSet
	for _, cs := range cases {
		first := cs.first.Val.Int
		last := first
		if cs.last != nil {
			last = cs.last.Val.Int
			if first.Cmp(last) > 0 {
				return s.fail(diag.SemaSwitchBadOperand, span,
					"range start %s is greater than range end %s", first, last)
			}
		}
		if !rs.insert(first, last) {
			return s.fail(diag.SemaDuplicateSwitchValue, span,
				"duplicate switch case value %s", first)
		}
	}
	if lo == nil {
		if !hasElse {
			return s.fail(diag.SemaSwitchMissingElse, span,
				"switch over comptime_int requires an else case")
		}
		return nil
	}
	covered := rs.covers(lo, hi)
	if covered && hasElse {
		return s.fail(diag.SemaSwitchUnreachableElse, span,
			"else case is unreachable: all possibilities are already handled")
	}
	if !covered && !hasElse {
		return s.fail(diag.SemaSwitchNotExhaustive, span,
			"switch must handle all possibilities")
	}
	return nil
}

// validateIdentitySwitch covers types without a natural enumeration:
// duplicates are rejected by direct value equality and an else case is
// mandatory.
func (s *Sema) validateIdentitySwitch(scrutType types.TypeID, cases []switchCase, hasElse bool, span source.Span) error {
	var seen []*tir.Value
	for _, cs := range cases {
		if cs.last != nil {
			return s.fail(diag.SemaSwitchBadOperand, span,
				"cannot use a range over values of type %s", s.typeName(cs.first.Type))
		}
		for _, prev := range seen {
			if eq, ok := valueEqual(prev, cs.first.Val); ok && eq {
				return s.fail(diag.SemaDuplicateSwitchValue, span,
					"duplicate switch case value %s", cs.first.Val.String(s.opts.Types))
			}
		}
		seen = append(seen, cs.first.Val)
	}
	if !hasElse {
		return s.fail(diag.SemaSwitchMissingElse, span,
			"switch over %s requires an else case", s.typeName(scrutType))
	}
	return nil
}

// caseMatches reports whether a compile-time scrutinee value selects the
// given case.
func (s *Sema) caseMatches(cs switchCase, v *tir.Value) bool {
	if cs.last != nil {
		return v.Kind == tir.ValInt &&
			cs.first.Val.Int.Cmp(v.Int) <= 0 && cs.last.Val.Int.Cmp(v.Int) >= 0
	}
	eq, ok := valueEqual(cs.first.Val, v)
	return ok && eq
}
