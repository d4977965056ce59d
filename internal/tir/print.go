package tir

import (
	"fmt"
	"io"
	"strings"

	"lumen/internal/types"
)

// DumpBody writes a human-readable representation of a typed body. Used by
// the dump command and golden tests.
func DumpBody(w io.Writer, body Body, typesIn *types.Interner) error {
	p := printer{w: w, types: typesIn, ids: make(map[*Inst]int)}
	p.body(body, 0)
	return p.err
}

type printer struct {
	w     io.Writer
	types *types.Interner
	ids   map[*Inst]int
	next  int
	err   error
}

func (p *printer) id(inst *Inst) int {
	if n, ok := p.ids[inst]; ok {
		return n
	}
	n := p.next
	p.next++
	p.ids[inst] = n
	return n
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) body(body Body, depth int) {
	for _, inst := range body {
		p.inst(inst, depth)
	}
}

func (p *printer) inst(inst *Inst, depth int) {
	ind := strings.Repeat("  ", depth)
	p.printf("%s%%%d: %s = %s", ind, p.id(inst), p.types.String(inst.Type), inst.Kind)
	switch inst.Kind {
	case KindConst:
		p.printf(" %s", inst.Val.String(p.types))
	case KindParam, KindFieldVal, KindDeclRef:
		p.printf(" %d", inst.Index)
	case KindBin:
		p.printf(" %s %%%d, %%%d", inst.BinOp, p.id(inst.LHS), p.id(inst.RHS))
	case KindUn, KindIntWiden, KindFloatCast, KindBitcast, KindWrapOptional,
		KindWrapErrPayload, KindWrapErrCode, KindPtrCast, KindIsNull, KindIsErr,
		KindOptionalPayload, KindErrPayload, KindRet:
		if inst.Operand != nil {
			p.printf(" %%%d", p.id(inst.Operand))
		}
	case KindBr:
		p.printf(" -> %%%d", p.id(inst.Target))
		if inst.Operand != nil {
			p.printf(" with %%%d", p.id(inst.Operand))
		}
	case KindCall:
		p.printf(" %%%d", p.id(inst.Callee))
		for _, a := range inst.Args {
			p.printf(", %%%d", p.id(a))
		}
	}
	if inst.Val != nil && inst.Kind != KindConst {
		p.printf(" [= %s]", inst.Val.String(p.types))
	}
	p.printf("\n")

	switch inst.Kind {
	case KindBlock, KindLoop:
		p.body(inst.Body, depth+1)
	case KindCondBr:
		p.printf("%s  then:\n", ind)
		p.body(inst.Body, depth+2)
		p.printf("%s  else:\n", ind)
		p.body(inst.ElseBody, depth+2)
	case KindSwitchBr:
		for i, cs := range inst.Cases {
			p.printf("%s  case %d:\n", ind, i)
			p.body(cs.Body, depth+2)
		}
		p.printf("%s  else:\n", ind)
		p.body(inst.ElseBody, depth+2)
	}
}
