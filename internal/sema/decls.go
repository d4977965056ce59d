package sema

import (
	"errors"
	"strings"

	"lumen/internal/diag"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

func (s *Sema) analyzeDeclRef(b *block, inst uir.Inst) (*tir.Inst, error) {
	name := s.code.Strings.MustLookup(inst.Str)
	reg := s.opts.Registry
	id, ok := reg.Lookup(s.opts.FileScope, name)
	if !ok {
		return nil, s.fail(diag.SemaUndeclared, inst.Span, "use of undeclared identifier %q", name)
	}
	reg.DeclareDependency(s.opts.Decl, id)
	if err := reg.EnsureAnalyzed(id); err != nil {
		// The dependency already reported its own diagnostics.
		return nil, ErrFailedDependency
	}
	declType, val := reg.TypedValueOf(id)
	if val != nil {
		return s.newConst(inst.Span, *val), nil
	}
	return s.emitRuntime(b, tir.Inst{
		Kind:  tir.KindDeclRef,
		Type:  declType,
		Span:  inst.Span,
		Index: uint32(id),
	}, inst.Span)
}

func (s *Sema) analyzeImport(inst uir.Inst) (*tir.Inst, error) {
	path := s.code.Strings.MustLookup(inst.Str)
	if s.opts.Imports == nil {
		return nil, s.fail(diag.UnitImportNotFound, inst.Span, "imports are not available here")
	}
	scopeType, val, err := s.opts.Imports.ResolveImport(s.opts.FileScope, path)
	switch {
	case errors.Is(err, ErrImportNotFound):
		return nil, s.fail(diag.UnitImportNotFound, inst.Span, "import %q not found", path)
	case errors.Is(err, ErrImportOutsidePackage):
		return nil, s.fail(diag.UnitImportOutsidePackage, inst.Span,
			"import %q escapes the package root", path)
	case err != nil:
		// The imported file failed its own analysis; its diagnostics are
		// already recorded.
		return nil, ErrFailedDependency
	}
	if val != nil {
		return s.newConst(inst.Span, *val), nil
	}
	return s.newConst(inst.Span, tir.Value{Kind: tir.ValVoid, Type: scopeType}), nil
}

func (s *Sema) analyzeErrorValue(inst uir.Inst) *tir.Inst {
	in := s.opts.Types
	name := s.code.Strings.MustLookup(inst.Str)
	id := in.Errors().Intern(name)
	return s.newConst(inst.Span, tir.Value{
		Kind: tir.ValError,
		Type: in.ErrorSet([]types.ErrorID{id}),
		Err:  id,
	})
}

func (s *Sema) analyzeEnumLiteral(inst uir.Inst) *tir.Inst {
	return s.newConst(inst.Span, tir.Value{
		Kind: tir.ValEnum,
		Type: s.opts.Types.Builtins().EnumLiteral,
		Name: s.code.Strings.MustLookup(inst.Str),
	})
}

func (s *Sema) analyzeFieldVal(b *block, inst uir.Inst) (*tir.Inst, error) {
	operand := s.resolveRef(inst.A)
	name := s.code.Strings.MustLookup(inst.Str)
	in := s.opts.Types
	if in.Kind(operand.Type) != types.KindStruct {
		return nil, s.fail(diag.SemaInvalidMemberAccess, inst.Span,
			"type %s has no member %q", s.typeName(operand.Type), name)
	}
	info := in.StructInfo(operand.Type)
	for i, f := range info.Fields {
		if f.Name != name {
			continue
		}
		return s.emitRuntime(b, tir.Inst{
			Kind:    tir.KindFieldVal,
			Type:    f.Type,
			Span:    inst.Span,
			Operand: operand,
			Index:   uint32(i),
		}, inst.Span)
	}
	return nil, s.fail(diag.SemaInvalidMemberAccess, inst.Span,
		"type %s has no member %q", s.typeName(operand.Type), name)
}

func (s *Sema) analyzeCompileLog(inst uir.Inst) *tir.Inst {
	args := s.code.LogArgs(inst)
	if s.opts.LogSink != nil {
		parts := make([]string, 0, len(args))
		for _, ref := range args {
			v := s.resolveRef(ref)
			parts = append(parts, v.Val.String(s.opts.Types))
		}
		s.opts.LogSink(strings.Join(parts, ", "))
	}
	return s.builtinConst(uir.RefVoidValue)
}

func (s *Sema) analyzeCompileError(inst uir.Inst) error {
	msg := s.code.Strings.MustLookup(inst.Str)
	return s.fail(diag.EvalUserCompileError, inst.Span, "%s", msg)
}
