// Package sema is the semantic-analysis stage: it consumes one
// declaration's untyped instruction stream and produces a fully typed body.
// Per instruction it resolves types, folds compile-time-known computations,
// validates operations, and inserts runtime safety checks.
package sema

import (
	"errors"
	"fmt"

	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// ErrAnalysisFailed is returned after a user compile error has been
// reported. It aborts analysis of the current declaration only.
var ErrAnalysisFailed = errors.New("analysis failed")

// ErrFailedDependency is returned when a referenced declaration failed its
// own analysis. The dependent is marked failed without duplicating the
// dependency's diagnostics.
var ErrFailedDependency = errors.New("dependency failed analysis")

// DefaultBranchQuota bounds backward branches (loop iterations, recursive
// inline calls) taken during compile-time evaluation.
const DefaultBranchQuota = 1000

// Param describes one parameter of the declaration being analyzed.
type Param struct {
	Name string
	Type types.TypeID
}

// Options configure one analysis activation.
type Options struct {
	Reporter diag.Reporter
	Types    *types.Interner
	Registry Registry
	Imports  ImportResolver

	// Decl is the declaration unit being analyzed; its arena owns every
	// instruction and value the analysis creates.
	Decl      DeclID
	FileScope source.FileID

	Params  []Param
	RetType types.TypeID

	// BranchQuota overrides DefaultBranchQuota when non-zero.
	BranchQuota uint32
	// Safety enables runtime safety-check insertion.
	Safety bool
	// Comptime forces compile-time mode for the root block.
	Comptime bool

	// LogSink receives compile-log lines. Optional.
	LogSink func(string)
}

// Result is the typed output of one analysis activation.
type Result struct {
	Body tir.Body
	// Value is the comptime-known result of the root body, nil when the
	// declaration's value is runtime-only.
	Value *tir.Value
	// Type is the type of the root body's result.
	Type types.TypeID
}

// branchQuota is shared by every activation in a chain of nested
// inline/comptime calls; it is owned by the outermost activation.
type branchQuota struct {
	used uint32
	max  uint32
}

func (q *branchQuota) step() bool {
	q.used++
	return q.used <= q.max
}

// Sema is one analysis activation over one untyped stream. Inline and
// compile-time calls create nested activations that share the arena, the
// quota and all collaborators, but keep their own instruction map.
type Sema struct {
	code  *uir.Code
	arena *tir.Arena
	opts  *Options

	instMap  map[uir.InstIdx]*tir.Inst
	params   []*tir.Inst
	builtins [refBuiltinTableSize]*tir.Inst
	quota    *branchQuota

	// set while this activation analyzes an inlined callee body
	inlining *inlineCtx
}

// Analyze runs semantic analysis over code's root body, allocating results
// from arena.
func Analyze(code *uir.Code, arena *tir.Arena, opts Options) (Result, error) {
	if opts.Types == nil {
		opts.Types = types.NewInterner(nil)
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	max := opts.BranchQuota
	if max == 0 {
		max = DefaultBranchQuota
	}
	s := &Sema{
		code:    code,
		arena:   arena,
		opts:    &opts,
		instMap: make(map[uir.InstIdx]*tir.Inst),
		quota:   &branchQuota{max: max},
	}
	s.makeParams()

	root := &block{comptime: opts.Comptime}
	if err := s.analyzeBody(root, code.Root); err != nil {
		return Result{}, err
	}

	res := Result{Body: tir.Body(root.instrs)}
	if last := res.Body.Last(); last != nil {
		res.Type = last.Type
		res.setFromTerminal(last)
	}
	return res, nil
}

// setFromTerminal records the comptime value of the terminal instruction.
// Returns land here as KindRet whose operand may be comptime-known.
func (r *Result) setFromTerminal(last *tir.Inst) {
	if last.Kind == tir.KindRet && last.Operand != nil {
		r.Type = last.Operand.Type
		r.Value = last.Operand.Val
		return
	}
	r.Value = last.Val
}

// fail reports a user compile error and returns ErrAnalysisFailed.
func (s *Sema) fail(code diag.Code, span source.Span, format string, args ...any) error {
	s.opts.Reporter.Report(code, diag.SevError, span, fmt.Sprintf(format, args...), nil)
	return ErrAnalysisFailed
}

// failNote is fail with one attached note.
func (s *Sema) failNote(code diag.Code, span source.Span, msg string, noteSpan source.Span, note string) error {
	s.opts.Reporter.Report(code, diag.SevError, span, msg,
		[]diag.Note{{Span: noteSpan, Msg: note}})
	return ErrAnalysisFailed
}

func (s *Sema) typeName(id types.TypeID) string {
	return s.opts.Types.String(id)
}
