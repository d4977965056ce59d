package driver

import (
	"fmt"
	"sort"

	"lumen/internal/diag"
	"lumen/internal/project"
	"lumen/internal/sema"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

type declState uint8

const (
	declPending declState = iota
	declAnalyzing
	declDone
	declBroken
)

type decl struct {
	id    sema.DeclID
	file  source.FileID
	spec  DeclSpec
	state declState

	typ types.TypeID
	val *tir.Value
	sig []sema.Param
	ret types.TypeID

	// Function bodies are type-checked separately from the declaration's
	// value: the value of a function is the function itself and must be
	// available to recursive references inside its own body.
	body        tir.Body
	bodyChecked bool
}

// Registry owns the declarations of one analysis unit and implements
// sema.Registry for it. It is not safe for concurrent use; parallel runs
// give every unit its own Registry.
type Registry struct {
	types    *types.Interner
	reporter diag.Reporter
	profile  project.BuildProfile
	imports  sema.ImportResolver

	decls  []*decl
	scopes map[source.FileID]map[string]sema.DeclID
	// deps maps a declaration to the declarations that depend on it, for
	// failure propagation without re-analysis.
	deps map[sema.DeclID][]sema.DeclID
	logs []string
}

// NewRegistry creates an empty registry over a shared type interner.
func NewRegistry(in *types.Interner, reporter diag.Reporter, profile project.BuildProfile) *Registry {
	return &Registry{
		types:    in,
		reporter: reporter,
		profile:  profile,
		scopes:   make(map[source.FileID]map[string]sema.DeclID),
		deps:     make(map[sema.DeclID][]sema.DeclID),
	}
}

// SetImportResolver wires the resolver used for import instructions.
func (r *Registry) SetImportResolver(res sema.ImportResolver) {
	r.imports = res
}

// Types returns the unit's type interner.
func (r *Registry) Types() *types.Interner {
	return r.types
}

// Logs returns the compile-log lines collected so far, in emission order.
func (r *Registry) Logs() []string {
	return r.logs
}

// Register adds a declaration to the given file scope.
func (r *Registry) Register(file source.FileID, spec DeclSpec) (sema.DeclID, error) {
	scope := r.scopes[file]
	if scope == nil {
		scope = make(map[string]sema.DeclID)
		r.scopes[file] = scope
	}
	if _, exists := scope[spec.Name]; exists {
		return sema.NoDeclID, fmt.Errorf("duplicate declaration %q", spec.Name)
	}

	d := &decl{
		id:   sema.DeclID(len(r.decls) + 1),
		file: file,
		spec: spec,
	}
	r.decls = append(r.decls, d)
	scope[spec.Name] = d.id
	return d.id, nil
}

// DeclNames returns the declarations of a file scope in sorted order.
func (r *Registry) DeclNames(file source.FileID) []string {
	names := make([]string, 0, len(r.scopes[file]))
	for name := range r.scopes[file] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) get(id sema.DeclID) *decl {
	if id == sema.NoDeclID || int(id) > len(r.decls) {
		panic(fmt.Sprintf("unknown declaration %d", id))
	}
	return r.decls[id-1]
}

// Lookup resolves a name within a file scope.
func (r *Registry) Lookup(scope source.FileID, name string) (sema.DeclID, bool) {
	id, ok := r.scopes[scope][name]
	return id, ok
}

// DeclareDependency records that from depends on to.
func (r *Registry) DeclareDependency(from, to sema.DeclID) {
	for _, d := range r.deps[to] {
		if d == from {
			return
		}
	}
	r.deps[to] = append(r.deps[to], from)
}

// Dependents returns the recorded dependents of a declaration.
func (r *Registry) Dependents(id sema.DeclID) []sema.DeclID {
	return r.deps[id]
}

// Broken reports whether the declaration's analysis failed.
func (r *Registry) Broken(id sema.DeclID) bool {
	return r.get(id).state == declBroken
}

// EnsureAnalyzed resolves the declaration's type and value. For functions
// this covers the signature only; CheckBody verifies the body.
func (r *Registry) EnsureAnalyzed(id sema.DeclID) error {
	d := r.get(id)
	switch d.state {
	case declDone:
		return nil
	case declBroken:
		return sema.ErrAnalysisFailed
	case declAnalyzing:
		r.reporter.Report(diag.UnitDependencyFailed, diag.SevError, r.declSpan(d),
			fmt.Sprintf("declaration cycle detected while resolving %q", d.spec.Name), nil)
		d.state = declBroken
		return sema.ErrAnalysisFailed
	}

	d.state = declAnalyzing
	if err := r.analyze(d); err != nil {
		d.state = declBroken
		return err
	}
	d.state = declDone
	return nil
}

func (r *Registry) analyze(d *decl) error {
	if d.spec.Fn {
		params := make([]types.TypeID, len(d.spec.ParamTypes))
		d.sig = make([]sema.Param, len(d.spec.ParamTypes))
		for i, te := range d.spec.ParamTypes {
			t := sema.ResolveTypeExpr(d.spec.Code, r.types, te)
			params[i] = t
			d.sig[i] = sema.Param{Name: d.spec.ParamNames[i], Type: t}
		}
		d.ret = sema.ResolveTypeExpr(d.spec.Code, r.types, d.spec.Ret)
		d.typ = r.types.Fn(types.FnInfo{
			Params:   params,
			Ret:      d.ret,
			CallConv: types.CallConv(d.spec.CallConv),
		})
		d.val = &tir.Value{Kind: tir.ValFn, Type: d.typ, Fn: uint32(d.id)}
		return nil
	}

	// Non-function declarations are initializers evaluated at compile
	// time; their type is inferred from the result unless annotated.
	opts := r.analysisOptions(d)
	opts.Comptime = true
	if d.spec.Ret != uir.NoTypeExpr {
		opts.RetType = sema.ResolveTypeExpr(d.spec.Code, r.types, d.spec.Ret)
	}

	res, err := sema.Analyze(d.spec.Code, tir.NewArena(), opts)
	if err != nil {
		return err
	}
	d.typ = res.Type
	d.val = res.Value
	d.body = res.Body
	return nil
}

// CheckBody type-checks a function body. Errors mark the declaration
// broken; the function value stays usable so that unrelated callers keep
// their signature information.
func (r *Registry) CheckBody(id sema.DeclID) error {
	d := r.get(id)
	if !d.spec.Fn || d.bodyChecked || d.state == declBroken {
		return nil
	}
	if d.state != declDone {
		if err := r.EnsureAnalyzed(id); err != nil {
			return err
		}
	}
	d.bodyChecked = true

	opts := r.analysisOptions(d)
	opts.Params = d.sig
	opts.RetType = d.ret

	res, err := sema.Analyze(d.spec.Code, tir.NewArena(), opts)
	if err != nil {
		d.state = declBroken
		return err
	}
	d.body = res.Body
	return nil
}

func (r *Registry) analysisOptions(d *decl) sema.Options {
	return sema.Options{
		Reporter:    r.reporter,
		Types:       r.types,
		Registry:    r,
		Imports:     r.imports,
		Decl:        d.id,
		FileScope:   d.file,
		BranchQuota: r.profile.BranchQuota,
		Safety:      r.profile.Safety == project.SafetyOn,
		LogSink: func(line string) {
			r.logs = append(r.logs, fmt.Sprintf("%s: %s", d.spec.Name, line))
		},
	}
}

// TypedValueOf returns the analyzed type and compile-time value.
func (r *Registry) TypedValueOf(id sema.DeclID) (types.TypeID, *tir.Value) {
	d := r.get(id)
	return d.typ, d.val
}

// Body returns the untyped stream of a function declaration.
func (r *Registry) Body(id sema.DeclID) *uir.Code {
	d := r.get(id)
	if !d.spec.Fn {
		return nil
	}
	return d.spec.Code
}

// Signature returns the resolved parameters and return type.
func (r *Registry) Signature(id sema.DeclID) ([]sema.Param, types.TypeID, bool) {
	d := r.get(id)
	if !d.spec.Fn {
		return nil, types.NoTypeID, false
	}
	return d.sig, d.ret, true
}

// AnalyzedBody returns the typed body produced for the declaration, nil
// when analysis has not run or failed.
func (r *Registry) AnalyzedBody(id sema.DeclID) tir.Body {
	return r.get(id).body
}

func (r *Registry) declSpan(d *decl) source.Span {
	code := d.spec.Code
	if len(code.Root) > 0 {
		return code.Get(code.Root[0]).Span
	}
	return source.Span{File: d.file}
}
