package sema

import (
	"errors"

	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
	"lumen/internal/uir"
)

// DeclID identifies a declaration unit within the registry.
type DeclID uint32

// NoDeclID marks the absence of a declaration.
const NoDeclID DeclID = 0

// Registry is the declaration-registry capability the analysis consumes.
// Implementations live in the driver.
type Registry interface {
	// Lookup resolves a declaration by name within the current file scope.
	Lookup(scope source.FileID, name string) (DeclID, bool)
	// EnsureAnalyzed analyzes the declaration if it has not been analyzed
	// yet. Returns an error when the declaration's own analysis failed.
	EnsureAnalyzed(id DeclID) error
	// DeclareDependency records a dependency edge for failure propagation.
	DeclareDependency(from, to DeclID)
	// TypedValueOf returns the analyzed type and, when compile-time-known,
	// the value of a declaration.
	TypedValueOf(id DeclID) (types.TypeID, *tir.Value)
	// Body returns the untyped stream of a callable declaration, nil for
	// non-functions.
	Body(id DeclID) *uir.Code
	// Signature returns the parameters and return type of a callable
	// declaration.
	Signature(id DeclID) (params []Param, ret types.TypeID, ok bool)
}

// Import-resolution failures. The resolver returns these wrapped or bare;
// sema maps them onto diagnostics.
var (
	ErrImportNotFound       = errors.New("import target not found")
	ErrImportOutsidePackage = errors.New("import path escapes the package root")
)

// ImportResolver loads and analyzes an imported file, yielding its file
// scope as a typed value.
type ImportResolver interface {
	ResolveImport(from source.FileID, path string) (types.TypeID, *tir.Value, error)
}
