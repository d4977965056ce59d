package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lumen/internal/diag"
	"lumen/internal/sema"
	"lumen/internal/source"
	"lumen/internal/tir"
	"lumen/internal/types"
)

// Loader reads and caches decoded bundles for one package root. It is
// shared by every unit of a run and is safe for concurrent use.
type Loader struct {
	root string

	mu      sync.Mutex
	bundles map[string]*Bundle
	files   map[string]source.FileID
}

// NewLoader creates a loader rooted at the package directory.
func NewLoader(root string) *Loader {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Loader{
		root:    abs,
		bundles: make(map[string]*Bundle),
		files:   make(map[string]source.FileID),
	}
}

// Root returns the absolute package root.
func (l *Loader) Root() string {
	return l.root
}

// Load returns the decoded bundle at path, reading it on first use.
func (l *Loader) Load(path string) (*Bundle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.bundles[abs]; ok {
		return b, nil
	}
	b, err := ReadBundle(abs)
	if err != nil {
		return nil, err
	}
	l.bundles[abs] = b
	return b, nil
}

// FileFor registers the bundle's source file in the set, loading it from
// disk when present and falling back to a virtual entry otherwise. The
// FileSet itself is not safe for concurrent writes, so all additions are
// funneled through the loader's lock.
func (l *Loader) FileFor(fs *source.FileSet, sourcePath string) source.FileID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.files[sourcePath]; ok {
		return id
	}
	id, err := fs.Load(filepath.Join(l.root, sourcePath))
	if err != nil {
		id = fs.AddVirtual(sourcePath, nil)
	}
	l.files[sourcePath] = id
	return id
}

// importResolver resolves import instructions for one unit. Imported
// declarations are analyzed into the importing unit's registry; the
// resulting file scope is exposed as a struct type whose fields are the
// imported declarations.
type importResolver struct {
	loader *Loader
	fs     *source.FileSet
	reg    *Registry

	scopes    map[string]types.TypeID
	resolving map[string]bool
}

func newImportResolver(loader *Loader, fs *source.FileSet, reg *Registry) *importResolver {
	return &importResolver{
		loader:    loader,
		fs:        fs,
		reg:       reg,
		scopes:    make(map[string]types.TypeID),
		resolving: make(map[string]bool),
	}
}

// ResolveImport implements sema.ImportResolver.
func (ir *importResolver) ResolveImport(from source.FileID, path string) (types.TypeID, *tir.Value, error) {
	name := source.NormalizeText(strings.TrimSpace(path))
	if name == "" {
		return types.NoTypeID, nil, sema.ErrImportNotFound
	}

	fromPath := ir.fs.Get(from).Path
	if !filepath.IsAbs(fromPath) {
		fromPath = filepath.Join(ir.loader.Root(), fromPath)
	}
	fromDir := filepath.Dir(fromPath)
	target := filepath.Join(fromDir, filepath.FromSlash(name))
	if !strings.HasSuffix(target, BundleExt) {
		target += BundleExt
	}

	rel, err := filepath.Rel(ir.loader.Root(), target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return types.NoTypeID, nil, sema.ErrImportOutsidePackage
	}

	if scope, ok := ir.scopes[target]; ok {
		return scope, nil, nil
	}
	if ir.resolving[target] {
		ir.reg.reporter.Report(diag.UnitBadStream, diag.SevError, source.Span{File: from},
			fmt.Sprintf("import cycle through %q", name), nil)
		return types.NoTypeID, nil, sema.ErrAnalysisFailed
	}
	ir.resolving[target] = true
	defer delete(ir.resolving, target)

	bundle, err := ir.loader.Load(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.NoTypeID, nil, fmt.Errorf("%q: %w", name, sema.ErrImportNotFound)
		}
		return types.NoTypeID, nil, err
	}

	fileID := ir.loader.FileFor(ir.fs, bundle.Source)
	specs, err := bundle.Decode(fileID)
	if err != nil {
		ir.reg.reporter.Report(diag.UnitBadStream, diag.SevError, source.Span{File: from}, err.Error(), nil)
		return types.NoTypeID, nil, sema.ErrAnalysisFailed
	}

	ids := make([]sema.DeclID, 0, len(specs))
	for _, spec := range specs {
		id, ok := ir.reg.Lookup(fileID, spec.Name)
		if !ok {
			id, err = ir.reg.Register(fileID, spec)
			if err != nil {
				ir.reg.reporter.Report(diag.UnitBadStream, diag.SevError, source.Span{File: fileID}, err.Error(), nil)
				return types.NoTypeID, nil, sema.ErrAnalysisFailed
			}
		}
		ids = append(ids, id)
	}

	fields := make([]types.StructField, 0, len(ids))
	for _, id := range ids {
		if err := ir.reg.EnsureAnalyzed(id); err != nil {
			return types.NoTypeID, nil, err
		}
		typ, _ := ir.reg.TypedValueOf(id)
		fields = append(fields, types.StructField{
			Name: ir.reg.get(id).spec.Name,
			Type: typ,
		})
	}

	scope := ir.reg.types.NewStruct(types.StructInfo{Name: name, Fields: fields})
	ir.scopes[target] = scope
	return scope, nil, nil
}
