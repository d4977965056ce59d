package driver

import (
	"lumen/internal/diag"
	"lumen/internal/project"
	"lumen/internal/sema"
	"lumen/internal/source"
	"lumen/internal/types"
)

// UnitResult is the outcome of analyzing one bundle.
type UnitResult struct {
	Path      string
	Package   string
	FileID    source.FileID
	Decls     int
	Broken    int
	Logs      []string
	Bag       *diag.Bag
	FromCache bool
}

// AnalyzeUnit decodes the bundle at path and analyzes every declaration
// in it. Diagnostics land in the result's bag; a non-nil error means the
// unit could not be processed at all (for example an unreadable file).
func AnalyzeUnit(fs *source.FileSet, loader *Loader, path string, profile project.BuildProfile) (UnitResult, *Registry, error) {
	bag := diag.NewBag(profile.MaxDiagnostics)
	res := UnitResult{Path: path, Bag: bag}

	bundle, err := loader.Load(path)
	if err != nil {
		return res, nil, err
	}
	res.Package = bundle.Package
	res.FileID = loader.FileFor(fs, bundle.Source)

	specs, err := bundle.Decode(res.FileID)
	if err != nil {
		bag.Add(diag.New(diag.SevError, diag.UnitBadStream, source.Span{File: res.FileID}, err.Error()))
		return res, nil, nil
	}

	reg := NewRegistry(types.NewInterner(nil), diag.BagReporter{Bag: bag}, profile)
	reg.SetImportResolver(newImportResolver(loader, fs, reg))

	ids := make([]sema.DeclID, 0, len(specs))
	for _, spec := range specs {
		id, err := reg.Register(res.FileID, spec)
		if err != nil {
			bag.Add(diag.New(diag.SevError, diag.UnitBadStream, source.Span{File: res.FileID}, err.Error()))
			continue
		}
		ids = append(ids, id)
	}
	res.Decls = len(ids)

	for _, id := range ids {
		if err := reg.EnsureAnalyzed(id); err != nil {
			continue
		}
		_ = reg.CheckBody(id)
	}
	for _, id := range ids {
		if reg.Broken(id) {
			res.Broken++
		}
	}

	res.Logs = reg.Logs()
	bag.Dedup()
	bag.Sort()
	return res, reg, nil
}
