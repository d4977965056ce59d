package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lumen/internal/diag"
	"lumen/internal/project"
	"lumen/internal/source"
)

// ListBundles returns the sorted list of all *.lub files under dir.
func ListBundles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, BundleExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Deterministic order keeps output and result indexes stable.
	sort.Strings(files)
	return files, nil
}

// AnalyzeDirOptions configures a directory-wide analysis run.
type AnalyzeDirOptions struct {
	Profile project.BuildProfile
	// Jobs caps parallelism; zero or negative means GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, lets clean unchanged units be skipped.
	Cache *DiskCache
	// Events, when non-nil, receives progress notifications. The channel
	// is not closed by AnalyzeDir.
	Events chan<- Event
}

// AnalyzeDir analyzes every bundle under dir in parallel. The result
// slice is ordered like ListBundles; per-unit diagnostics stay in each
// result's bag rather than aborting the run.
func AnalyzeDir(ctx context.Context, dir string, opts AnalyzeDirOptions) (*source.FileSet, []UnitResult, error) {
	files, err := ListBundles(dir)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	loader := NewLoader(dir)

	// Pre-pass: decode bundles and register source files sequentially.
	// The FileSet is not safe for concurrent writes, so every file the
	// run can touch is added before the parallel phase starts; stragglers
	// pulled in by imports go through the loader's lock.
	for _, path := range files {
		b, err := loader.Load(path)
		if err != nil {
			// Surfaced as a diagnostic during unit analysis.
			continue
		}
		loader.FileFor(fileSet, b.Source)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]UnitResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			started := time.Now()
			emit(opts.Events, Event{Unit: path, Stage: StageAnalyze, Status: StatusStart})

			key, keyErr := unitCacheKey(path, opts.Profile)
			if keyErr == nil && opts.Cache != nil {
				var payload DiskPayload
				if ok, err := opts.Cache.Get(key, &payload); err == nil && ok && payload.Clean {
					results[i] = cachedResult(path, opts.Profile, &payload)
					emit(opts.Events, Event{
						Unit:    path,
						Stage:   StageAnalyze,
						Status:  StatusCached,
						Decls:   results[i].Decls,
						Elapsed: time.Since(started),
					})
					return nil
				}
			}

			res, reg, err := AnalyzeUnit(fileSet, loader, path, opts.Profile)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res

			if opts.Cache != nil && keyErr == nil && res.Bag.Len() == 0 {
				_ = opts.Cache.Put(key, payloadForUnit(&res, reg))
			}

			status := StatusDone
			if res.Bag.HasErrors() {
				status = StatusFailed
			}
			emit(opts.Events, Event{
				Unit:    path,
				Stage:   StageAnalyze,
				Status:  status,
				Decls:   res.Decls,
				Errors:  res.Bag.Len(),
				Elapsed: time.Since(started),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

// unitCacheKey combines the bundle's raw content with the parts of the
// build profile that change analysis semantics. MaxDiagnostics only
// affects reporting, so it is deliberately left out.
func unitCacheKey(path string, profile project.BuildProfile) (project.Digest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return project.Digest{}, err
	}
	fp := fmt.Sprintf("safety=%s;branch_quota=%d", profile.Safety, profile.BranchQuota)
	return project.Combine(project.HashBytes(content), project.HashBytes([]byte(fp))), nil
}

func cachedResult(path string, profile project.BuildProfile, payload *DiskPayload) UnitResult {
	return UnitResult{
		Path:      path,
		Package:   payload.Package,
		Decls:     len(payload.DeclNames),
		Logs:      payload.Logs,
		Bag:       diag.NewBag(profile.MaxDiagnostics),
		FromCache: true,
	}
}

func payloadForUnit(res *UnitResult, reg *Registry) *DiskPayload {
	payload := &DiskPayload{
		Schema:  diskCacheSchemaVersion,
		Package: res.Package,
		Source:  res.Path,
		Logs:    res.Logs,
		Clean:   res.Bag.Len() == 0,
	}
	if reg != nil {
		names := reg.DeclNames(res.FileID)
		payload.DeclNames = names
		payload.DeclTypes = make([]string, len(names))
		for i, name := range names {
			if id, ok := reg.Lookup(res.FileID, name); ok {
				typ, _ := reg.TypedValueOf(id)
				payload.DeclTypes[i] = reg.Types().String(typ)
			}
		}
	}
	return payload
}
