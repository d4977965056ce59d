// Package driver owns everything around the analysis core: decoding
// instruction-stream bundles produced by the front end, the declaration
// registry, import resolution, parallel unit analysis and the disk cache.
package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"lumen/internal/source"
	"lumen/internal/uir"
)

// BundleExt is the extension of serialized instruction-stream bundles.
const BundleExt = ".lub"

// bundleSchemaVersion changes whenever the bundle layout changes.
const bundleSchemaVersion uint16 = 1

// ErrBadBundle wraps every structural defect found while decoding.
var ErrBadBundle = errors.New("malformed bundle")

// Bundle is the serialized form of one source file's untyped streams, as
// written by the lowering stage. One bundle holds every declaration of the
// file plus the shared string table.
type Bundle struct {
	Schema  uint16
	Package string
	// Source is the path of the source file the streams came from, used
	// to resolve diagnostic spans.
	Source  string
	Strings []string
	Decls   []BundleDecl
}

// BundleDecl is one declaration inside a bundle.
type BundleDecl struct {
	Name       string
	Fn         bool
	CallConv   uint8
	ParamNames []string
	ParamTypes []int32
	Ret        int32

	Insts  []BundleInst
	Extra  []uint32
	Ints   []int64
	Floats []float64
	Types  []uir.TypeExpr
	Root   []uint32
}

// BundleInst is the wire form of one untyped instruction. Spans carry only
// byte offsets; the file is attached at decode time.
type BundleInst struct {
	Op      uint16
	Start   uint32
	End     uint32
	A       uint32
	B       uint32
	Payload uint32
	Str     uint32
}

// DeclSpec is a decoded declaration ready for registration.
type DeclSpec struct {
	Name       string
	Fn         bool
	CallConv   uint8
	ParamNames []string
	ParamTypes []uir.TypeExprIdx
	Ret        uir.TypeExprIdx
	Code       *uir.Code
}

// Decode validates the bundle and rebuilds per-declaration streams. Spans
// are bound to file. String-table text is brought into NFC so that
// equal-looking identifiers compare equal across bundles.
func (b *Bundle) Decode(file source.FileID) ([]DeclSpec, error) {
	if b.Schema != bundleSchemaVersion {
		return nil, fmt.Errorf("%w: schema %d, expected %d", ErrBadBundle, b.Schema, bundleSchemaVersion)
	}
	if len(b.Strings) == 0 || b.Strings[0] != "" {
		return nil, fmt.Errorf("%w: string table must start with the empty string", ErrBadBundle)
	}

	strings := source.NewInterner()
	for i, s := range b.Strings[1:] {
		id := strings.Intern(source.NormalizeText(s))
		if id != source.StringID(i+1) {
			return nil, fmt.Errorf("%w: string table entry %d is a duplicate", ErrBadBundle, i+1)
		}
	}

	specs := make([]DeclSpec, 0, len(b.Decls))
	for _, d := range b.Decls {
		spec, err := decodeDecl(&d, file, strings)
		if err != nil {
			return nil, fmt.Errorf("declaration %q: %w", d.Name, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeDecl(d *BundleDecl, file source.FileID, strings *source.Interner) (DeclSpec, error) {
	code := &uir.Code{
		Insts:   make([]uir.Inst, len(d.Insts)),
		Extra:   d.Extra,
		Ints:    d.Ints,
		Floats:  d.Floats,
		Types:   d.Types,
		Strings: strings,
	}
	for i, raw := range d.Insts {
		op := uir.Op(raw.Op)
		if !op.Valid() {
			return DeclSpec{}, fmt.Errorf("%w: instruction %d has unknown opcode %d", ErrBadBundle, i, raw.Op)
		}
		if !strings.Has(source.StringID(raw.Str)) {
			return DeclSpec{}, fmt.Errorf("%w: instruction %d references string %d outside the table", ErrBadBundle, i, raw.Str)
		}
		code.Insts[i] = uir.Inst{
			Op:      op,
			Span:    source.Span{File: file, Start: raw.Start, End: raw.End},
			A:       uir.Ref(raw.A),
			B:       uir.Ref(raw.B),
			Payload: raw.Payload,
			Str:     source.StringID(raw.Str),
		}
	}

	code.Root = make([]uir.InstIdx, len(d.Root))
	for i, idx := range d.Root {
		if int(idx) >= len(code.Insts) {
			return DeclSpec{}, fmt.Errorf("%w: root references instruction %d of %d", ErrBadBundle, idx, len(code.Insts))
		}
		code.Root[i] = uir.InstIdx(idx)
	}

	spec := DeclSpec{
		Name:     d.Name,
		Fn:       d.Fn,
		CallConv: d.CallConv,
		Ret:      uir.TypeExprIdx(d.Ret),
		Code:     code,
	}
	if d.Fn {
		if len(d.ParamNames) != len(d.ParamTypes) {
			return DeclSpec{}, fmt.Errorf("%w: %d parameter names for %d types", ErrBadBundle, len(d.ParamNames), len(d.ParamTypes))
		}
		spec.ParamNames = d.ParamNames
		spec.ParamTypes = make([]uir.TypeExprIdx, len(d.ParamTypes))
		for i, t := range d.ParamTypes {
			if t < 0 || int(t) >= len(d.Types) {
				return DeclSpec{}, fmt.Errorf("%w: parameter %d references type %d of %d", ErrBadBundle, i, t, len(d.Types))
			}
			spec.ParamTypes[i] = uir.TypeExprIdx(t)
		}
		if spec.Ret < 0 {
			return DeclSpec{}, fmt.Errorf("%w: function is missing a return annotation", ErrBadBundle)
		}
	}
	if int(spec.Ret) >= len(d.Types) {
		return DeclSpec{}, fmt.Errorf("%w: return annotation %d of %d", ErrBadBundle, spec.Ret, len(d.Types))
	}
	return spec, nil
}

// EncodeBundle builds the wire form from declaration specs that share one
// string table. Used by tests and by front ends linking the driver.
func EncodeBundle(pkg, sourcePath string, strings *source.Interner, specs []DeclSpec) *Bundle {
	b := &Bundle{
		Schema:  bundleSchemaVersion,
		Package: pkg,
		Source:  sourcePath,
		Strings: strings.Snapshot(),
	}
	for _, spec := range specs {
		d := BundleDecl{
			Name:     spec.Name,
			Fn:       spec.Fn,
			CallConv: spec.CallConv,
			Ret:      int32(spec.Ret),

			Extra:  spec.Code.Extra,
			Ints:   spec.Code.Ints,
			Floats: spec.Code.Floats,
			Types:  spec.Code.Types,
		}
		d.ParamNames = spec.ParamNames
		d.ParamTypes = make([]int32, len(spec.ParamTypes))
		for i, t := range spec.ParamTypes {
			d.ParamTypes[i] = int32(t)
		}
		d.Insts = make([]BundleInst, len(spec.Code.Insts))
		for i, inst := range spec.Code.Insts {
			d.Insts[i] = BundleInst{
				Op:      uint16(inst.Op),
				Start:   inst.Span.Start,
				End:     inst.Span.End,
				A:       uint32(inst.A),
				B:       uint32(inst.B),
				Payload: inst.Payload,
				Str:     uint32(inst.Str),
			}
		}
		d.Root = make([]uint32, len(spec.Code.Root))
		for i, idx := range spec.Code.Root {
			d.Root[i] = uint32(idx)
		}
		b.Decls = append(b.Decls, d)
	}
	return b
}

// WriteBundle serializes a bundle to path with an atomic rename.
func WriteBundle(path string, b *Bundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	if err := msgpack.NewEncoder(f).Encode(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadBundle deserializes a bundle from path.
func ReadBundle(path string) (*Bundle, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var b Bundle
	if err := msgpack.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadBundle, path, err)
	}
	return &b, nil
}
