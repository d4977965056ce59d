package types

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the types every analysis needs.
type Builtins struct {
	Invalid       TypeID
	Void          TypeID
	Bool          TypeID
	NoReturn      TypeID
	ComptimeInt   TypeID
	ComptimeFloat TypeID
	Undefined     TypeID
	Null          TypeID
	AnyError      TypeID
	EnumLiteral   TypeID
}

// anyErrorSet is the reserved side-table index of the "any error" top set.
const anyErrorSet uint32 = 0

// Interner provides stable TypeIDs by hashing structural descriptors.
// Nominal kinds (structs, functions, error sets) live in side tables; the
// descriptor stores the side-table index so descriptors stay comparable.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins

	ptrInfos  []PtrInfo
	ptrIndex  map[PtrInfo]uint32
	arrInfos  []ArrayInfo
	arrIndex  map[ArrayInfo]uint32
	fnInfos   []FnInfo
	fnIndex   map[string]uint32
	structs   []StructInfo
	errSets   [][]ErrorID // errSets[anyErrorSet] unused: AnyError matches everything
	errIndex  map[string]uint32
	errNames  *ErrorInterner
}

// NewInterner constructs an interner seeded with built-in types and sharing
// the given error-name interner (one per pipeline).
func NewInterner(errNames *ErrorInterner) *Interner {
	if errNames == nil {
		errNames = NewErrorInterner()
	}
	in := &Interner{
		index:    make(map[Type]TypeID, 64),
		ptrIndex: make(map[PtrInfo]uint32, 8),
		arrIndex: make(map[ArrayInfo]uint32, 8),
		fnIndex:  make(map[string]uint32, 8),
		errIndex: make(map[string]uint32, 8),
		errNames: errNames,
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.errSets = append(in.errSets, nil)          // reserve 0 for anyerror
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.NoReturn = in.Intern(Type{Kind: KindNoReturn})
	in.builtins.ComptimeInt = in.Intern(Type{Kind: KindComptimeInt})
	in.builtins.ComptimeFloat = in.Intern(Type{Kind: KindComptimeFloat})
	in.builtins.Undefined = in.Intern(Type{Kind: KindUndefined})
	in.builtins.Null = in.Intern(Type{Kind: KindNull})
	in.builtins.AnyError = in.Intern(Type{Kind: KindErrorSet, Extra: anyErrorSet})
	in.builtins.EnumLiteral = in.Intern(Type{Kind: KindEnumLiteral})
	return in
}

// Builtins returns TypeIDs for the built-in types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Errors returns the shared error-name interner.
func (in *Interner) Errors() *ErrorInterner {
	return in.errNames
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Get returns the descriptor for the given TypeID.
func (in *Interner) Get(id TypeID) Type {
	return in.types[id]
}

// Kind returns the kind of the given TypeID.
func (in *Interner) Kind(id TypeID) Kind {
	return in.types[id].Kind
}

// Int interns an integer type with the given signedness and bit width.
func (in *Interner) Int(signed bool, bits uint16) TypeID {
	return in.Intern(MakeInt(signed, bits))
}

// Float interns a floating-point type of the given width.
func (in *Interner) Float(bits uint16) TypeID {
	return in.Intern(MakeFloat(bits))
}

// Ptr interns a pointer type with the given attributes.
func (in *Interner) Ptr(elem TypeID, info PtrInfo) TypeID {
	extra, ok := in.ptrIndex[info]
	if !ok {
		extra = safecast.MustConv[uint32](len(in.ptrInfos))
		in.ptrInfos = append(in.ptrInfos, info)
		in.ptrIndex[info] = extra
	}
	return in.Intern(Type{Kind: KindPointer, Elem: elem, Extra: extra})
}

// PtrInfo returns the pointer attributes for a pointer TypeID.
func (in *Interner) PtrInfo(id TypeID) PtrInfo {
	t := in.types[id]
	if t.Kind != KindPointer {
		panic(fmt.Sprintf("PtrInfo on %s type", t.Kind))
	}
	return in.ptrInfos[t.Extra]
}

// Optional interns ?Elem.
func (in *Interner) Optional(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindOptional, Elem: elem})
}

// Array interns a fixed-length array type.
func (in *Interner) Array(elem TypeID, info ArrayInfo) TypeID {
	extra, ok := in.arrIndex[info]
	if !ok {
		extra = safecast.MustConv[uint32](len(in.arrInfos))
		in.arrInfos = append(in.arrInfos, info)
		in.arrIndex[info] = extra
	}
	return in.Intern(Type{Kind: KindArray, Elem: elem, Extra: extra})
}

// ArrayInfo returns length and sentinel data for an array TypeID.
func (in *Interner) ArrayInfo(id TypeID) ArrayInfo {
	t := in.types[id]
	if t.Kind != KindArray {
		panic(fmt.Sprintf("ArrayInfo on %s type", t.Kind))
	}
	return in.arrInfos[t.Extra]
}

// ErrorUnion interns set!payload.
func (in *Interner) ErrorUnion(set, payload TypeID) TypeID {
	if in.types[set].Kind != KindErrorSet {
		panic("error union over non-error-set type")
	}
	return in.Intern(Type{Kind: KindErrorUnion, Elem: payload, Extra: uint32(set)})
}

// ErrorUnionSet returns the error-set TypeID of an error union.
func (in *Interner) ErrorUnionSet(id TypeID) TypeID {
	t := in.types[id]
	if t.Kind != KindErrorUnion {
		panic(fmt.Sprintf("ErrorUnionSet on %s type", t.Kind))
	}
	return TypeID(t.Extra)
}

// ErrorSet interns a named error set. The name list is deduplicated and
// order-independent.
func (in *Interner) ErrorSet(names []ErrorID) TypeID {
	sorted := normalizeErrorNames(names)
	key := errSetKey(sorted)
	extra, ok := in.errIndex[key]
	if !ok {
		extra = safecast.MustConv[uint32](len(in.errSets))
		in.errSets = append(in.errSets, sorted)
		in.errIndex[key] = extra
	}
	return in.Intern(Type{Kind: KindErrorSet, Extra: extra})
}

// ErrorSetNames returns the members of a named error set. The result aliases
// interner storage; callers must not modify it. AnyError returns nil.
func (in *Interner) ErrorSetNames(id TypeID) []ErrorID {
	t := in.types[id]
	if t.Kind != KindErrorSet {
		panic(fmt.Sprintf("ErrorSetNames on %s type", t.Kind))
	}
	return in.errSets[t.Extra]
}

// IsAnyError reports whether id is the "any error" top set.
func (in *Interner) IsAnyError(id TypeID) bool {
	t := in.types[id]
	return t.Kind == KindErrorSet && t.Extra == anyErrorSet
}

// ErrorSetContains reports whether the set admits the given error value.
func (in *Interner) ErrorSetContains(set TypeID, err ErrorID) bool {
	if in.IsAnyError(set) {
		return true
	}
	for _, id := range in.ErrorSetNames(set) {
		if id == err {
			return true
		}
	}
	return false
}

// MergeErrorSets interns the union of two error sets. Merging with AnyError
// yields AnyError.
func (in *Interner) MergeErrorSets(a, b TypeID) TypeID {
	if in.IsAnyError(a) || in.IsAnyError(b) {
		return in.builtins.AnyError
	}
	merged := append([]ErrorID{}, in.ErrorSetNames(a)...)
	merged = append(merged, in.ErrorSetNames(b)...)
	return in.ErrorSet(merged)
}

// Fn interns a function type.
func (in *Interner) Fn(info FnInfo) TypeID {
	key := fnKey(info)
	extra, ok := in.fnIndex[key]
	if !ok {
		extra = safecast.MustConv[uint32](len(in.fnInfos))
		in.fnInfos = append(in.fnInfos, info)
		in.fnIndex[key] = extra
	}
	return in.Intern(Type{Kind: KindFn, Extra: extra})
}

// FnInfo returns the signature of a function TypeID.
func (in *Interner) FnInfo(id TypeID) FnInfo {
	t := in.types[id]
	if t.Kind != KindFn {
		panic(fmt.Sprintf("FnInfo on %s type", t.Kind))
	}
	return in.fnInfos[t.Extra]
}

// NewStruct registers a nominal struct type. Every call creates a distinct
// type, even for identical field lists.
func (in *Interner) NewStruct(info StructInfo) TypeID {
	extra := safecast.MustConv[uint32](len(in.structs))
	in.structs = append(in.structs, info)
	return in.internRaw(Type{Kind: KindStruct, Extra: extra})
}

// StructInfo returns the field list of a struct TypeID.
func (in *Interner) StructInfo(id TypeID) StructInfo {
	t := in.types[id]
	if t.Kind != KindStruct {
		panic(fmt.Sprintf("StructInfo on %s type", t.Kind))
	}
	return in.structs[t.Extra]
}

// IntInfo reports signedness and width for integer types.
func (in *Interner) IntInfo(id TypeID) (signed bool, bits uint16, ok bool) {
	t := in.types[id]
	if t.Kind != KindInt {
		return false, 0, false
	}
	return t.Signed, t.Bits, true
}

// FloatBits reports the width of a float type.
func (in *Interner) FloatBits(id TypeID) (uint16, bool) {
	t := in.types[id]
	if t.Kind != KindFloat {
		return 0, false
	}
	return t.Bits, true
}

func normalizeErrorNames(names []ErrorID) []ErrorID {
	sorted := append([]ErrorID{}, names...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:0]
	var prev ErrorID
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		out = append(out, id)
		prev = id
	}
	return out
}

func errSetKey(sorted []ErrorID) string {
	var sb strings.Builder
	for _, id := range sorted {
		fmt.Fprintf(&sb, "%d,", id)
	}
	return sb.String()
}

func fnKey(info FnInfo) string {
	var sb strings.Builder
	for _, p := range info.Params {
		fmt.Fprintf(&sb, "%d,", p)
	}
	fmt.Fprintf(&sb, "->%d cc%d v%t", info.Ret, info.CallConv, info.Variadic)
	return sb.String()
}
