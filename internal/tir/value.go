package tir

import (
	"fmt"
	"math/big"
	"strings"

	"lumen/internal/types"
)

// ValueKind enumerates compile-time value payloads.
type ValueKind uint8

const (
	ValVoid ValueKind = iota
	ValBool
	ValInt
	ValFloat
	ValNull
	ValUndef
	ValError    // a known error of an error set
	ValEnum     // enum literal
	ValOptional // known optional: Payload nil means null
	ValErrUnion // known error union: Err set means error, else Payload
	ValFn       // reference to a callable declaration
)

// Value is a compile-time-known payload attached to an instruction. Absence
// of a Value on an instruction means the result exists only at runtime.
// Values are immutable once created.
type Value struct {
	Kind    ValueKind
	Type    types.TypeID
	Int     *big.Int // ValInt
	Float   float64  // ValFloat
	Bool    bool     // ValBool
	Err     types.ErrorID
	Name    string // ValEnum
	Payload *Value // ValOptional (nil = null), ValErrUnion (when Err == 0)
	Fn      uint32 // ValFn: declaration handle owned by the registry
}

// IsUndef reports whether the value carries the undefined marker.
func (v *Value) IsUndef() bool {
	return v != nil && v.Kind == ValUndef
}

// String renders the value for diagnostics and compile-log output.
func (v *Value) String(in *types.Interner) string {
	if v == nil {
		return "(runtime)"
	}
	switch v.Kind {
	case ValVoid:
		return "{}"
	case ValBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValInt:
		return v.Int.String()
	case ValFloat:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v.Float), "0"), ".")
	case ValNull:
		return "null"
	case ValUndef:
		return "undefined"
	case ValError:
		if in != nil {
			return "error." + in.Errors().Name(v.Err)
		}
		return fmt.Sprintf("error(%d)", v.Err)
	case ValEnum:
		return "." + v.Name
	case ValOptional:
		if v.Payload == nil {
			return "null"
		}
		return v.Payload.String(in)
	case ValErrUnion:
		if v.Err != types.NoErrorID {
			if in != nil {
				return "error." + in.Errors().Name(v.Err)
			}
			return fmt.Sprintf("error(%d)", v.Err)
		}
		return v.Payload.String(in)
	case ValFn:
		return fmt.Sprintf("fn#%d", v.Fn)
	default:
		return fmt.Sprintf("Value(kind=%d)", v.Kind)
	}
}
