package types

import (
	"fmt"
	"strings"
)

// String renders a type the way diagnostics spell it.
func (in *Interner) String(id TypeID) string {
	if id == NoTypeID {
		return "<invalid>"
	}
	t := in.types[id]
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindNoReturn:
		return "noreturn"
	case KindComptimeInt:
		return "comptime_int"
	case KindComptimeFloat:
		return "comptime_float"
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindInt:
		if t.Signed {
			return fmt.Sprintf("i%d", t.Bits)
		}
		return fmt.Sprintf("u%d", t.Bits)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case KindPointer:
		return in.ptrString(t)
	case KindOptional:
		return "?" + in.String(t.Elem)
	case KindErrorSet:
		return in.errSetString(t)
	case KindErrorUnion:
		return in.String(TypeID(t.Extra)) + "!" + in.String(t.Elem)
	case KindArray:
		info := in.arrInfos[t.Extra]
		if info.HasSentinel {
			return fmt.Sprintf("[%d:%d]%s", info.Len, info.Sentinel, in.String(t.Elem))
		}
		return fmt.Sprintf("[%d]%s", info.Len, in.String(t.Elem))
	case KindStruct:
		info := in.structs[t.Extra]
		if info.Name != "" {
			return info.Name
		}
		return "(anonymous struct)"
	case KindFn:
		return in.fnString(t)
	case KindEnumLiteral:
		return "(enum literal)"
	default:
		return fmt.Sprintf("<%s>", t.Kind)
	}
}

func (in *Interner) ptrString(t Type) string {
	info := in.ptrInfos[t.Extra]
	var sb strings.Builder
	switch info.Size {
	case PtrOne:
		sb.WriteString("*")
	case PtrMany:
		if info.HasSentinel {
			fmt.Fprintf(&sb, "[*:%d]", info.Sentinel)
		} else {
			sb.WriteString("[*]")
		}
	case PtrSlice:
		if info.HasSentinel {
			fmt.Fprintf(&sb, "[:%d]", info.Sentinel)
		} else {
			sb.WriteString("[]")
		}
	case PtrC:
		sb.WriteString("[*c]")
	}
	if info.Const {
		sb.WriteString("const ")
	}
	if info.Volatile {
		sb.WriteString("volatile ")
	}
	if info.AllowZero {
		sb.WriteString("allowzero ")
	}
	sb.WriteString(in.String(t.Elem))
	return sb.String()
}

func (in *Interner) errSetString(t Type) string {
	if t.Extra == anyErrorSet {
		return "anyerror"
	}
	names := in.errSets[t.Extra]
	parts := make([]string, 0, len(names))
	for _, id := range names {
		parts = append(parts, in.errNames.Name(id))
	}
	return "error{" + strings.Join(parts, ",") + "}"
}

func (in *Interner) fnString(t Type) string {
	info := in.fnInfos[t.Extra]
	parts := make([]string, 0, len(info.Params))
	for _, p := range info.Params {
		parts = append(parts, in.String(p))
	}
	if info.Variadic {
		parts = append(parts, "...")
	}
	return "fn(" + strings.Join(parts, ", ") + ") " + in.String(info.Ret)
}
