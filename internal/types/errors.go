package types

// ErrorID is a stable handle for a named error value. Handles are global to
// the pipeline: the same name interns to the same ID in every declaration,
// which is what makes error sets mergeable by name-set union.
type ErrorID uint32

// NoErrorID marks the absence of an error value.
const NoErrorID ErrorID = 0

// ErrorInterner hands out stable ErrorIDs for error names.
type ErrorInterner struct {
	names []string
	index map[string]ErrorID
}

func NewErrorInterner() *ErrorInterner {
	return &ErrorInterner{
		names: []string{""}, // reserve 0 for NoErrorID
		index: make(map[string]ErrorID, 16),
	}
}

// Intern returns the handle for name, creating it on first use.
func (ei *ErrorInterner) Intern(name string) ErrorID {
	if id, ok := ei.index[name]; ok {
		return id
	}
	id := ErrorID(len(ei.names))
	ei.names = append(ei.names, name)
	ei.index[name] = id
	return id
}

// Name returns the error name for a handle, or "" for NoErrorID.
func (ei *ErrorInterner) Name(id ErrorID) string {
	if int(id) >= len(ei.names) {
		return ""
	}
	return ei.names[id]
}

// Len returns the number of interned error names, NoErrorID included.
func (ei *ErrorInterner) Len() int {
	return len(ei.names)
}
