package diag

// Severity orders diagnostics by weight. SevInfo carries compile-log
// lines through the same pipeline as real diagnostics; SevError marks
// the declaration failed.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Fatal reports whether a diagnostic of this severity fails the unit.
func (s Severity) Fatal() bool { return s >= SevError }
