package diag

import (
	"fmt"
)

// Code identifies a diagnostic kind. Codes are grouped in numeric blocks:
// 3xxx for type/semantic errors, 4xxx for compile-time evaluation errors,
// 5xxx for stream/unit level errors reported by the driver.
type Code uint16

const (
	UnknownCode Code = 0

	// Semantic errors.
	SemaInfo                  Code = 3000
	SemaTypeMismatch          Code = 3001
	SemaValueOutOfRange       Code = 3002
	SemaPeerTypeConflict      Code = 3003
	SemaNotCallable           Code = 3004
	SemaWrongArgCount         Code = 3005
	SemaInvalidMemberAccess   Code = 3006
	SemaDuplicateSwitchValue  Code = 3007
	SemaSwitchNotExhaustive   Code = 3008
	SemaSwitchUnreachableElse Code = 3009
	SemaSwitchMissingElse     Code = 3010
	SemaSwitchBadOperand      Code = 3011
	SemaErrorNotInSet         Code = 3012
	SemaSentinelMismatch      Code = 3013
	SemaExpectedType          Code = 3014
	SemaUndeclared            Code = 3015
	SemaNotImplemented        Code = 3999

	// Compile-time evaluation errors.
	EvalInfo               Code = 4000
	EvalBranchQuota        Code = 4001
	EvalUnwrapNull         Code = 4002
	EvalUnwrapError        Code = 4003
	EvalDivisionByZero     Code = 4004
	EvalUnreachable        Code = 4005
	EvalUserCompileError   Code = 4006
	EvalRemainderByZero    Code = 4007
	EvalNegativeShift      Code = 4008
	EvalUndefinedOperand   Code = 4009
	EvalShiftOutOfRange    Code = 4010
	EvalFloatFromNonFinite Code = 4011
	EvalRuntimeValue       Code = 4012

	// Stream / unit errors.
	UnitInfo                 Code = 5000
	UnitImportNotFound       Code = 5001
	UnitImportOutsidePackage Code = 5002
	UnitDependencyFailed     Code = 5003
	UnitBadStream            Code = 5004
)

func (c Code) String() string {
	return fmt.Sprintf("LM%04d", uint16(c))
}
