package diag

import (
	"fmt"
)

// Code is a compact, stable identifier for a class of problem.
type Code uint16

const (
	UnknownCode Code = 0

	// Staging runtime.
	StgNoState       Code = 1001
	StgTypeMismatch  Code = 1002
	StgUndefined     Code = 1003
	StgNotCallable   Code = 1004
	StgArity         Code = 1005
	StgRecursiveCall Code = 1006
	StgMissingReturn Code = 1007

	// Transformer, reported at rewrite time.
	RwUnsupported   Code = 2001
	RwParse         Code = 2002
	RwUnknownType   Code = 2003
	RwDuplicateFunc Code = 2004
	RwUnknownFunc   Code = 2005
	RwBadLiteral    Code = 2006
	RwUndefinedName Code = 2007
	RwBadConstant   Code = 2008

	// Lowering collaborator.
	EvalUndefined Code = 3001
	EvalDivZero   Code = 3002
	EvalBadInput  Code = 3003
	EvalOverflow  Code = 3004
	EvalStepLimit Code = 3005

	// Driver.
	IOLoadFile  Code = 4001
	CfgInvalid  Code = 4002
	CacheFailed Code = 4003
)

var codeDescription = map[Code]string{
	UnknownCode:      "unknown error",
	StgNoState:       "staging attempted with no active state",
	StgTypeMismatch:  "staged types do not unify",
	StgUndefined:     "variable undefined on some path",
	StgNotCallable:   "value is not callable",
	StgArity:         "wrong number of arguments",
	StgRecursiveCall: "recursive staged function",
	StgMissingReturn: "function does not return a value",
	RwUnsupported:    "construct not supported by the transformer",
	RwParse:          "source does not parse",
	RwUnknownType:    "unknown parameter or result type",
	RwDuplicateFunc:  "function declared twice",
	RwUnknownFunc:    "call to unknown function",
	RwBadLiteral:     "malformed literal",
	RwUndefinedName:  "name is never defined",
	RwBadConstant:    "invalid constant expression",
	EvalUndefined:    "evaluation demanded an undefined value",
	EvalDivZero:      "division by zero",
	EvalBadInput:     "bad input value",
	EvalOverflow:     "integer overflow",
	EvalStepLimit:    "loop iteration limit exceeded",
	IOLoadFile:       "cannot load source file",
	CfgInvalid:       "invalid configuration",
	CacheFailed:      "capture cache failure",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("STG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RW%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EV%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
