package avmerrors

import (
	"errors"
	"strings"
)

// Decoding (D) Errors
var (
	ErrDeserialization = errors.New("D1|Deserialization: Bytecode is truncated or malformed.")
	ErrUnknownOpcode   = errors.New("D2|UnknownOpcode: Opcode byte has no registered wire format.")
	ErrOperandOverflow = errors.New("D3|OperandOverflow: Operand value does not fit its wire width.")
)

// Memory (M) Errors
var (
	ErrTagMismatch           = errors.New("M1|TagMismatch: Memory word tag differs from the tag the instruction requires.")
	ErrInvalidTag            = errors.New("M2|InvalidTag: Tag is not a valid type tag for this operation.")
	ErrMemorySliceOutOfRange = errors.New("M3|MemorySliceOutOfRange: Memory slice extends past the addressable range.")
	ErrMemoryAccessMismatch  = errors.New("M4|MemoryAccessMismatch: Instruction touched memory a different number of times than declared.")
)

// Gas (G) Errors
var (
	ErrOutOfGas = errors.New("G1|OutOfGas: Not enough L2 or DA gas left for the operation.")
)

// Execution (X) Errors
var (
	ErrDivisionByZero         = errors.New("X1|DivisionByZero: Division or field inversion by zero.")
	ErrInvalidProgramCounter  = errors.New("X2|InvalidProgramCounter: Program counter is outside the decoded program.")
	ErrInternalCallStackEmpty = errors.New("X3|InternalCallStackEmpty: INTERNALRETURN with no pending INTERNALCALL.")
	ErrStaticCallAlteration   = errors.New("X4|StaticCallAlteration: State-modifying instruction in a static call.")
	ErrNullifierCollision     = errors.New("X5|NullifierCollision: Nullifier already exists.")
	ErrUnsupportedInstruction = errors.New("X6|UnsupportedInstruction: Dispatcher has no handler for the instruction.")
)

// Call (C) Errors
var (
	ErrNoBytecode        = errors.New("C1|NoBytecode: No bytecode deployed at the called address.")
	ErrCallDepthExceeded = errors.New("C2|CallDepthExceeded: Nested call depth limit reached.")
)

// Host (H) Errors are not converted into reverts; they abort the whole call tree.
var (
	ErrExecutionCancelled = errors.New("H1|ExecutionCancelled: Execution context was cancelled.")
	ErrWorldState         = errors.New("H2|WorldState: World state backend failed.")
)

var executionErrors = []error{
	ErrDeserialization, ErrUnknownOpcode, ErrOperandOverflow,
	ErrTagMismatch, ErrInvalidTag, ErrMemorySliceOutOfRange, ErrMemoryAccessMismatch,
	ErrOutOfGas,
	ErrDivisionByZero, ErrInvalidProgramCounter, ErrInternalCallStackEmpty,
	ErrStaticCallAlteration, ErrNullifierCollision, ErrUnsupportedInstruction,
	ErrNoBytecode, ErrCallDepthExceeded,
}

var hostErrors = []error{ErrExecutionCancelled, ErrWorldState}

// IsExecutionError reports whether err is an exceptional halt of the VM
// itself. Such errors revert the current frame; anything else is fatal to
// the whole simulation.
func IsExecutionError(err error) bool {
	return match(err, executionErrors) != nil
}

// IsOutOfGas reports whether err carries ErrOutOfGas.
func IsOutOfGas(err error) bool {
	return errors.Is(err, ErrOutOfGas)
}

func match(err error, set []error) error {
	if err == nil {
		return nil
	}
	for _, s := range set {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// sentinel returns the coded error wrapped somewhere inside err, or err itself.
func sentinel(err error) error {
	if s := match(err, executionErrors); s != nil {
		return s
	}
	if s := match(err, hostErrors); s != nil {
		return s
	}
	return err
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := sentinel(err).Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	nameDesc := strings.SplitN(errStr, "|", 2)[1]
	return strings.TrimSpace(strings.SplitN(nameDesc, ":", 2)[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := sentinel(err).Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(errStr, "|", 2)[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(sentinel(err).Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}
