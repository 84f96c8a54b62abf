package avmerrors

import "fmt"

// InstructionExecutionError attaches the failing instruction to a VM error.
type InstructionExecutionError struct {
	Opcode string
	PC     uint32
	Err    error
}

func NewInstructionError(opcode string, pc uint32, err error) *InstructionExecutionError {
	return &InstructionExecutionError{Opcode: opcode, PC: pc, Err: err}
}

func (e *InstructionExecutionError) Error() string {
	return fmt.Sprintf("%s at pc=%d: %v", e.Opcode, e.PC, e.Err)
}

func (e *InstructionExecutionError) Unwrap() error {
	return e.Err
}
