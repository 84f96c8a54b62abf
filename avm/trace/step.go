package trace

import (
	"github.com/colorfulnotion/avm/avmerrors"
)

// Step is the record of one executed instruction.
type Step struct {
	Depth     int    `json:"depth"`
	Address   string `json:"address"`
	PC        uint32 `json:"pc"`
	Opcode    uint8  `json:"opcode"`
	OpcodeStr string `json:"opcodeStr"`

	PostL2Gas uint64 `json:"postL2Gas"`
	PostDAGas uint64 `json:"postDaGas"`

	Reads    int `json:"reads"`
	Writes   int `json:"writes"`
	Indirect int `json:"indirect,omitempty"`

	Halted    bool   `json:"halted,omitempty"`
	Reverted  bool   `json:"reverted,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SetError records err and its coded name, if it has one.
func (s *Step) SetError(err error) {
	if err == nil {
		return
	}
	s.Error = err.Error()
	s.ErrorCode = avmerrors.GetErrorCodeWithName(err)
}

// Recorder keeps steps in memory; tests use it to inspect execution.
type Recorder struct {
	Steps []*Step
}

func (r *Recorder) WriteStep(step *Step) error {
	cp := *step
	r.Steps = append(r.Steps, &cp)
	return nil
}
