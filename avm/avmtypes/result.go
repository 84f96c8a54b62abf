package avmtypes

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// RevertReason describes why a frame reverted, including the reason of the
// nested call it was propagating, if any.
type RevertReason struct {
	Message    string        `json:"message"`
	Address    Fr            `json:"address"`
	PC         uint32        `json:"pc"`
	RevertData []Fr          `json:"revertData,omitempty"`
	Cause      *RevertReason `json:"cause,omitempty"`
}

func (r *RevertReason) Error() string {
	if r.Cause != nil {
		return fmt.Sprintf("%s (caused by %s)", r.Message, r.Cause.Error())
	}
	return r.Message
}

// Tree renders the chain of reverting frames, outermost first.
func (r *RevertReason) Tree() string {
	tree := treeprint.NewWithRoot(r.label())
	node := tree
	for c := r.Cause; c != nil; c = c.Cause {
		node = node.AddBranch(c.label())
	}
	return tree.String()
}

func (r *RevertReason) label() string {
	return fmt.Sprintf("%s@pc=%d: %s", FrHex(&r.Address), r.PC, r.Message)
}

// CallResult is what a finished frame hands back to its caller.
type CallResult struct {
	Reverted     bool          `json:"reverted"`
	Output       []Fr          `json:"output"`
	GasLeft      Gas           `json:"gasLeft"`
	RevertReason *RevertReason `json:"revertReason,omitempty"`
}
