package avm

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/journal"
	"github.com/colorfulnotion/avm/log"
)

// TopLevelCall is one enqueued public call of a transaction.
type TopLevelCall struct {
	Address          Fr           `json:"address"`
	Sender           Fr           `json:"sender"`
	FunctionSelector Fr           `json:"functionSelector"`
	Calldata         []Fr         `json:"calldata"`
	IsStaticCall     bool         `json:"isStaticCall"`
	Gas              avmtypes.Gas `json:"gas"`
	TransactionFee   Fr           `json:"transactionFee"`
}

// TopLevelResult carries the call result and, when the call succeeded, the
// side effects the host should commit.
type TopLevelResult struct {
	*avmtypes.CallResult
	Effects *journal.Effects `json:"effects,omitempty"`
	GasUsed avmtypes.Gas     `json:"gasUsed"`
}

// Executor runs top-level calls against a host world state. Every call gets
// its own journal and context tree.
type Executor struct {
	host    journal.WorldStateDB
	sim     *Simulator
	globals avmtypes.GlobalVariables
}

func NewExecutor(host journal.WorldStateDB, sim *Simulator, globals avmtypes.GlobalVariables) *Executor {
	if sim == nil {
		sim = NewSimulator(Options{})
	}
	return &Executor{host: host, sim: sim, globals: globals}
}

func (e *Executor) ExecuteTopLevelCall(ctx context.Context, call TopLevelCall) (*TopLevelResult, error) {
	j := journal.New(e.host)
	code, ok, err := j.GetBytecode(call.Address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", avmerrors.ErrNoBytecode, avmtypes.FrHex(&call.Address))
	}

	env := &avmtypes.Environment{
		Address:          call.Address,
		Sender:           call.Sender,
		Origin:           call.Sender,
		FunctionSelector: call.FunctionSelector,
		TransactionFee:   call.TransactionFee,
		Calldata:         append([]Fr(nil), call.Calldata...),
		IsStaticCall:     call.IsStaticCall,
		Globals:          e.globals,
	}
	c := NewContext(env, call.Gas, j)
	result, err := e.sim.Execute(ctx, c, code)
	if err != nil {
		return nil, err
	}
	out := &TopLevelResult{CallResult: result, GasUsed: call.Gas.Sub(result.GasLeft)}
	if !result.Reverted {
		out.Effects = j.Effects()
	}
	log.Debug(log.Simulator, "top-level call", "address", avmtypes.FrHex(&call.Address), "reverted", result.Reverted, "gasUsed", out.GasUsed)
	return out, nil
}
