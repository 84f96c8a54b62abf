package avm

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
	"github.com/colorfulnotion/avm/log"
)

// execCall implements CALL and STATICCALL. The indirect bits address, in
// order, gasOffset, addrOffset, argsOffset, argsSizeOffset, retOffset and
// successOffset; retSize is an immediate.
func (s *Simulator) execCall(ctx context.Context, c *Context, i *program.Call, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 6)
	ops := memory.MemoryOperations{Addressing: addr}
	off, err := addr.Resolve([]uint32{i.GasOffset, i.AddrOffset, i.ArgsOffset, i.ArgsSizeOffset, i.RetOffset, i.SuccessOffset}, mem)
	if err != nil {
		return ops, err
	}
	gasOff, addrOff, argsOff, argsSizeOff, retOff, successOff := off[0], off[1], off[2], off[3], off[4], off[5]

	argsSize, err := readSize(mem, argsSizeOff)
	if err != nil {
		return ops, err
	}
	if err := chargeDynamic(c, i.Opcode(), argsSize); err != nil {
		return ops, err
	}
	// L2 and DA gas sit in two adjacent words
	if err := mem.CheckTagsRange(memory.UINT32, gasOff, 2); err != nil {
		return ops, err
	}
	if err := mem.CheckTag(memory.FIELD, addrOff); err != nil {
		return ops, err
	}
	if err := mem.CheckTagsRange(memory.FIELD, argsOff, argsSize); err != nil {
		return ops, err
	}
	gasWords, err := mem.GetSlice(gasOff, 2)
	if err != nil {
		return ops, err
	}
	requested := avmtypes.NewGas(gasWords[0].Uint64(), gasWords[1].Uint64())
	target := mem.Get(addrOff).Fr()
	calldata, err := readFields(mem, argsOff, argsSize)
	if err != nil {
		return ops, err
	}
	ops.Reads = 4 + int(argsSize)

	ms := c.Machine
	forwarded := requested.Min(ms.GasLeft())
	if err := ms.ConsumeGas(forwarded); err != nil {
		return ops, err
	}

	result, err := s.nestedCall(ctx, c, target, calldata, i.IsStatic(), forwarded)
	if err != nil {
		return ops, err
	}
	ms.RefundGas(result.GasLeft)

	ret := make([]memory.TaggedWord, i.RetSize)
	for k := range ret {
		if k < len(result.Output) {
			ret[k] = memory.NewField(result.Output[k])
		} else {
			ret[k] = memory.NewFieldFromUint64(0)
		}
	}
	if err := mem.SetSlice(retOff, ret); err != nil {
		return ops, err
	}
	mem.Set(successOff, memory.NewUint1(!result.Reverted))
	ops.Writes = int(i.RetSize) + 1

	ms.NestedReturndata = result.Output
	ms.NestedCallSuccess = !result.Reverted
	ms.CollectedRevertInfo = nil
	if result.Reverted {
		ms.CollectedRevertInfo = result.RevertReason
	}
	return ops, nil
}

// nestedCall runs target in a forked journal and merges or rejects the fork
// on the callee's outcome. Calls that cannot start consume the forwarded gas
// and never touch the journal.
func (s *Simulator) nestedCall(ctx context.Context, c *Context, target Fr, calldata []Fr, isStatic bool, forwarded avmtypes.Gas) (*avmtypes.CallResult, error) {
	if c.Depth+1 > s.maxDepth {
		return failedCall(target, fmt.Errorf("%w: depth %d", avmerrors.ErrCallDepthExceeded, c.Depth+1)), nil
	}
	code, ok, err := c.Journal.GetBytecode(target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return failedCall(target, fmt.Errorf("%w: %s", avmerrors.ErrNoBytecode, avmtypes.FrHex(&target))), nil
	}

	env := c.Env.DeriveForNestedCall(target, calldata, isStatic)
	callee := c.nested(env, forwarded)
	log.Debug(log.Calls, "nested call", "depth", callee.Depth, "target", avmtypes.FrHex(&target), "static", env.IsStaticCall, "gas", forwarded)

	c.Journal.Fork()
	result, err := s.Execute(ctx, callee, code)
	if err != nil {
		if rerr := c.Journal.Reject(); rerr != nil {
			log.Warn(log.Calls, "reject after host failure", "err", rerr)
		}
		return nil, err
	}
	if result.Reverted {
		err = c.Journal.Reject()
	} else {
		err = c.Journal.Merge()
	}
	if err != nil {
		return nil, err
	}
	log.Debug(log.Calls, "nested call done", "depth", callee.Depth, "reverted", result.Reverted, "gasLeft", result.GasLeft)
	return result, nil
}

func failedCall(target Fr, cause error) *avmtypes.CallResult {
	log.Debug(log.Calls, "nested call not started", "target", avmtypes.FrHex(&target), "err", cause)
	return &avmtypes.CallResult{
		Reverted:     true,
		RevertReason: &avmtypes.RevertReason{Message: cause.Error(), Address: target},
	}
}
