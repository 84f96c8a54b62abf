package avm

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/gas"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
	avmtrace "github.com/colorfulnotion/avm/avm/trace"
	"github.com/colorfulnotion/avm/log"
)

// DefaultMaxCallDepth bounds CALL/STATICCALL nesting.
const DefaultMaxCallDepth = 64

const instrumentationName = "github.com/colorfulnotion/avm"

// Observer is notified of executed instructions and finished frames.
type Observer interface {
	InstructionExecuted(op program.Opcode)
	CallFinished(depth int, reverted bool, gasUsed avmtypes.Gas)
}

type Options struct {
	MaxCallDepth int
	Programs     *ProgramCache
	Tracer       avmtrace.Tracer
	Observer     Observer
}

// Simulator runs frames. It holds no per-call state and may be shared by
// concurrent call trees.
type Simulator struct {
	programs *ProgramCache
	tracer   avmtrace.Tracer
	observer Observer
	maxDepth int
	spans    oteltrace.Tracer
}

func NewSimulator(opts Options) *Simulator {
	s := &Simulator{
		programs: opts.Programs,
		tracer:   opts.Tracer,
		observer: opts.Observer,
		maxDepth: opts.MaxCallDepth,
		spans:    otel.Tracer(instrumentationName),
	}
	if s.programs == nil {
		s.programs = NewProgramCache(DefaultProgramCacheSize)
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxCallDepth
	}
	return s
}

// Execute runs bytecode in c until it halts. VM errors end the frame as a
// revert inside the returned CallResult; a non-nil error means the host
// failed or ctx was cancelled and the call tree must be abandoned.
func (s *Simulator) Execute(ctx context.Context, c *Context, bytecode []byte) (*avmtypes.CallResult, error) {
	ctx, span := s.spans.Start(ctx, "avm.frame", oteltrace.WithAttributes(
		attribute.String("avm.address", avmtypes.FrHex(&c.Env.Address)),
		attribute.Int("avm.depth", c.Depth),
		attribute.Bool("avm.static", c.Env.IsStaticCall),
	))
	defer span.End()

	allocated := c.Machine.GasLeft()
	result, err := s.run(ctx, c, bytecode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	gasUsed := allocated.Sub(result.GasLeft)
	span.SetAttributes(
		attribute.Bool("avm.reverted", result.Reverted),
		attribute.Int64("avm.l2_gas_used", int64(gasUsed.L2)),
		attribute.Int64("avm.da_gas_used", int64(gasUsed.DA)),
	)
	if s.observer != nil {
		s.observer.CallFinished(c.Depth, result.Reverted, gasUsed)
	}
	return result, nil
}

func (s *Simulator) run(ctx context.Context, c *Context, bytecode []byte) (*avmtypes.CallResult, error) {
	ms := c.Machine
	instrs, err := s.programs.Get(bytecode)
	if err != nil {
		// nothing ran, so no gas is attributable
		log.Debug(log.Simulator, "undecodable bytecode", "address", avmtypes.FrHex(&c.Env.Address), "err", err)
		return &avmtypes.CallResult{
			Reverted:     true,
			GasLeft:      ms.GasLeft(),
			RevertReason: s.revertReason(c, err.Error(), nil),
		}, nil
	}

	for !ms.halted {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", avmerrors.ErrExecutionCancelled, err)
		}
		err := s.step(ctx, c, instrs)
		if err == nil {
			continue
		}
		if !avmerrors.IsExecutionError(err) {
			return nil, err
		}
		log.Debug(log.Simulator, "exceptional halt", "pc", ms.PC, "depth", c.Depth, "outOfGas", avmerrors.IsOutOfGas(err), "err", err)
		reason := s.revertReason(c, err.Error(), nil)
		ms.exceptionalHalt()
		return &avmtypes.CallResult{Reverted: true, GasLeft: ms.GasLeft(), RevertReason: reason}, nil
	}

	result := &avmtypes.CallResult{Reverted: ms.reverted, Output: ms.output, GasLeft: ms.GasLeft()}
	if ms.reverted {
		result.RevertReason = s.revertReason(c, "explicit revert", ms.output)
		result.RevertReason.Cause = ms.CollectedRevertInfo
	}
	log.Trace(log.Simulator, "frame halted", "depth", c.Depth, "reverted", ms.reverted, "outputLen", len(ms.output), "gasLeft", ms.GasLeft())
	return result, nil
}

func (s *Simulator) revertReason(c *Context, msg string, data []Fr) *avmtypes.RevertReason {
	return &avmtypes.RevertReason{Message: msg, Address: c.Env.Address, PC: c.Machine.PC, RevertData: data}
}

// step executes the instruction at PC: charge base gas, run it, check and
// bill its memory traffic, then advance PC unless the instruction moved it.
func (s *Simulator) step(ctx context.Context, c *Context, instrs []program.Instruction) error {
	ms := c.Machine
	pc := ms.PC
	if uint64(pc) >= uint64(len(instrs)) {
		return fmt.Errorf("%w: pc %d, program has %d instructions", avmerrors.ErrInvalidProgramCounter, pc, len(instrs))
	}
	instr := instrs[pc]
	op := instr.Opcode()
	ms.jumped = false

	mem := ms.Memory.Track(op.String())
	var ops memory.MemoryOperations
	err := ms.ConsumeGas(gas.BaseCost(op))
	if err == nil {
		ops, err = s.dispatch(ctx, c, instr, mem)
	}
	if err == nil {
		if err = mem.Assert(ops); err == nil {
			err = ms.ConsumeGas(gas.MemoryCost(mem.Reads(), mem.Writes(), indirectCount(ops)))
		}
	}
	if s.tracer != nil {
		s.traceStep(c, pc, op, mem, ops, err)
	}
	if s.observer != nil {
		s.observer.InstructionExecuted(op)
	}
	if err != nil {
		var ie *avmerrors.InstructionExecutionError
		if avmerrors.IsExecutionError(err) && !errors.As(err, &ie) {
			err = avmerrors.NewInstructionError(op.String(), pc, err)
		}
		return err
	}
	log.Trace(log.Simulator, op.String(), "pc", pc, "depth", c.Depth, "gasLeft", ms.GasLeft())
	if !ms.halted && !ms.jumped {
		ms.PC++
	}
	return nil
}

func indirectCount(ops memory.MemoryOperations) int {
	if ops.Addressing == nil {
		return 0
	}
	return ops.Addressing.IndirectCount()
}

func (s *Simulator) traceStep(c *Context, pc uint32, op program.Opcode, mem *memory.MeteredMemory, ops memory.MemoryOperations, err error) {
	left := c.Machine.GasLeft()
	st := &avmtrace.Step{
		Depth:     c.Depth,
		Address:   avmtypes.FrHex(&c.Env.Address),
		PC:        pc,
		Opcode:    uint8(op),
		OpcodeStr: op.String(),
		PostL2Gas: left.L2,
		PostDAGas: left.DA,
		Reads:     mem.Reads(),
		Writes:    mem.Writes(),
		Indirect:  indirectCount(ops),
		Halted:    c.Machine.halted,
		Reverted:  c.Machine.reverted,
	}
	st.SetError(err)
	if werr := s.tracer.WriteStep(st); werr != nil {
		log.Warn(log.Simulator, "trace write failed", "err", werr)
	}
}
