package program

import (
	"github.com/holiman/uint256"

	"github.com/colorfulnotion/avm/avm/memory"
)

// Instruction is one decoded instruction. The set of implementations is
// closed: every opcode maps to exactly one of the types in this file.
type Instruction interface {
	Opcode() Opcode
	// operands returns pointers to the fields in wire order.
	operands() []any
}

type base struct {
	Op Opcode
}

func (b *base) Opcode() Opcode { return b.Op }

// ThreeOperand is the shape shared by binary arithmetic, comparison and
// bitwise instructions: M[dst] = M[a] op M[b].
type ThreeOperand struct {
	base
	Indirect  uint16
	AOffset   uint32
	BOffset   uint32
	DstOffset uint32
}

func (i *ThreeOperand) operands() []any {
	return []any{&i.Indirect, &i.AOffset, &i.BOffset, &i.DstOffset}
}

type (
	Add  struct{ ThreeOperand }
	Sub  struct{ ThreeOperand }
	Mul  struct{ ThreeOperand }
	Div  struct{ ThreeOperand }
	FDiv struct{ ThreeOperand }
	Eq   struct{ ThreeOperand }
	Lt   struct{ ThreeOperand }
	Lte  struct{ ThreeOperand }
	And  struct{ ThreeOperand }
	Or   struct{ ThreeOperand }
	Xor  struct{ ThreeOperand }
	Shl  struct{ ThreeOperand }
	Shr  struct{ ThreeOperand }
)

type Not struct {
	base
	Indirect  uint16
	AOffset   uint32
	DstOffset uint32
}

func (i *Not) operands() []any { return []any{&i.Indirect, &i.AOffset, &i.DstOffset} }

// AddImm is M[dst] = M[a] + imm, with imm truncated to the tag of M[a].
type AddImm struct {
	base
	Indirect  uint16
	AOffset   uint32
	Immediate uint32
	DstOffset uint32
}

func (i *AddImm) operands() []any {
	return []any{&i.Indirect, &i.AOffset, &i.Immediate, &i.DstOffset}
}

type Cast struct {
	base
	Indirect  uint16
	AOffset   uint32
	DstOffset uint32
	DstTag    memory.Tag
}

func (i *Cast) operands() []any { return []any{&i.Indirect, &i.AOffset, &i.DstOffset, &i.DstTag} }

// EnvGetter writes one environment or machine-state variable, selected by
// the opcode, to M[dst].
type EnvGetter struct {
	base
	Indirect  uint16
	DstOffset uint32
}

func (i *EnvGetter) operands() []any { return []any{&i.Indirect, &i.DstOffset} }

type CalldataCopy struct {
	base
	Indirect       uint16
	CdStartOffset  uint32
	CopySizeOffset uint32
	DstOffset      uint32
}

func (i *CalldataCopy) operands() []any {
	return []any{&i.Indirect, &i.CdStartOffset, &i.CopySizeOffset, &i.DstOffset}
}

type ReturndataSize struct {
	base
	Indirect  uint16
	DstOffset uint32
}

func (i *ReturndataSize) operands() []any { return []any{&i.Indirect, &i.DstOffset} }

type ReturndataCopy struct {
	base
	Indirect       uint16
	RdStartOffset  uint32
	CopySizeOffset uint32
	DstOffset      uint32
}

func (i *ReturndataCopy) operands() []any {
	return []any{&i.Indirect, &i.RdStartOffset, &i.CopySizeOffset, &i.DstOffset}
}

type SuccessCopy struct {
	base
	Indirect  uint16
	DstOffset uint32
}

func (i *SuccessCopy) operands() []any { return []any{&i.Indirect, &i.DstOffset} }

type Jump struct {
	base
	Loc uint32
}

func (i *Jump) operands() []any { return []any{&i.Loc} }

type JumpI struct {
	base
	Indirect   uint16
	CondOffset uint32
	Loc        uint32
}

func (i *JumpI) operands() []any { return []any{&i.Indirect, &i.CondOffset, &i.Loc} }

type InternalCall struct {
	base
	Loc uint32
}

func (i *InternalCall) operands() []any { return []any{&i.Loc} }

type InternalReturn struct {
	base
}

func (i *InternalReturn) operands() []any { return nil }

// Set writes an immediate, truncated to InTag.
type Set struct {
	base
	Indirect  uint16
	DstOffset uint32
	InTag     memory.Tag
	Value     uint256.Int
}

func (i *Set) operands() []any { return []any{&i.Indirect, &i.DstOffset, &i.InTag, &i.Value} }

type Mov struct {
	base
	Indirect  uint16
	SrcOffset uint32
	DstOffset uint32
}

func (i *Mov) operands() []any { return []any{&i.Indirect, &i.SrcOffset, &i.DstOffset} }

type SLoad struct {
	base
	Indirect   uint16
	SlotOffset uint32
	DstOffset  uint32
}

func (i *SLoad) operands() []any { return []any{&i.Indirect, &i.SlotOffset, &i.DstOffset} }

type SStore struct {
	base
	Indirect   uint16
	SrcOffset  uint32
	SlotOffset uint32
}

func (i *SStore) operands() []any { return []any{&i.Indirect, &i.SrcOffset, &i.SlotOffset} }

type NoteHashExists struct {
	base
	Indirect        uint16
	NoteHashOffset  uint32
	LeafIndexOffset uint32
	ExistsOffset    uint32
}

func (i *NoteHashExists) operands() []any {
	return []any{&i.Indirect, &i.NoteHashOffset, &i.LeafIndexOffset, &i.ExistsOffset}
}

type EmitNoteHash struct {
	base
	Indirect       uint16
	NoteHashOffset uint32
}

func (i *EmitNoteHash) operands() []any { return []any{&i.Indirect, &i.NoteHashOffset} }

type NullifierExists struct {
	base
	Indirect        uint16
	NullifierOffset uint32
	AddressOffset   uint32
	ExistsOffset    uint32
}

func (i *NullifierExists) operands() []any {
	return []any{&i.Indirect, &i.NullifierOffset, &i.AddressOffset, &i.ExistsOffset}
}

type EmitNullifier struct {
	base
	Indirect        uint16
	NullifierOffset uint32
}

func (i *EmitNullifier) operands() []any { return []any{&i.Indirect, &i.NullifierOffset} }

type EmitUnencryptedLog struct {
	base
	Indirect      uint16
	LogOffset     uint32
	LogSizeOffset uint32
}

func (i *EmitUnencryptedLog) operands() []any {
	return []any{&i.Indirect, &i.LogOffset, &i.LogSizeOffset}
}

type SendL2ToL1Message struct {
	base
	Indirect        uint16
	RecipientOffset uint32
	ContentOffset   uint32
}

func (i *SendL2ToL1Message) operands() []any {
	return []any{&i.Indirect, &i.RecipientOffset, &i.ContentOffset}
}

// Call covers CALL and STATICCALL. M[gasOffset] and M[gasOffset+1] hold the
// requested L2 and DA gas. RetSize is an immediate.
type Call struct {
	base
	Indirect       uint16
	GasOffset      uint32
	AddrOffset     uint32
	ArgsOffset     uint32
	ArgsSizeOffset uint32
	RetOffset      uint32
	RetSize        uint32
	SuccessOffset  uint32
}

func (i *Call) operands() []any {
	return []any{&i.Indirect, &i.GasOffset, &i.AddrOffset, &i.ArgsOffset, &i.ArgsSizeOffset,
		&i.RetOffset, &i.RetSize, &i.SuccessOffset}
}

func (i *Call) IsStatic() bool { return i.Op == STATICCALL }

type Return struct {
	base
	Indirect         uint16
	ReturnOffset     uint32
	ReturnSizeOffset uint32
}

func (i *Return) operands() []any { return []any{&i.Indirect, &i.ReturnOffset, &i.ReturnSizeOffset} }

type Revert struct {
	base
	Indirect         uint16
	ReturnOffset     uint32
	ReturnSizeOffset uint32
}

func (i *Revert) operands() []any { return []any{&i.Indirect, &i.ReturnOffset, &i.ReturnSizeOffset} }

// Keccak hashes M[msg : msg+M[msgSize]] (UINT8 words) into 32 UINT8 words at dst.
type Keccak struct {
	base
	Indirect          uint16
	DstOffset         uint32
	MessageOffset     uint32
	MessageSizeOffset uint32
}

func (i *Keccak) operands() []any {
	return []any{&i.Indirect, &i.DstOffset, &i.MessageOffset, &i.MessageSizeOffset}
}

// Poseidon2 permutes four FIELD words.
type Poseidon2 struct {
	base
	Indirect     uint16
	InputOffset  uint32
	OutputOffset uint32
}

func (i *Poseidon2) operands() []any { return []any{&i.Indirect, &i.InputOffset, &i.OutputOffset} }
