package journal

import (
	"github.com/colorfulnotion/avm/avm/avmtypes"
)

type Fr = avmtypes.Fr

// WorldStateDB is the committed state the journal reads through to. It is
// owned by the host; the VM never writes to it.
type WorldStateDB interface {
	StorageRead(contract, slot Fr) (value Fr, exists bool, err error)
	CheckNullifierExists(contract, nullifier Fr) (bool, error)
	CheckNoteHashExists(contract, noteHash Fr, leafIndex uint64) (bool, error)
	GetBytecode(contract Fr) ([]byte, bool, error)
}

type StorageWrite struct {
	Contract Fr     `json:"contract"`
	Slot     Fr     `json:"slot"`
	Value    Fr     `json:"value"`
	Counter  uint32 `json:"counter"`
}

type StorageRead struct {
	Contract Fr     `json:"contract"`
	Slot     Fr     `json:"slot"`
	Value    Fr     `json:"value"`
	Exists   bool   `json:"exists"`
	Counter  uint32 `json:"counter"`
}

type NoteHash struct {
	Contract Fr     `json:"contract"`
	Value    Fr     `json:"value"`
	Counter  uint32 `json:"counter"`
}

type NoteHashCheck struct {
	Contract  Fr     `json:"contract"`
	NoteHash  Fr     `json:"noteHash"`
	LeafIndex uint64 `json:"leafIndex"`
	Exists    bool   `json:"exists"`
	Counter   uint32 `json:"counter"`
}

type Nullifier struct {
	Contract Fr     `json:"contract"`
	Value    Fr     `json:"value"`
	Counter  uint32 `json:"counter"`
}

type NullifierCheck struct {
	Contract  Fr     `json:"contract"`
	Nullifier Fr     `json:"nullifier"`
	Exists    bool   `json:"exists"`
	Counter   uint32 `json:"counter"`
}

type UnencryptedLog struct {
	Contract Fr     `json:"contract"`
	Fields   []Fr   `json:"fields"`
	Counter  uint32 `json:"counter"`
}

type L2ToL1Message struct {
	Contract  Fr     `json:"contract"`
	Recipient Fr     `json:"recipient"`
	Content   Fr     `json:"content"`
	Counter   uint32 `json:"counter"`
}

// Effects is everything a successful top-level call wants committed, in
// execution order.
type Effects struct {
	StorageWrites     []StorageWrite   `json:"storageWrites"`
	StorageReads      []StorageRead    `json:"storageReads"`
	NoteHashes        []NoteHash       `json:"noteHashes"`
	NoteHashChecks    []NoteHashCheck  `json:"noteHashChecks"`
	Nullifiers        []Nullifier      `json:"nullifiers"`
	NullifierChecks   []NullifierCheck `json:"nullifierChecks"`
	UnencryptedLogs   []UnencryptedLog `json:"unencryptedLogs"`
	L2ToL1Messages    []L2ToL1Message  `json:"l2ToL1Messages"`
	SideEffectCounter uint32           `json:"sideEffectCounter"`
}

type slotKey struct {
	contract Fr
	slot     Fr
}

// FinalStorage collapses StorageWrites to the last value per slot.
func (e *Effects) FinalStorage() map[[2]Fr]Fr {
	out := make(map[[2]Fr]Fr, len(e.StorageWrites))
	for _, w := range e.StorageWrites {
		out[[2]Fr{w.Contract, w.Slot}] = w.Value
	}
	return out
}
