package journal

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/log"
)

// frame holds the tentative effects of one call frame.
type frame struct {
	storage    map[slotKey]Fr
	nullifiers map[slotKey]struct{}
	effects    Effects
}

func newFrame() *frame {
	return &frame{
		storage:    make(map[slotKey]Fr),
		nullifiers: make(map[slotKey]struct{}),
	}
}

// Journal is the stack of per-frame effect sets for one call tree. The
// active frame is the top of the stack. Reads look through every pending
// frame, newest first, before reaching the host.
type Journal struct {
	host    WorldStateDB
	frames  []*frame
	counter uint32
}

func New(host WorldStateDB) *Journal {
	return &Journal{host: host, frames: []*frame{newFrame()}}
}

func (j *Journal) top() *frame {
	return j.frames[len(j.frames)-1]
}

// Depth is the number of frames on the stack; a fresh journal has depth 1.
func (j *Journal) Depth() int {
	return len(j.frames)
}

// SideEffectCounter only ever grows. Rejected frames keep the counter
// values they consumed.
func (j *Journal) SideEffectCounter() uint32 {
	return j.counter
}

func (j *Journal) next() uint32 {
	c := j.counter
	j.counter++
	return c
}

// Fork opens a frame for a nested call.
func (j *Journal) Fork() {
	j.frames = append(j.frames, newFrame())
	log.Trace(log.Journal, "fork", "depth", len(j.frames))
}

// Merge folds the active frame into its parent.
func (j *Journal) Merge() error {
	if len(j.frames) < 2 {
		return fmt.Errorf("journal merge at depth %d", len(j.frames))
	}
	child := j.top()
	j.frames = j.frames[:len(j.frames)-1]
	parent := j.top()
	for k, v := range child.storage {
		parent.storage[k] = v
	}
	for k := range child.nullifiers {
		parent.nullifiers[k] = struct{}{}
	}
	pe, ce := &parent.effects, &child.effects
	pe.StorageWrites = append(pe.StorageWrites, ce.StorageWrites...)
	pe.StorageReads = append(pe.StorageReads, ce.StorageReads...)
	pe.NoteHashes = append(pe.NoteHashes, ce.NoteHashes...)
	pe.NoteHashChecks = append(pe.NoteHashChecks, ce.NoteHashChecks...)
	pe.Nullifiers = append(pe.Nullifiers, ce.Nullifiers...)
	pe.NullifierChecks = append(pe.NullifierChecks, ce.NullifierChecks...)
	pe.UnencryptedLogs = append(pe.UnencryptedLogs, ce.UnencryptedLogs...)
	pe.L2ToL1Messages = append(pe.L2ToL1Messages, ce.L2ToL1Messages...)
	log.Trace(log.Journal, "merge", "depth", len(j.frames), "writes", len(ce.StorageWrites))
	return nil
}

// Reject drops the active frame and everything it recorded.
func (j *Journal) Reject() error {
	if len(j.frames) < 2 {
		return fmt.Errorf("journal reject at depth %d", len(j.frames))
	}
	dropped := j.top()
	j.frames = j.frames[:len(j.frames)-1]
	log.Trace(log.Journal, "reject", "depth", len(j.frames), "writes", len(dropped.effects.StorageWrites))
	return nil
}

// Effects returns the root frame's effects. Only meaningful once every
// nested frame has been merged or rejected.
func (j *Journal) Effects() *Effects {
	root := j.frames[0].effects
	root.SideEffectCounter = j.counter
	return &root
}

func hostErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", avmerrors.ErrWorldState, op, err)
}

// ReadStorage returns the newest pending write to the slot, or the host value.
func (j *Journal) ReadStorage(contract, slot Fr) (Fr, error) {
	key := slotKey{contract, slot}
	var (
		value  Fr
		exists bool
		found  bool
	)
	for i := len(j.frames) - 1; i >= 0; i-- {
		if v, ok := j.frames[i].storage[key]; ok {
			value, exists, found = v, true, true
			break
		}
	}
	if !found {
		var err error
		value, exists, err = j.host.StorageRead(contract, slot)
		if err != nil {
			return Fr{}, hostErr("storage read", err)
		}
	}
	t := j.top()
	t.effects.StorageReads = append(t.effects.StorageReads, StorageRead{
		Contract: contract, Slot: slot, Value: value, Exists: exists, Counter: j.next(),
	})
	return value, nil
}

func (j *Journal) WriteStorage(contract, slot, value Fr) {
	t := j.top()
	t.storage[slotKey{contract, slot}] = value
	t.effects.StorageWrites = append(t.effects.StorageWrites, StorageWrite{
		Contract: contract, Slot: slot, Value: value, Counter: j.next(),
	})
}

func (j *Journal) nullifierPending(key slotKey) bool {
	for i := len(j.frames) - 1; i >= 0; i-- {
		if _, ok := j.frames[i].nullifiers[key]; ok {
			return true
		}
	}
	return false
}

func (j *Journal) nullifierExists(contract, nullifier Fr) (bool, error) {
	if j.nullifierPending(slotKey{contract, nullifier}) {
		return true, nil
	}
	exists, err := j.host.CheckNullifierExists(contract, nullifier)
	if err != nil {
		return false, hostErr("nullifier check", err)
	}
	return exists, nil
}

// CheckNullifierExists sees nullifiers emitted by pending frames as well as committed ones.
func (j *Journal) CheckNullifierExists(contract, nullifier Fr) (bool, error) {
	exists, err := j.nullifierExists(contract, nullifier)
	if err != nil {
		return false, err
	}
	t := j.top()
	t.effects.NullifierChecks = append(t.effects.NullifierChecks, NullifierCheck{
		Contract: contract, Nullifier: nullifier, Exists: exists, Counter: j.next(),
	})
	return exists, nil
}

// EmitNullifier fails with ErrNullifierCollision if the nullifier is already
// pending or committed.
func (j *Journal) EmitNullifier(contract, nullifier Fr) error {
	exists, err := j.nullifierExists(contract, nullifier)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: contract %s nullifier %s", avmerrors.ErrNullifierCollision, contract.String(), nullifier.String())
	}
	t := j.top()
	t.nullifiers[slotKey{contract, nullifier}] = struct{}{}
	t.effects.Nullifiers = append(t.effects.Nullifiers, Nullifier{Contract: contract, Value: nullifier, Counter: j.next()})
	return nil
}

// CheckNoteHashExists only consults committed state: pending note hashes
// have no leaf index yet.
func (j *Journal) CheckNoteHashExists(contract, noteHash Fr, leafIndex uint64) (bool, error) {
	exists, err := j.host.CheckNoteHashExists(contract, noteHash, leafIndex)
	if err != nil {
		return false, hostErr("note hash check", err)
	}
	t := j.top()
	t.effects.NoteHashChecks = append(t.effects.NoteHashChecks, NoteHashCheck{
		Contract: contract, NoteHash: noteHash, LeafIndex: leafIndex, Exists: exists, Counter: j.next(),
	})
	return exists, nil
}

func (j *Journal) EmitNoteHash(contract, noteHash Fr) {
	t := j.top()
	t.effects.NoteHashes = append(t.effects.NoteHashes, NoteHash{Contract: contract, Value: noteHash, Counter: j.next()})
}

func (j *Journal) EmitUnencryptedLog(contract Fr, fields []Fr) {
	t := j.top()
	t.effects.UnencryptedLogs = append(t.effects.UnencryptedLogs, UnencryptedLog{
		Contract: contract, Fields: append([]Fr(nil), fields...), Counter: j.next(),
	})
}

func (j *Journal) SendL2ToL1Message(contract, recipient, content Fr) {
	t := j.top()
	t.effects.L2ToL1Messages = append(t.effects.L2ToL1Messages, L2ToL1Message{
		Contract: contract, Recipient: recipient, Content: content, Counter: j.next(),
	})
}

// GetBytecode is a pass-through to the host; bytecode is never journaled.
func (j *Journal) GetBytecode(contract Fr) ([]byte, bool, error) {
	code, ok, err := j.host.GetBytecode(contract)
	if err != nil {
		return nil, false, hostErr("bytecode", err)
	}
	return code, ok, nil
}
