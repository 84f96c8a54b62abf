package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/journal"
	"github.com/colorfulnotion/avm/avm/program"
	"github.com/colorfulnotion/avm/common"
	"github.com/colorfulnotion/avm/log"
)

type Fr = avmtypes.Fr

// Key layout. Field elements are 32 bytes big-endian.
//
//	s | contract | slot             -> value
//	n | contract | nullifier        -> {}
//	h | contract | noteHash | index -> {}
//	c | contract                    -> code hash
//	k | code hash                   -> bytecode
//	m | noteHashCount               -> uint64
const (
	prefixStorage   = 's'
	prefixNullifier = 'n'
	prefixNoteHash  = 'h'
	prefixContract  = 'c'
	prefixCode      = 'k'
	prefixMeta      = 'm'
)

var noteHashCountKey = []byte{prefixMeta, 'n', 'h', 'c'}

func key(prefix byte, parts ...Fr) []byte {
	k := make([]byte, 1, 1+32*len(parts))
	k[0] = prefix
	for i := range parts {
		b := parts[i].Bytes()
		k = append(k, b[:]...)
	}
	return k
}

func noteHashKey(contract, noteHash Fr, leafIndex uint64) []byte {
	return binary.BigEndian.AppendUint64(key(prefixNoteHash, contract, noteHash), leafIndex)
}

func codeKey(h common.Hash) []byte {
	return append([]byte{prefixCode}, h.Bytes()...)
}

// WorldState is the committed public state kept in LevelDB. It serves the
// journal's reads and absorbs the effects of successful top-level calls.
type WorldState struct {
	store *PersistenceStore
	// serializes Commit so note hash leaf indices are assigned in order
	commitMu sync.Mutex
}

func NewWorldState(store *PersistenceStore) *WorldState {
	return &WorldState{store: store}
}

// OpenWorldState opens the database at path; an empty path is in-memory.
func OpenWorldState(path string) (*WorldState, error) {
	store, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	return NewWorldState(store), nil
}

func (ws *WorldState) Close() error {
	return ws.store.Close()
}

func (ws *WorldState) StorageRead(contract, slot Fr) (Fr, bool, error) {
	data, ok, err := ws.store.Get(key(prefixStorage, contract, slot))
	if err != nil || !ok {
		return Fr{}, false, err
	}
	var v Fr
	v.SetBytes(data)
	return v, true, nil
}

func (ws *WorldState) CheckNullifierExists(contract, nullifier Fr) (bool, error) {
	return ws.store.Has(key(prefixNullifier, contract, nullifier))
}

func (ws *WorldState) CheckNoteHashExists(contract, noteHash Fr, leafIndex uint64) (bool, error) {
	return ws.store.Has(noteHashKey(contract, noteHash, leafIndex))
}

func (ws *WorldState) GetBytecode(contract Fr) ([]byte, bool, error) {
	h, ok, err := ws.store.Get(key(prefixContract, contract))
	if err != nil || !ok {
		return nil, false, err
	}
	code, ok, err := ws.store.Get(codeKey(common.BytesToHash(h)))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("contract %s points at missing code %x", avmtypes.FrHex(&contract), h)
	}
	return code, true, nil
}

// DeployContract stores bytecode under its hash and binds address to it.
// Bytecode that does not decode is refused.
func (ws *WorldState) DeployContract(address Fr, bytecode []byte) (common.Hash, error) {
	if _, err := program.DecodeAll(bytecode); err != nil {
		return common.Hash{}, fmt.Errorf("deploy %s: %w", avmtypes.FrHex(&address), err)
	}
	h := common.Blake2Hash(bytecode)
	batch := new(leveldb.Batch)
	batch.Put(codeKey(h), bytecode)
	batch.Put(key(prefixContract, address), h.Bytes())
	if err := ws.store.Write(batch); err != nil {
		return common.Hash{}, err
	}
	log.Info(log.Storage, "contract deployed", "address", avmtypes.FrHex(&address), "codeHash", h.String_short(), "size", len(bytecode))
	return h, nil
}

// NoteHashCount is the number of note hashes committed so far; it is also
// the leaf index the next one receives.
func (ws *WorldState) NoteHashCount() (uint64, error) {
	data, ok, err := ws.store.Get(noteHashCountKey)
	if err != nil || !ok {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

// Commit writes the effects of a successful top-level call in one batch.
// Note hashes are appended with consecutive leaf indices. Logs and L2 to L1
// messages are outputs for the host and are not persisted here.
func (ws *WorldState) Commit(eff *journal.Effects) error {
	ws.commitMu.Lock()
	defer ws.commitMu.Unlock()

	next, err := ws.NoteHashCount()
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for k, v := range eff.FinalStorage() {
		b := v.Bytes()
		batch.Put(key(prefixStorage, k[0], k[1]), b[:])
	}
	for _, n := range eff.Nullifiers {
		batch.Put(key(prefixNullifier, n.Contract, n.Value), []byte{1})
	}
	for _, nh := range eff.NoteHashes {
		batch.Put(noteHashKey(nh.Contract, nh.Value, next), []byte{1})
		next++
	}
	batch.Put(noteHashCountKey, binary.BigEndian.AppendUint64(nil, next))
	if err := ws.store.Write(batch); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debug(log.Storage, "effects committed", "writes", len(eff.StorageWrites), "nullifiers", len(eff.Nullifiers), "noteHashes", len(eff.NoteHashes))
	return nil
}

// StorageOf lists the committed slots of one contract.
func (ws *WorldState) StorageOf(contract Fr) (map[Fr]Fr, error) {
	pairs, err := ws.store.GetWithPrefix(key(prefixStorage, contract))
	if err != nil {
		return nil, err
	}
	out := make(map[Fr]Fr, len(pairs))
	for _, kv := range pairs {
		var slot, value Fr
		slot.SetBytes(kv[0][1+32:])
		value.SetBytes(kv[1])
		out[slot] = value
	}
	return out, nil
}
