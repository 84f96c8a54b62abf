package journal

import "sync"

// MockWorldState is an in-memory WorldStateDB for tests and dry runs.
type MockWorldState struct {
	mu         sync.RWMutex
	storage    map[slotKey]Fr
	nullifiers map[slotKey]struct{}
	noteHashes map[noteKey]struct{}
	bytecode   map[Fr][]byte
	// Fail, if set, is returned by every read.
	Fail error
}

type noteKey struct {
	contract  Fr
	noteHash  Fr
	leafIndex uint64
}

func NewMockWorldState() *MockWorldState {
	return &MockWorldState{
		storage:    make(map[slotKey]Fr),
		nullifiers: make(map[slotKey]struct{}),
		noteHashes: make(map[noteKey]struct{}),
		bytecode:   make(map[Fr][]byte),
	}
}

func (m *MockWorldState) SetStorage(contract, slot, value Fr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage[slotKey{contract, slot}] = value
}

func (m *MockWorldState) AddNullifier(contract, nullifier Fr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nullifiers[slotKey{contract, nullifier}] = struct{}{}
}

func (m *MockWorldState) AddNoteHash(contract, noteHash Fr, leafIndex uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noteHashes[noteKey{contract, noteHash, leafIndex}] = struct{}{}
}

func (m *MockWorldState) SetBytecode(contract Fr, code []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytecode[contract] = code
}

func (m *MockWorldState) StorageRead(contract, slot Fr) (Fr, bool, error) {
	if m.Fail != nil {
		return Fr{}, false, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.storage[slotKey{contract, slot}]
	return v, ok, nil
}

func (m *MockWorldState) CheckNullifierExists(contract, nullifier Fr) (bool, error) {
	if m.Fail != nil {
		return false, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nullifiers[slotKey{contract, nullifier}]
	return ok, nil
}

func (m *MockWorldState) CheckNoteHashExists(contract, noteHash Fr, leafIndex uint64) (bool, error) {
	if m.Fail != nil {
		return false, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.noteHashes[noteKey{contract, noteHash, leafIndex}]
	return ok, nil
}

func (m *MockWorldState) GetBytecode(contract Fr) ([]byte, bool, error) {
	if m.Fail != nil {
		return nil, false, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.bytecode[contract]
	return code, ok, nil
}
