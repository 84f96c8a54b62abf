package avm

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/colorfulnotion/avm/avm/program"
	"github.com/colorfulnotion/avm/common"
)

// DefaultProgramCacheSize is the number of decoded programs kept.
const DefaultProgramCacheSize = 256

// ProgramCache memoizes DecodeAll by bytecode hash. Contracts are called
// repeatedly within and across transactions; decoding once is enough.
type ProgramCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	hits  uint64
	miss  uint64
}

func NewProgramCache(size int) *ProgramCache {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	return &ProgramCache{cache: lru.New(size)}
}

// Get returns the decoded program. Decoding errors are not cached.
func (p *ProgramCache) Get(bytecode []byte) ([]program.Instruction, error) {
	key := common.Blake2Hash(bytecode)
	p.mu.Lock()
	if v, ok := p.cache.Get(key); ok {
		p.hits++
		p.mu.Unlock()
		return v.([]program.Instruction), nil
	}
	p.miss++
	p.mu.Unlock()

	instrs, err := program.DecodeAll(bytecode)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.cache.Add(key, instrs)
	p.mu.Unlock()
	return instrs, nil
}

// Stats returns cache hits and misses.
func (p *ProgramCache) Stats() (hits, misses uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.miss
}
