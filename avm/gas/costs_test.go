package gas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/program"
)

func TestBaseCosts(t *testing.T) {
	assert.Equal(t, avmtypes.NewGas(DefaultBaseL2Gas, 0), BaseCost(program.ADD_8))
	assert.Equal(t, BaseCost(program.SET_8), BaseCost(program.ADD_IMM_8))
	assert.Equal(t, BaseCost(program.ADD_8), BaseCost(program.ADD_16))
	assert.Equal(t, uint64(512), BaseCost(program.SSTORE).DA)
	for _, op := range program.AllOpcodes() {
		assert.NotZero(t, BaseCost(op).L2, op.String())
	}
}

func TestDynamicCost(t *testing.T) {
	assert.False(t, HasDynamicCost(program.ADD_8))
	assert.Equal(t, BaseCost(program.ADD_8), Cost(program.ADD_8, 100))

	assert.True(t, HasDynamicCost(program.EMITUNENCRYPTEDLOG))
	assert.Equal(t, avmtypes.NewGas(50+3*10, 3*32), Cost(program.EMITUNENCRYPTEDLOG, 3))
	assert.Equal(t, avmtypes.NewGas(10+4*3, 0), Cost(program.CALLDATACOPY, 4))
}

func TestMemoryCostIsL2Only(t *testing.T) {
	g := MemoryCost(2, 1, 1)
	assert.Equal(t, uint64(2*MemoryReadL2Gas+MemoryWriteL2Gas+IndirectReadPenaltyL2Gas), g.L2)
	assert.Zero(t, g.DA)
	assert.True(t, MemoryCost(0, 0, 0).IsEmpty())
}
