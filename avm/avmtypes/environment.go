package avmtypes

// GlobalVariables are fixed for the whole transaction.
type GlobalVariables struct {
	ChainID     Fr     `json:"chainId"`
	Version     Fr     `json:"version"`
	BlockNumber uint32 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`
	FeePerL2Gas Fr     `json:"feePerL2Gas"`
	FeePerDAGas Fr     `json:"feePerDaGas"`
}

// Environment is the read-only view of a call frame. It is never mutated
// after construction; nested calls derive a new one.
type Environment struct {
	Address          Fr              `json:"address"`
	Sender           Fr              `json:"sender"`
	Origin           Fr              `json:"origin"`
	FunctionSelector Fr              `json:"functionSelector"`
	TransactionFee   Fr              `json:"transactionFee"`
	Calldata         []Fr            `json:"calldata"`
	IsStaticCall     bool            `json:"isStaticCall"`
	Globals          GlobalVariables `json:"globals"`
}

// DeriveForNestedCall builds the callee environment. The caller becomes the
// sender and a static caller can only make static calls.
func (e *Environment) DeriveForNestedCall(target Fr, calldata []Fr, isStaticCall bool) *Environment {
	nested := &Environment{
		Address:        target,
		Sender:         e.Address,
		Origin:         e.Origin,
		TransactionFee: e.TransactionFee,
		Calldata:       append([]Fr(nil), calldata...),
		IsStaticCall:   e.IsStaticCall || isStaticCall,
		Globals:        e.Globals,
	}
	if len(calldata) > 0 {
		nested.FunctionSelector = calldata[0]
	}
	return nested
}
