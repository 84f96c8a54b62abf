package program

// OperandType is the wire encoding of one operand. Integers are big-endian.
type OperandType int

const (
	OperandUint8 OperandType = iota
	OperandUint16
	OperandUint32
	OperandUint64
	OperandUint128
	OperandFF  // 32-byte field element
	OperandTag // 1-byte type tag
)

// Size is the encoded width in bytes.
func (t OperandType) Size() int {
	switch t {
	case OperandUint8, OperandTag:
		return 1
	case OperandUint16:
		return 2
	case OperandUint32:
		return 4
	case OperandUint64:
		return 8
	case OperandUint128:
		return 16
	case OperandFF:
		return 32
	}
	return 0
}

// Argument represents a single instruction operand
type Argument struct {
	Name string
	Type OperandType
}

// InstructionSpec is the wire format and constructor of one opcode.
type InstructionSpec struct {
	Opcode Opcode
	Name   string
	Args   []Argument
	Format string
	New    func(op Opcode) Instruction
}

// Size is the encoded length including the opcode byte.
func (s *InstructionSpec) Size() int {
	n := 1
	for _, a := range s.Args {
		n += a.Type.Size()
	}
	return n
}

// Global instruction specifications map
var InstrSpecs = make(map[Opcode]*InstructionSpec)

func U8(name string) Argument   { return Argument{Name: name, Type: OperandUint8} }
func U16(name string) Argument  { return Argument{Name: name, Type: OperandUint16} }
func U32(name string) Argument  { return Argument{Name: name, Type: OperandUint32} }
func U64(name string) Argument  { return Argument{Name: name, Type: OperandUint64} }
func U128(name string) Argument { return Argument{Name: name, Type: OperandUint128} }
func FF(name string) Argument   { return Argument{Name: name, Type: OperandFF} }
func TagArg(name string) Argument {
	return Argument{Name: name, Type: OperandTag}
}

// InstructionBuilder provides a fluent interface for defining instructions
type InstructionBuilder struct {
	spec *InstructionSpec
}

// RegisterInstr creates a new instruction specification with the given opcode and name
func RegisterInstr(opcode Opcode, name string) *InstructionBuilder {
	spec := &InstructionSpec{
		Opcode: opcode,
		Name:   name,
	}
	InstrSpecs[opcode] = spec
	return &InstructionBuilder{spec: spec}
}

func (b *InstructionBuilder) Args(args ...Argument) *InstructionBuilder {
	b.spec.Args = args
	return b
}

func (b *InstructionBuilder) Format(format string) *InstructionBuilder {
	b.spec.Format = format
	return b
}

func (b *InstructionBuilder) New(fn func(op Opcode) Instruction) *InstructionBuilder {
	b.spec.New = fn
	return b
}

func three(off func(string) Argument) []Argument {
	return []Argument{U8("indirect"), off("aOffset"), off("bOffset"), off("dstOffset")}
}

func registerBinary(op8, op16 Opcode, name, sym string, fn func(op Opcode) Instruction) {
	format := "[{dstOffset}] = [{aOffset}] " + sym + " [{bOffset}]"
	RegisterInstr(op8, name+"_8").Args(three(U8)...).Format(format).New(fn)
	RegisterInstr(op16, name+"_16").Args(three(U16)...).Format(format).New(fn)
}

func registerGetter(op Opcode, name string) {
	RegisterInstr(op, name).
		Args(U8("indirect"), U16("dstOffset")).
		Format("[{dstOffset}] = " + name).
		New(func(op Opcode) Instruction { return &EnvGetter{base: base{op}} })
}

func registerSet(op Opcode, name string, dst func(string) Argument, value Argument) {
	RegisterInstr(op, name).
		Args(U8("indirect"), dst("dstOffset"), TagArg("inTag"), value).
		Format("[{dstOffset}] = {inTag}({value})").
		New(func(op Opcode) Instruction { return &Set{base: base{op}} })
}

// Initialize all instruction definitions using the DSL
func init() {
	// Compute
	registerBinary(ADD_8, ADD_16, "ADD", "+", func(op Opcode) Instruction { return &Add{ThreeOperand{base: base{op}}} })
	registerBinary(SUB_8, SUB_16, "SUB", "-", func(op Opcode) Instruction { return &Sub{ThreeOperand{base: base{op}}} })
	registerBinary(MUL_8, MUL_16, "MUL", "*", func(op Opcode) Instruction { return &Mul{ThreeOperand{base: base{op}}} })
	registerBinary(DIV_8, DIV_16, "DIV", "/", func(op Opcode) Instruction { return &Div{ThreeOperand{base: base{op}}} })
	registerBinary(FDIV_8, FDIV_16, "FDIV", "/f", func(op Opcode) Instruction { return &FDiv{ThreeOperand{base: base{op}}} })
	registerBinary(EQ_8, EQ_16, "EQ", "==", func(op Opcode) Instruction { return &Eq{ThreeOperand{base: base{op}}} })
	registerBinary(LT_8, LT_16, "LT", "<", func(op Opcode) Instruction { return &Lt{ThreeOperand{base: base{op}}} })
	registerBinary(LTE_8, LTE_16, "LTE", "<=", func(op Opcode) Instruction { return &Lte{ThreeOperand{base: base{op}}} })
	registerBinary(AND_8, AND_16, "AND", "&", func(op Opcode) Instruction { return &And{ThreeOperand{base: base{op}}} })
	registerBinary(OR_8, OR_16, "OR", "|", func(op Opcode) Instruction { return &Or{ThreeOperand{base: base{op}}} })
	registerBinary(XOR_8, XOR_16, "XOR", "^", func(op Opcode) Instruction { return &Xor{ThreeOperand{base: base{op}}} })
	registerBinary(SHL_8, SHL_16, "SHL", "<<", func(op Opcode) Instruction { return &Shl{ThreeOperand{base: base{op}}} })
	registerBinary(SHR_8, SHR_16, "SHR", ">>", func(op Opcode) Instruction { return &Shr{ThreeOperand{base: base{op}}} })

	newNot := func(op Opcode) Instruction { return &Not{base: base{op}} }
	RegisterInstr(NOT_8, "NOT_8").Args(U8("indirect"), U8("aOffset"), U8("dstOffset")).Format("[{dstOffset}] = ~[{aOffset}]").New(newNot)
	RegisterInstr(NOT_16, "NOT_16").Args(U8("indirect"), U16("aOffset"), U16("dstOffset")).Format("[{dstOffset}] = ~[{aOffset}]").New(newNot)

	newAddImm := func(op Opcode) Instruction { return &AddImm{base: base{op}} }
	RegisterInstr(ADD_IMM_8, "ADD_IMM_8").Args(U8("indirect"), U8("aOffset"), U8("immediate"), U8("dstOffset")).Format("[{dstOffset}] = [{aOffset}] + {immediate}").New(newAddImm)
	RegisterInstr(ADD_IMM_16, "ADD_IMM_16").Args(U8("indirect"), U16("aOffset"), U16("immediate"), U16("dstOffset")).Format("[{dstOffset}] = [{aOffset}] + {immediate}").New(newAddImm)

	newCast := func(op Opcode) Instruction { return &Cast{base: base{op}} }
	RegisterInstr(CAST_8, "CAST_8").Args(U8("indirect"), U8("aOffset"), U8("dstOffset"), TagArg("dstTag")).Format("[{dstOffset}] = ({dstTag})[{aOffset}]").New(newCast)
	RegisterInstr(CAST_16, "CAST_16").Args(U8("indirect"), U16("aOffset"), U16("dstOffset"), TagArg("dstTag")).Format("[{dstOffset}] = ({dstTag})[{aOffset}]").New(newCast)

	// Execution environment
	for op, name := range map[Opcode]string{
		ADDRESS: "ADDRESS", SENDER: "SENDER", ORIGIN: "ORIGIN", FUNCTIONSELECTOR: "FUNCTIONSELECTOR",
		TRANSACTIONFEE: "TRANSACTIONFEE", CHAINID: "CHAINID", VERSION: "VERSION", BLOCKNUMBER: "BLOCKNUMBER",
		TIMESTAMP: "TIMESTAMP", FEEPERL2GAS: "FEEPERL2GAS", FEEPERDAGAS: "FEEPERDAGAS",
		ISSTATICCALL: "ISSTATICCALL", L2GASLEFT: "L2GASLEFT", DAGASLEFT: "DAGASLEFT",
	} {
		registerGetter(op, name)
	}

	// Calldata and returndata
	RegisterInstr(CALLDATACOPY, "CALLDATACOPY").
		Args(U8("indirect"), U16("cdStartOffset"), U16("copySizeOffset"), U16("dstOffset")).
		Format("[{dstOffset}..] = calldata[[{cdStartOffset}] +[{copySizeOffset}]]").
		New(func(op Opcode) Instruction { return &CalldataCopy{base: base{op}} })
	RegisterInstr(RETURNDATASIZE, "RETURNDATASIZE").
		Args(U8("indirect"), U16("dstOffset")).
		Format("[{dstOffset}] = len(returndata)").
		New(func(op Opcode) Instruction { return &ReturndataSize{base: base{op}} })
	RegisterInstr(RETURNDATACOPY, "RETURNDATACOPY").
		Args(U8("indirect"), U16("rdStartOffset"), U16("copySizeOffset"), U16("dstOffset")).
		Format("[{dstOffset}..] = returndata[[{rdStartOffset}] +[{copySizeOffset}]]").
		New(func(op Opcode) Instruction { return &ReturndataCopy{base: base{op}} })
	RegisterInstr(SUCCESSCOPY, "SUCCESSCOPY").
		Args(U8("indirect"), U16("dstOffset")).
		Format("[{dstOffset}] = success").
		New(func(op Opcode) Instruction { return &SuccessCopy{base: base{op}} })

	// Control flow
	RegisterInstr(JUMP_32, "JUMP_32").Args(U32("loc")).Format("jump {loc}").
		New(func(op Opcode) Instruction { return &Jump{base: base{op}} })
	RegisterInstr(JUMPI_32, "JUMPI_32").Args(U8("indirect"), U16("condOffset"), U32("loc")).Format("jump {loc} if [{condOffset}]").
		New(func(op Opcode) Instruction { return &JumpI{base: base{op}} })
	RegisterInstr(INTERNALCALL, "INTERNALCALL").Args(U32("loc")).Format("icall {loc}").
		New(func(op Opcode) Instruction { return &InternalCall{base: base{op}} })
	RegisterInstr(INTERNALRETURN, "INTERNALRETURN").Args().Format("iret").
		New(func(op Opcode) Instruction { return &InternalReturn{base: base{op}} })

	// Memory
	registerSet(SET_8, "SET_8", U8, U8("value"))
	registerSet(SET_16, "SET_16", U16, U16("value"))
	registerSet(SET_32, "SET_32", U16, U32("value"))
	registerSet(SET_64, "SET_64", U16, U64("value"))
	registerSet(SET_128, "SET_128", U16, U128("value"))
	registerSet(SET_FF, "SET_FF", U16, FF("value"))
	newMov := func(op Opcode) Instruction { return &Mov{base: base{op}} }
	RegisterInstr(MOV_8, "MOV_8").Args(U8("indirect"), U8("srcOffset"), U8("dstOffset")).Format("[{dstOffset}] = [{srcOffset}]").New(newMov)
	RegisterInstr(MOV_16, "MOV_16").Args(U8("indirect"), U16("srcOffset"), U16("dstOffset")).Format("[{dstOffset}] = [{srcOffset}]").New(newMov)

	// World state
	RegisterInstr(SLOAD, "SLOAD").Args(U8("indirect"), U16("slotOffset"), U16("dstOffset")).
		Format("[{dstOffset}] = storage[[{slotOffset}]]").
		New(func(op Opcode) Instruction { return &SLoad{base: base{op}} })
	RegisterInstr(SSTORE, "SSTORE").Args(U8("indirect"), U16("srcOffset"), U16("slotOffset")).
		Format("storage[[{slotOffset}]] = [{srcOffset}]").
		New(func(op Opcode) Instruction { return &SStore{base: base{op}} })
	RegisterInstr(NOTEHASHEXISTS, "NOTEHASHEXISTS").Args(U8("indirect"), U16("noteHashOffset"), U16("leafIndexOffset"), U16("existsOffset")).
		Format("[{existsOffset}] = notehash [{noteHashOffset}] at [{leafIndexOffset}]").
		New(func(op Opcode) Instruction { return &NoteHashExists{base: base{op}} })
	RegisterInstr(EMITNOTEHASH, "EMITNOTEHASH").Args(U8("indirect"), U16("noteHashOffset")).
		Format("emit notehash [{noteHashOffset}]").
		New(func(op Opcode) Instruction { return &EmitNoteHash{base: base{op}} })
	RegisterInstr(NULLIFIEREXISTS, "NULLIFIEREXISTS").Args(U8("indirect"), U16("nullifierOffset"), U16("addressOffset"), U16("existsOffset")).
		Format("[{existsOffset}] = nullifier [{nullifierOffset}] of [{addressOffset}]").
		New(func(op Opcode) Instruction { return &NullifierExists{base: base{op}} })
	RegisterInstr(EMITNULLIFIER, "EMITNULLIFIER").Args(U8("indirect"), U16("nullifierOffset")).
		Format("emit nullifier [{nullifierOffset}]").
		New(func(op Opcode) Instruction { return &EmitNullifier{base: base{op}} })
	RegisterInstr(EMITUNENCRYPTEDLOG, "EMITUNENCRYPTEDLOG").Args(U8("indirect"), U16("logOffset"), U16("logSizeOffset")).
		Format("emit log [{logOffset}] +[{logSizeOffset}]").
		New(func(op Opcode) Instruction { return &EmitUnencryptedLog{base: base{op}} })
	RegisterInstr(SENDL2TOL1MSG, "SENDL2TOL1MSG").Args(U8("indirect"), U16("recipientOffset"), U16("contentOffset")).
		Format("send [{contentOffset}] to l1 [{recipientOffset}]").
		New(func(op Opcode) Instruction { return &SendL2ToL1Message{base: base{op}} })

	// External calls
	callArgs := []Argument{U16("indirect"), U16("gasOffset"), U16("addrOffset"), U16("argsOffset"),
		U16("argsSizeOffset"), U16("retOffset"), U16("retSize"), U16("successOffset")}
	newCall := func(op Opcode) Instruction { return &Call{base: base{op}} }
	RegisterInstr(CALL, "CALL").Args(callArgs...).
		Format("[{successOffset}] = call [{addrOffset}] gas=[{gasOffset}] args=[{argsOffset}]+[{argsSizeOffset}] ret=[{retOffset}]+{retSize}").
		New(newCall)
	RegisterInstr(STATICCALL, "STATICCALL").Args(callArgs...).
		Format("[{successOffset}] = staticcall [{addrOffset}] gas=[{gasOffset}] args=[{argsOffset}]+[{argsSizeOffset}] ret=[{retOffset}]+{retSize}").
		New(newCall)
	RegisterInstr(RETURN, "RETURN").Args(U8("indirect"), U16("returnOffset"), U16("returnSizeOffset")).
		Format("return [{returnOffset}] +[{returnSizeOffset}]").
		New(func(op Opcode) Instruction { return &Return{base: base{op}} })
	newRevert := func(op Opcode) Instruction { return &Revert{base: base{op}} }
	RegisterInstr(REVERT_8, "REVERT_8").Args(U8("indirect"), U8("returnOffset"), U8("returnSizeOffset")).
		Format("revert [{returnOffset}] +[{returnSizeOffset}]").New(newRevert)
	RegisterInstr(REVERT_16, "REVERT_16").Args(U8("indirect"), U16("returnOffset"), U16("returnSizeOffset")).
		Format("revert [{returnOffset}] +[{returnSizeOffset}]").New(newRevert)

	// Gadgets
	RegisterInstr(KECCAK, "KECCAK").Args(U8("indirect"), U16("dstOffset"), U16("messageOffset"), U16("messageSizeOffset")).
		Format("[{dstOffset}..+32] = keccak([{messageOffset}] +[{messageSizeOffset}])").
		New(func(op Opcode) Instruction { return &Keccak{base: base{op}} })
	RegisterInstr(POSEIDON2, "POSEIDON2").Args(U8("indirect"), U16("inputOffset"), U16("outputOffset")).
		Format("[{outputOffset}..+4] = poseidon2([{inputOffset}..+4])").
		New(func(op Opcode) Instruction { return &Poseidon2{base: base{op}} })
}
