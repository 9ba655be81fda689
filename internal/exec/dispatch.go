package exec

import (
	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/image"
)

type handler func(*instr) (Outcome, error)

// handlers maps every opcode in image.Table to its executor. The init
// check below keeps the two in lockstep: adding an opcode to the table
// without a handler here is a startup panic, not a runtime surprise.
var handlers = map[image.Opcode]handler{
	image.OpNop: execNop,

	image.OpAddRegReg:  execAddRegReg,
	image.OpAddRegNum:  execAddRegNum,
	image.OpAddRegAReg: execAddRegAReg,
	image.OpSubRegReg:  execSubRegReg,
	image.OpSubRegNum:  execSubRegNum,
	image.OpSubRegAReg: execSubRegAReg,
	image.OpIncReg:     execIncReg,
	image.OpIncAReg:    execIncAReg,
	image.OpDecReg:     execDecReg,
	image.OpDecAReg:    execDecAReg,

	image.OpAndRegReg:  execAndRegReg,
	image.OpAndRegNum:  execAndRegNum,
	image.OpAndRegAReg: execAndRegAReg,
	image.OpOrRegReg:   execOrRegReg,
	image.OpOrRegNum:   execOrRegNum,
	image.OpOrRegAReg:  execOrRegAReg,
	image.OpXorRegReg:  execXorRegReg,
	image.OpXorRegNum:  execXorRegNum,
	image.OpXorRegAReg: execXorRegAReg,
	image.OpNotReg:     execNotReg,

	image.OpCpyRegReg:    execCpyRegReg,
	image.OpCpyRegNum:    execCpyRegNum,
	image.OpCpyRegAReg:   execCpyRegAReg,
	image.OpCpyARegAReg:  execCpyARegAReg,
	image.OpCpyARegAddr:  execCpyARegAddr,
	image.OpCpyARegJoin:  execCpyARegJoin,
	image.OpCpyARegSplit: execCpyARegSplit,
	image.OpSwpRegReg:    execSwpRegReg,
	image.OpSwpARegAReg:  execSwpARegAReg,
	image.OpMemr:         execMemr,
	image.OpMemw:         execMemw,
	image.OpMemc:         execMemc,
	image.OpLd:           execLd,
	image.OpLen:          execLen,

	image.OpCmpRegReg:  execCmpRegReg,
	image.OpCmpRegNum:  execCmpRegNum,
	image.OpCmpRegAReg: execCmpRegAReg,

	image.OpJmpAddr:  execJmpAddr,
	image.OpJmpAReg:  execJmpAReg,
	image.OpJe:       execJe,
	image.OpJne:      execJne,
	image.OpJl:       execJl,
	image.OpJg:       execJg,
	image.OpOver:     execOver,
	image.OpNover:    execNover,
	image.OpCallAddr: execCallAddr,
	image.OpCallAReg: execCallAReg,
	image.OpRet:      execRet,

	image.OpPushReg:  execPushReg,
	image.OpPushNum:  execPushNum,
	image.OpPushAReg: execPushAReg,
	image.OpPopReg:   execPopReg,
	image.OpPopAReg:  execPopAReg,
	image.OpArgReg:   execArgReg,
	image.OpArgAReg:  execArgAReg,

	image.OpPrtReg:  execPrtReg,
	image.OpPrtNum:  execPrtNum,
	image.OpPrtcReg: execPrtcReg,
	image.OpPrtcNum: execPrtcNum,
	image.OpPrts:    execPrts,
	image.OpPrtln:   execPrtln,
	image.OpPrtd:    execPrtd,
	image.OpMemp:    execMemp,
	image.OpDebug:   execDebug,

	image.OpFopen:     execFopen,
	image.OpFiler:     execFiler,
	image.OpFilewAReg: execFilewAReg,
	image.OpFilewReg:  execFilewReg,
	image.OpFilewNum:  execFilewNum,
	image.OpFskip:     execFskip,
	image.OpFseek:     execFseek,
	image.OpFchk:      execFchk,

	image.OpIpoll: execIpoll,
	image.OpRchr:  execRchr,
	image.OpRstr:  execRstr,

	image.OpRand: execRand,
	image.OpSeed: execSeed,
	image.OpTime: execTime,

	image.OpHalt: execHalt,
}

func init() {
	for _, s := range image.Table {
		if _, ok := handlers[s.Opcode]; !ok {
			panic("exec: no handler for " + s.Mnemonic)
		}
	}
}

func dispatch(in *instr) (Outcome, error) {
	h, ok := handlers[in.op]
	if !ok {
		return Crashed, &device.Trap{Kind: device.TrapBadOpcode, Msg: fmtByte(byte(in.op))}
	}
	return h(in)
}

func execNop(in *instr) (Outcome, error) { return Continue, nil }

func execHalt(in *instr) (Outcome, error) { return Halted, nil }
