/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package dvi

// DVI opcode byte values, per the DVI format standard.
const (
	opSetCharLo  = 0   // 0..127, implicit character code
	opSetCharHi  = 127
	opSet1       = 128
	opSet4       = 131
	opSetRule    = 132
	opPut1       = 133
	opPut4       = 136
	opPutRule    = 137
	opNOP        = 138
	opBOP        = 139
	opEOP        = 140
	opPush       = 141
	opPop        = 142
	opRight1     = 143
	opRight4     = 146
	opW0         = 147
	opW1         = 148
	opW4         = 151
	opX0         = 152
	opX1         = 153
	opX4         = 156
	opDown1      = 157
	opDown4      = 160
	opY0         = 161
	opY1         = 162
	opY4         = 165
	opZ0         = 166
	opZ1         = 167
	opZ4         = 170
	opFntNumLo   = 171 // 171..234, implicit font number
	opFntNumHi   = 234
	opFnt1       = 235
	opFnt4       = 238
	opXXX1       = 239
	opXXX4       = 242
	opFntDef1     = 243
	opFntDef4     = 246
	opPre         = 247
	opPost        = 248
	opPostPost    = 249
	opUndefinedLo = 250
	opUndefinedHi = 255
)

// opClass classifies an opcode byte into the families the state machine
// dispatches on.
type opClass int

const (
	classSetChar opClass = iota
	classSet
	classSetRule
	classPut
	classPutRule
	classNOP
	classBOP
	classEOP
	classPush
	classPop
	classRight
	classW
	classX
	classDown
	classY
	classZ
	classFntNum
	classFnt
	classXXX
	classFntDef
	classPre
	classPost
	classPostPost
	classUndefined
)

// decoded holds the result of classifying one opcode: its class and its
// first parameter (the "value" spec.md §4.2 describes). Opcodes with a
// second parameter (set_rule/put_rule's width) read it later, in the
// semantic handler, as spec.md directs.
type decoded struct {
	class opClass
	value int32
	n     int // byte width of the parameter consumed, for diagnostics
}

// decodeOpcode classifies cmd and extracts its first parameter from r,
// without any side effect on interpreter state (C2).
func decodeOpcode(cmd byte, r *byteReader) decoded {
	switch {
	case cmd <= opSetCharHi:
		return decoded{class: classSetChar, value: int32(cmd)}
	case cmd >= opSet1 && cmd <= opSet4:
		n := int(cmd-opSet1) + 1
		return decoded{class: classSet, value: r.getUN(n), n: n}
	case cmd == opSetRule:
		return decoded{class: classSetRule, value: r.getI32(), n: 4}
	case cmd >= opPut1 && cmd <= opPut4:
		n := int(cmd-opPut1) + 1
		return decoded{class: classPut, value: r.getUN(n), n: n}
	case cmd == opPutRule:
		return decoded{class: classPutRule, value: r.getI32(), n: 4}
	case cmd == opNOP:
		return decoded{class: classNOP}
	case cmd == opBOP:
		return decoded{class: classBOP}
	case cmd == opEOP:
		return decoded{class: classEOP}
	case cmd == opPush:
		return decoded{class: classPush}
	case cmd == opPop:
		return decoded{class: classPop}
	case cmd >= opRight1 && cmd <= opRight4:
		n := int(cmd-opRight1) + 1
		return decoded{class: classRight, value: r.getIN(n), n: n}
	case cmd == opW0:
		return decoded{class: classW}
	case cmd >= opW1 && cmd <= opW4:
		n := int(cmd-opW1) + 1
		return decoded{class: classW, value: r.getIN(n), n: n}
	case cmd == opX0:
		return decoded{class: classX}
	case cmd >= opX1 && cmd <= opX4:
		n := int(cmd-opX1) + 1
		return decoded{class: classX, value: r.getIN(n), n: n}
	case cmd >= opDown1 && cmd <= opDown4:
		n := int(cmd-opDown1) + 1
		return decoded{class: classDown, value: r.getIN(n), n: n}
	case cmd == opY0:
		return decoded{class: classY}
	case cmd >= opY1 && cmd <= opY4:
		n := int(cmd-opY1) + 1
		return decoded{class: classY, value: r.getIN(n), n: n}
	case cmd == opZ0:
		return decoded{class: classZ}
	case cmd >= opZ1 && cmd <= opZ4:
		n := int(cmd-opZ1) + 1
		return decoded{class: classZ, value: r.getIN(n), n: n}
	case cmd >= opFntNumLo && cmd <= opFntNumHi:
		return decoded{class: classFntNum, value: int32(cmd - opFntNumLo)}
	case cmd >= opFnt1 && cmd <= opFnt4:
		n := int(cmd-opFnt1) + 1
		// fnt1..fnt3 are unsigned; fnt4 is read signed, preserving the
		// documented source behavior flagged as an open question in
		// spec.md §9.
		if n == 4 {
			return decoded{class: classFnt, value: r.getI32(), n: n}
		}
		return decoded{class: classFnt, value: r.getUN(n), n: n}
	case cmd >= opXXX1 && cmd <= opXXX4:
		n := int(cmd-opXXX1) + 1
		// xxx4's k is read signed, matching the documented source
		// behavior despite the DVI format declaring it unsigned
		// (spec.md §9 open question; preserved for compatibility).
		if n == 4 {
			return decoded{class: classXXX, value: r.getI32(), n: n}
		}
		return decoded{class: classXXX, value: r.getUN(n), n: n}
	case cmd >= opFntDef1 && cmd <= opFntDef4:
		n := int(cmd-opFntDef1) + 1
		if n == 4 {
			return decoded{class: classFntDef, value: r.getI32(), n: n}
		}
		return decoded{class: classFntDef, value: r.getUN(n), n: n}
	case cmd == opPre:
		return decoded{class: classPre}
	case cmd == opPost:
		return decoded{class: classPost}
	case cmd == opPostPost:
		return decoded{class: classPostPost}
	default: // 250..255
		return decoded{class: classUndefined, value: int32(cmd)}
	}
}
