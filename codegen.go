// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"

	"github.com/samber/lo"
)

// RAX/RDX double as the tagged-value result pair everywhere a compiled
// expression leaves its result, and as ordinary argument registers
// everywhere else.
const (
	RVAL = RAX
	RTYPE = RDX
)

// regParamOrder is the System V integer argument-register order this
// compiler restricts itself to; a call needing more arguments than
// this spills to the stack.
var regParamOrder = []Operand{RDI, RSI, RDX, RCX, R8, R9}

// labelGen mints the monotonic control-flow labels If/While codegen
// needs, scoped to one compiled function.
type labelGen struct{ n int }

func (lg *labelGen) next(prefix string) string {
	lg.n++
	return fmt.Sprintf(".L%s%d", prefix, lg.n)
}

func opType(ty PrimType) Operand { return Const(ty.Code()) }

func opVarVal(offset int) MemRegOffset  { return opStack(offset, 0) }
func opVarType(offset int) MemRegOffset { return opStack(offset, 8) }

// assign stores the current RVAL/RTYPE pair into a binding's two slots.
func assign(info *VarInfo) []AsmLine {
	off := info.MustStackOffset()
	return []AsmLine{mov(opVarVal(off), RVAL), mov(opVarType(off), RTYPE)}
}

// readVarAt loads a binding's two slots into RVAL/RTYPE.
func readVarAt(offset int) []AsmLine {
	return []AsmLine{mov(RVAL, opVarVal(offset)), mov(RTYPE, opVarType(offset))}
}

// loadNone loads the sentinel None value into RVAL/RTYPE -- every
// function's implicit return value and Unit's compiled form.
func loadNone() []AsmLine {
	return []AsmLine{mov(RVAL, Const(0)), mov(RTYPE, opType(PrimNone))}
}

// argEmitter renders the code that loads one call argument into dest.
type argEmitter func(dest Operand) []AsmLine

func constArg(v int64) argEmitter {
	return func(dest Operand) []AsmLine { return []AsmLine{mov(dest, Const(v))} }
}

// addrArg loads the address of an ANF immediate (a Name's stack slot
// or a pooled literal's rodata label) into dest -- the
// argument-by-address convention every unary/binary op and runtime
// call uses.
func addrArg(imm Expression) argEmitter {
	return func(dest Operand) []AsmLine {
		switch n := imm.(type) {
		case *Name:
			return []AsmLine{leaIns(dest, opStack(n.Info.MustStackOffset(), 0))}
		case *ImmConstLiteral:
			return []AsmLine{leaIns(dest, RipRef{Sym: n.Symbol})}
		default:
			panic("codegen: immediate slot is not a Name or pooled constant")
		}
	}
}

// callWithArgs assembles a call to symbol, passing each emitter's
// value through the integer argument registers in order and spilling
// any overflow onto the stack (right-to-left, padded to keep the
// stack 16-byte aligned at the call per the System V ABI). zeroAL
// zeroes RAX right before the call, as required when calling a
// variadic C function with no vector arguments.
func callWithArgs(symbol string, emitters []argEmitter, zeroAL bool) []AsmLine {
	var lines []AsmLine
	regArgs := emitters
	var overflow []argEmitter
	if len(emitters) > len(regParamOrder) {
		regArgs = emitters[:len(regParamOrder)]
		overflow = emitters[len(regParamOrder):]
	}
	if len(overflow) > 0 {
		// Pair each spilled argument with its call-site position before
		// pushing right-to-left.
		var stack []lo.Tuple2[int, argEmitter]
		for i, em := range overflow {
			stack = append(stack, lo.Tuple2[int, argEmitter]{A: i, B: em})
		}
		if len(stack)%2 != 0 {
			lines = append(lines, subIns(RSP, Const(8)))
		}
		for i := len(stack) - 1; i >= 0; i-- {
			lines = append(lines, stack[i].B(RAX)...)
			lines = append(lines, pushIns(RAX))
		}
	}
	for i, em := range regArgs {
		lines = append(lines, em(regParamOrder[i])...)
	}
	if zeroAL {
		lines = append(lines, xorIns(RAX, RAX))
	}
	lines = append(lines, callIns(Symbol{Name: symbol}))
	if len(overflow) > 0 {
		total := len(overflow) * 8
		if len(overflow)%2 != 0 {
			total += 8
		}
		lines = append(lines, addIns(RSP, Const(total)))
	}
	return lines
}

// extractBoolLines calls extract_bool on the value/type pair currently
// sitting in RVAL/RTYPE, leaving its 0/1 result in RAX. Unlike every
// other runtime call, extract_bool takes the tagged value by value,
// not by address -- and conveniently the type half is
// already sitting in the register its argument slot requires.
func extractBoolLines(lineno int) []AsmLine {
	return []AsmLine{
		mov(RDI, Const(int64(lineno))),
		mov(RSI, RVAL),
		callIns(Symbol{Name: externExtractBool}),
	}
}

// compileExpr compiles ex into the RVAL/RTYPE pair.
func compileExpr(lg *labelGen, ex Expression) []AsmLine {
	switch n := ex.(type) {
	case *Name:
		return readVarAt(n.Info.MustStackOffset())
	case *Integer:
		return []AsmLine{mov(RVAL, Const(n.Value.Int64())), mov(RTYPE, opType(PrimInt))}
	case *Boolean:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return []AsmLine{mov(RVAL, Const(v)), mov(RTYPE, opType(PrimBool))}
	case *TypeLiteral:
		return []AsmLine{mov(RVAL, Const(n.Ty.Code())), mov(RTYPE, opType(PrimType_))}
	case *Unit:
		return loadNone()
	case *StringLiteral:
		return []AsmLine{leaIns(RVAL, RipRef{Sym: n.DataLabel}), mov(RTYPE, opType(PrimString))}
	case *ImmConstLiteral:
		return []AsmLine{
			mov(RVAL, MemRip{Sym: n.Symbol, Offset: 0}),
			mov(RTYPE, MemRip{Sym: n.Symbol, Offset: 8}),
		}
	case *GetType:
		lines := compileExpr(lg, n.Ex)
		return append(lines, mov(RVAL, RTYPE), mov(RTYPE, opType(PrimType_)))
	case *Prim1:
		return callWithArgs(n.Op.Symbol(), []argEmitter{
			constArg(int64(n.Sp.Lineno)),
			addrArg(n.Ex1),
		}, false)
	case *Prim2:
		return callWithArgs(n.Op.Symbol(), []argEmitter{
			constArg(int64(n.Sp.Lineno)),
			addrArg(n.Left),
			addrArg(n.Right),
		}, false)
	case *Print:
		args := make([]argEmitter, 0, len(n.Args)+2)
		args = append(args, constArg(int64(n.Sp.Lineno)), constArg(int64(len(n.Args))))
		for _, a := range n.Args {
			args = append(args, addrArg(a))
		}
		return callWithArgs(externPrintVariadic, args, true)
	case *Input:
		var promptArg argEmitter
		if len(n.Args) == 0 {
			promptArg = constArg(0)
		} else {
			promptArg = addrArg(n.Args[0])
		}
		return callWithArgs(externEvalInput, []argEmitter{constArg(int64(n.Sp.Lineno)), promptArg}, false)
	case *RuntimeCall:
		args := make([]argEmitter, 0, len(n.Args)+1)
		args = append(args, constArg(int64(n.Sp.Lineno)))
		for _, a := range n.Args {
			args = append(args, addrArg(a))
		}
		return callWithArgs(n.Symbol, args, false)
	case *ExprScope:
		return compileScope(lg, n.Scope)
	case *IfExpr:
		falseLabel := lg.next("ifexpr_else")
		endLabel := lg.next("ifexpr_end")
		var lines []AsmLine
		lines = append(lines, compileExpr(lg, n.Test)...)
		lines = append(lines, extractBoolLines(n.Sp.Lineno)...)
		lines = append(lines, cmpIns(RAX, Const(0)), jeIns(falseLabel))
		lines = append(lines, compileExpr(lg, n.Body)...)
		lines = append(lines, jmpIns(endLabel))
		lines = append(lines, Label(falseLabel))
		lines = append(lines, compileExpr(lg, n.OrElse)...)
		lines = append(lines, Label(endLabel))
		return lines
	default:
		panic("codegen: unhandled expression type")
	}
}

// compileStatement compiles st for its effect only.
func compileStatement(lg *labelGen, st Statement) []AsmLine {
	switch n := st.(type) {
	case *EvalExpr:
		return compileExpr(lg, n.Expr)
	case *Assignment:
		return append(compileExpr(lg, n.Src), assign(n.Info)...)
	case *Binding:
		return append(compileExpr(lg, n.InitVal), assign(n.Info)...)
	case *NoOp:
		return nil
	case *NewScopeStmt:
		return compileScope(lg, n.Body)
	case *IfStmt:
		falseLabel := lg.next("if_else")
		endLabel := lg.next("if_end")
		var lines []AsmLine
		lines = append(lines, compileExpr(lg, n.Test)...)
		lines = append(lines, extractBoolLines(n.Sp.Lineno)...)
		lines = append(lines, cmpIns(RAX, Const(0)), jeIns(falseLabel))
		lines = append(lines, compileScope(lg, n.Body)...)
		lines = append(lines, jmpIns(endLabel))
		lines = append(lines, Label(falseLabel))
		if n.OrElse != nil {
			lines = append(lines, compileScope(lg, n.OrElse)...)
		}
		lines = append(lines, Label(endLabel))
		return lines
	case *While:
		condLabel := lg.next("while_cond")
		bodyLabel := lg.next("while_body")
		var lines []AsmLine
		lines = append(lines, jmpIns(condLabel))
		lines = append(lines, Label(bodyLabel))
		lines = append(lines, compileScope(lg, n.Body)...)
		lines = append(lines, Label(condLabel))
		lines = append(lines, compileExpr(lg, n.Test)...)
		lines = append(lines, extractBoolLines(n.Sp.Lineno)...)
		lines = append(lines, cmpIns(RAX, Const(0)), jneIns(bodyLabel))
		return lines
	default:
		panic("codegen: unhandled statement type")
	}
}

func compileScope(lg *labelGen, sc *Scope) []AsmLine {
	var lines []AsmLine
	for _, st := range sc.Statements {
		lines = append(lines, compileStatement(lg, st)...)
	}
	return lines
}

func compileFunc(f *CompiledFunction) []AsmLine {
	lg := &labelGen{}
	lines := []AsmLine{
		Label(f.Symbol),
		pushIns(RBP),
		mov(RBP, RSP),
		subIns(RSP, Const(int64(f.StackUsage))),
	}
	lines = append(lines, compileScope(lg, f.Body)...)
	lines = append(lines, loadNone()...)
	lines = append(lines,
		addIns(RSP, Const(int64(f.StackUsage))),
		popIns(RBP),
		retIns(),
	)
	return lines
}

// allUnaryOps and allBinaryOps drive the program prologue's extern
// list, independent of which operators a given program happens to use
// -- the runtime always exposes the full set.
var allUnaryOps = []UnaryOp{OpNegate, OpNot, OpAdd1, OpSub1}
var allBinaryOps = []BinaryOp{OpAdd, OpSub, OpMul, OpDiv, OpMod, OpIsIdentical, OpIsEq, OpIsLt, OpIsGt, OpIsLe, OpIsGe}

// CompileProgram assembles the full output file: the global entry
// point, every extern the runtime exposes, the pooled rodata, and one
// text block per compiled function.
func CompileProgram(state *CompilerState, funcs []*CompiledFunction) []AsmLine {
	var lines []AsmLine
	lines = append(lines, globalDirective(MAIN))
	lines = append(lines, lo.Map(allUnaryOps, func(op UnaryOp, _ int) AsmLine {
		return externDirective(op.Symbol())
	})...)
	lines = append(lines, lo.Map(allBinaryOps, func(op BinaryOp, _ int) AsmLine {
		return externDirective(op.Symbol())
	})...)
	lines = append(lines,
		externDirective(externExtractBool),
		externDirective(externPrintVariadic),
		externDirective(externEvalInput),
	)
	for _, name := range fixedArityFuncNames() {
		lines = append(lines, externDirective(fixedArityFuncs[name].Symbol))
	}
	lines = append(lines, RawLine("section .rodata"))
	lines = append(lines, state.ConstPool.ToAsmLines()...)
	lines = append(lines, state.StringPool.ToAsmLines()...)
	lines = append(lines, RawLine("section .text"))
	for _, f := range funcs {
		lines = append(lines, compileFunc(f)...)
	}
	return lines
}

// fixedArityFuncNames returns the fixed-arity builtin names in a
// stable order so the emitted assembly is deterministic.
func fixedArityFuncNames() []string {
	return []string{"time_int", "sleep", "exit"}
}
