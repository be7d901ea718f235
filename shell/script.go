package shell

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/domino14/minigo/board"
	"github.com/domino14/minigo/solver"
)

const luaShellKey = "minigo_shell"

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal(luaShellKey)
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// luaError pushes nil and the error message, the usual lua convention.
func luaError(L *lua.LState, msg string, err error) int {
	log.Err(err).Msg(msg)
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func Analyze(L *lua.LState) int {
	n := L.CheckInt(1)
	sc := getShell(L)
	var result string
	err := sc.solver.AnalyzeRange(n, n, func(a solver.Analysis) error {
		result = solver.FormatOutcomes(a.Outcomes)
		return sc.record(a)
	})
	if err != nil {
		return luaError(L, "error-executing-analyze", err)
	}
	L.Push(lua.LString(result))
	// return number of results pushed to stack.
	return 1
}

func Eval(L *lua.LState) int {
	sc := getShell(L)
	pos, err := board.Parse(L.CheckString(1))
	if err != nil {
		return luaError(L, "error-parsing-board", err)
	}
	o, err := sc.solver.Evaluate(pos)
	if err != nil {
		return luaError(L, "error-executing-eval", err)
	}
	L.Push(lua.LString(o.String()))
	return 1
}

func Moves(L *lua.LState) int {
	sc := getShell(L)
	pos, err := board.Parse(L.CheckString(1))
	if err != nil {
		return luaError(L, "error-parsing-board", err)
	}
	outcomes, err := sc.solver.AnalyzeMoves(pos)
	if err != nil {
		return luaError(L, "error-executing-moves", err)
	}
	L.Push(lua.LString(solver.FormatOutcomes(outcomes)))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal(luaShellKey, lsc)

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"analyze": Analyze,
		"eval":    Eval,
		"moves":   Moves,
	})
	L.SetField(mod, "version", lua.LString(sc.version))
	L.SetGlobal("minigo", mod)

	// script arguments are visible as the global table arg.
	args := L.NewTable()
	for i, a := range cmd.args[1:] {
		args.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("arg", args)

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg("ran " + filepath + " with " + strconv.Itoa(len(cmd.args)-1) + " args"), nil
}
