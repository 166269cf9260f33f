package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mrdg/juno/audio"
	"github.com/mrdg/juno/dub"
	"github.com/mrdg/juno/synth"
)

const (
	stepsPerBar   = 16
	beatsPerBar   = 4
	defaultLength = 0.25 // beats
)

type env struct {
	params    *audio.ParamStore
	engine    *audio.Engine
	sequencer *audio.Sequencer
	loops     map[string]string // loop name to its definition
	ccs       *ccMap
}

func (e *env) eval(input string) (dub.Node, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

func repl(env *env, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "> ",
		HistoryFile:  historyFile,
		AutoComplete: completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err == readline.ErrInterrupt {
			// ^C silences everything
			env.engine.AllNotesOff()
			continue
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if result, err := env.eval(line); err != nil {
			fmt.Println(err)
		} else if result != nil {
			fmt.Println(result)
		}
	}
}

func completer() *readline.PrefixCompleter {
	var params []readline.PrefixCompleterInterface
	for id := synth.ParamID(0); id < synth.NumParams; id++ {
		var choices []readline.PrefixCompleterInterface
		for _, c := range id.Choices() {
			choices = append(choices, readline.PcItem(c))
		}
		params = append(params, readline.PcItem(id.String(), choices...))
	}
	var presets []readline.PrefixCompleterInterface
	for _, name := range audio.PresetNames() {
		presets = append(presets, readline.PcItem(name))
	}
	var modes []readline.PrefixCompleterInterface
	for _, m := range []synth.PolyMode{synth.Poly1, synth.Poly2, synth.Unison} {
		modes = append(modes, readline.PcItem(m.String()))
	}

	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get", "learn":
			items = append(items, readline.PcItem(cmd.name, params...))
		case "preset":
			items = append(items, readline.PcItem(cmd.name, presets...))
		case "mode":
			items = append(items, readline.PcItem(cmd.name, modes...))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

type command struct {
	name  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"set", setCommand, 2},
		{"get", getCommand, 1},
		{"on", noteOnCommand, -1},
		{"off", noteOffCommand, 1},
		{"mode", modeCommand, 1},
		{"panic", panicCommand, 0},
		{"voices", voicesCommand, 0},
		{"params", paramsCommand, 0},
		{"preset", presetCommand, 1},
		{"presets", presetsCommand, 0},
		{"loop", loopCommand, -3},
		{"unloop", unloopCommand, 1},
		{"loops", loopsCommand, 0},
		{"bpm", bpmCommand, 1},
		{"level", levelCommand, 1},
		{"learn", learnCommand, 1},
		{"bind", bindCommand, 2},
		{"unbind", unbindCommand, 1},
		{"ccs", ccsCommand, 0},
		{"help", helpCommand, 0},
	}
}

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var param string
	if err := readArgs(args[:1], &param); err != nil {
		return nil, err
	}
	switch v := args[1].(type) {
	case dub.Int:
		return nil, env.params.Set(param, float64(v))
	case dub.Float:
		return nil, env.params.Set(param, float64(v))
	case dub.String:
		return nil, env.params.Set(param, string(v))
	case dub.Identifier:
		return nil, env.params.Set(param, string(v))
	default:
		return nil, fmt.Errorf("unsupported value: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (dub.Node, error) {
	var param string
	if err := readArgs(args, &param); err != nil {
		return nil, err
	}
	id, ok := synth.ParamIDByName(param)
	if !ok {
		return nil, fmt.Errorf("%w %s", synth.ErrUnknownParam, param)
	}
	return dub.String(env.params.Load().Format(id)), nil
}

func noteOnCommand(env *env, args []dub.Node) (dub.Node, error) {
	note, velocity := 0, 1.0
	var err error
	switch len(args) {
	case 1:
		err = readArgs(args, &note)
	case 2:
		err = readArgs(args, &note, &velocity)
	default:
		err = errors.New("want a note and an optional velocity")
	}
	if err != nil {
		return nil, err
	}
	if err := checkNote(note); err != nil {
		return nil, err
	}
	if velocity < 0 || velocity > 1 {
		return nil, fmt.Errorf("velocity is not in valid range 0 - 1: %v", velocity)
	}
	env.engine.NoteOn(0, note, velocity)
	return nil, nil
}

func noteOffCommand(env *env, args []dub.Node) (dub.Node, error) {
	var note int
	if err := readArgs(args, &note); err != nil {
		return nil, err
	}
	if err := checkNote(note); err != nil {
		return nil, err
	}
	env.engine.NoteOff(0, note, 0)
	return nil, nil
}

func checkNote(note int) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("note is not in valid range 0 - 127: %v", note)
	}
	return nil
}

func modeCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	mode, err := synth.ParsePolyMode(name)
	if err != nil {
		return nil, err
	}
	return nil, env.params.Update(func(p *synth.Params) error {
		p.PolyMode = mode
		return nil
	})
}

func panicCommand(env *env, args []dub.Node) (dub.Node, error) {
	env.engine.AllNotesOff()
	return nil, nil
}

func voicesCommand(env *env, args []dub.Node) (dub.Node, error) {
	var b strings.Builder
	renderVoices(env.engine.Voices(), &b)
	if n := env.engine.Dropped(); n > 0 {
		fmt.Fprintln(&b, colorize(fmt.Sprintf("%d notes dropped", n), colorRed))
	}
	return dub.String(strings.TrimRight(b.String(), "\n")), nil
}

func paramsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var b strings.Builder
	renderParams(env.params.Load(), &b)
	return dub.String(strings.TrimRight(b.String(), "\n")), nil
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, audio.LoadPreset(name, env.params)
}

func presetsCommand(env *env, args []dub.Node) (dub.Node, error) {
	return dub.String(strings.Join(audio.PresetNames(), "\n")), nil
}

// loopCommand plays a note on the steps of a one bar pattern selected by a
// match expression, e.g. loop bass 36 0.5 '1,3. The note length in beats is
// optional. The pattern comes last since it extends to the end of the line.
func loopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	var note int
	var expr dub.MatchExpr
	length := defaultLength
	var err error
	switch len(args) {
	case 3:
		err = readArgs(args, &name, &note, &expr)
	case 4:
		err = readArgs(args, &name, &note, &length, &expr)
	default:
		err = errors.New("want a name, a note, an optional note length and a pattern")
	}
	if err != nil {
		return nil, err
	}
	if err := checkNote(note); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("note length must be positive: %v", length)
	}
	steps, err := dub.EvalMatchExpr(expr, beatsPerBar, 4, stepsPerBar)
	if err != nil {
		return nil, err
	}
	clip := audio.NewClip(beatsPerBar, env.engine)
	stepLength := float64(beatsPerBar) / float64(len(steps))
	for i, on := range steps {
		if on > 0 {
			clip.AddNote(float64(i)*stepLength, note, length)
		}
	}
	env.sequencer.AddClip(name, clip)
	if env.loops == nil {
		env.loops = make(map[string]string)
	}
	env.loops[name] = fmt.Sprintf("%s %v '%s", noteName(note), length, expr)
	return nil, nil
}

func unloopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	if !env.sequencer.RemoveClip(name) {
		return nil, fmt.Errorf("no loop named %s", name)
	}
	delete(env.loops, name)
	return nil, nil
}

func loopsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, name := range env.sequencer.Clips() {
		lines = append(lines, name+": "+env.loops[name])
	}
	return dub.String(strings.Join(lines, "\n")), nil
}

func bpmCommand(env *env, args []dub.Node) (dub.Node, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return nil, err
	}
	return nil, env.sequencer.Set("bpm", bpm)
}

func levelCommand(env *env, args []dub.Node) (dub.Node, error) {
	var db float64
	if err := readArgs(args, &db); err != nil {
		return nil, err
	}
	return nil, env.engine.SetLevel(db)
}

// learnCommand binds a parameter to the next MIDI controller that moves.
func learnCommand(env *env, args []dub.Node) (dub.Node, error) {
	id, err := paramArg(args[:1])
	if err != nil {
		return nil, err
	}
	env.ccs.learn(id)
	return dub.String("move a controller to bind " + id.String()), nil
}

func bindCommand(env *env, args []dub.Node) (dub.Node, error) {
	cc, err := ccArg(args[:1])
	if err != nil {
		return nil, err
	}
	id, err := paramArg(args[1:])
	if err != nil {
		return nil, err
	}
	return nil, env.ccs.bind(cc, id)
}

func unbindCommand(env *env, args []dub.Node) (dub.Node, error) {
	cc, err := ccArg(args)
	if err != nil {
		return nil, err
	}
	if !env.ccs.unbind(cc) {
		return nil, fmt.Errorf("cc %d is not bound", cc)
	}
	return nil, nil
}

func ccsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, b := range env.ccs.bindings() {
		lines = append(lines, fmt.Sprintf("%3d %s", b.cc, b.id))
	}
	return dub.String(strings.Join(lines, "\n")), nil
}

func paramArg(args []dub.Node) (synth.ParamID, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return 0, err
	}
	id, ok := synth.ParamIDByName(name)
	if !ok {
		return 0, fmt.Errorf("%w %s", synth.ErrUnknownParam, name)
	}
	return id, nil
}

func ccArg(args []dub.Node) (uint8, error) {
	var cc int
	if err := readArgs(args, &cc); err != nil {
		return 0, err
	}
	if cc < 0 || cc > 127 {
		return 0, fmt.Errorf("controller is not in valid range 0 - 127: %v", cc)
	}
	return uint8(cc), nil
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	names := make([]string, len(commands))
	for i, cmd := range commands {
		names[i] = cmd.name
	}
	return dub.String(strings.Join(names, " ")), nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			case dub.Note:
				*p = s.Name
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch v := arg.(type) {
			case dub.Int:
				*p = float64(v)
			case dub.Float:
				*p = float64(v)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			switch n := arg.(type) {
			case dub.Int:
				*p = int(n)
			case dub.Note:
				*p = n.Number
			default:
				return fmt.Errorf("argument error: expected an integer")
			}
		case *dub.MatchExpr:
			expr, ok := arg.(dub.MatchExpr)
			if !ok {
				return fmt.Errorf("argument error: expected a pattern")
			}
			*p = expr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
