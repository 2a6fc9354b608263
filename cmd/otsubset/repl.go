package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
)

// Intp is our interpreter object
type Intp struct {
	repl    *readline.Instance
	session *session
	out     string
}

func (intp *Intp) String() string {
	if intp == nil || intp.session == nil {
		return "()"
	}
	return fmt.Sprintf("( font=%s flags=%v )", intp.session.name, intp.session.flags)
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd := parseCommand(line)
		err, quit := intp.execute(cmd)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

// Op is a single step of a command, e.g. "gid:17,18".
type Op struct {
	code int
	arg  string
}

const (
	QUIT int = iota
	HELP
	GID
	TEXT
	FLAG
	CLOSURE
	MAP
	WRITE
)

var opMap = map[string]int{
	"quit":    QUIT,
	"help":    HELP,
	"gid":     GID,
	"text":    TEXT,
	"flag":    FLAG,
	"closure": CLOSURE,
	"map":     MAP,
	"write":   WRITE,
}

// parseCommand splits a line into ops. Unknown ops turn into help.
// Text arguments extend to the end of the line.
func parseCommand(line string) []Op {
	var ops []Op
	steps := strings.Fields(line)
	for i, step := range steps {
		name, arg, _ := strings.Cut(step, ":")
		code, ok := opMap[strings.ToLower(name)]
		if !ok {
			code, arg = HELP, name
		}
		if code == TEXT {
			arg = strings.Join(append([]string{arg}, steps[i+1:]...), " ")
			ops = append(ops, Op{code: code, arg: strings.TrimSpace(arg)})
			break
		}
		ops = append(ops, Op{code: code, arg: arg})
		if code == QUIT {
			break
		}
	}
	tracer().Debugf("parsed command: %v", ops)
	return ops
}

var commandFn map[int]func(*Intp, *Op) (error, bool)

func init() {
	commandFn = map[int]func(*Intp, *Op) (error, bool){
		QUIT:    quitOp,
		HELP:    helpOp,
		GID:     gidOp,
		TEXT:    textOp,
		FLAG:    flagOp,
		CLOSURE: closureOp,
		MAP:     mapOp,
		WRITE:   writeOp,
	}
}

func (intp *Intp) execute(ops []Op) (err error, stop bool) {
	for _, op := range ops {
		f, ok := commandFn[op.code]
		if !ok {
			pterm.Error.Printf("unknown command code: %d\n", op.code)
			return nil, false
		}
		err, stop = f(intp, &op)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		if stop {
			return
		}
	}
	return
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

func gidOp(intp *Intp, op *Op) (error, bool) {
	gids, err := parseGlyphIDs(op.arg)
	if err != nil {
		return err, false
	}
	if err = intp.session.addGlyphs(gids...); err == nil {
		pterm.Printf("added %d glyph ids\n", len(gids))
	}
	return err, false
}

func textOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.session.addText(op.arg); err != nil {
		return err, false
	}
	pterm.Printf("added code-points of %q\n", op.arg)
	return nil, false
}

func flagOp(intp *Intp, op *Op) (error, bool) {
	return intp.session.setFlags(splitList(op.arg)...), false
}

func closureOp(intp *Intp, op *Op) (error, bool) {
	gids, err := intp.session.closure()
	if err != nil {
		return err, false
	}
	pterm.Printf("closure holds %d glyphs: %v\n", len(gids), gids)
	return nil, false
}

func mapOp(intp *Intp, op *Op) (error, bool) {
	pairs, err := intp.session.mapping()
	if err != nil {
		return err, false
	}
	printGlyphMap(pairs)
	return nil, false
}

func writeOp(intp *Intp, op *Op) (error, bool) {
	out := op.arg
	if out == "" {
		out = intp.out
	}
	return intp.session.run(out), false
}
