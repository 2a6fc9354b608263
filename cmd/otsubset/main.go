/*
Command otsubset subsets a font file.

	otsubset -font MaterialSymbols.ttf -gids 4261 -text star -upper -flags --no-layout-closure

The subset font is written next to the input font, as <name>.subset<ext>,
unless -o names a different file. With -i, otsubset starts an interactive
session instead.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/npillmayer/otsubset/core"
)

// tracer traces with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":   "go",
		"trace.font.subset": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to subset")
	gids := flag.String("gids", "", "Comma separated glyph ids to retain")
	text := flag.String("text", "", "Text to retain")
	upper := flag.Bool("upper", false, "Retain upper case variant of text as well")
	flags := flag.String("flags", "", "Comma separated subset flags [--glyph-names,--no-layout-closure]")
	outname := flag.String("o", "", "Output file")
	interactive := flag.Bool("i", false, "Interactive mode")
	flag.Parse()
	if err := setTraceLevel(*tlevel); err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}
	if *fontname == "" {
		pterm.Error.Println("no font given, use -font")
		os.Exit(2)
	}
	s, err := newSession(*fontname)
	if err != nil {
		core.UserError(err)
		os.Exit(3)
	}
	defer s.close()
	if err := s.configure(*gids, *text, *upper, *flags); err != nil {
		core.UserError(err)
		os.Exit(4)
	}
	if *interactive {
		repl, err := readline.New("subset > ")
		if err != nil {
			tracer().Errorf(err.Error())
			os.Exit(5)
		}
		pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
		intp := &Intp{repl: repl, session: s, out: outputPath(*fontname, *outname)}
		intp.REPL()
		return
	}
	if err := s.run(outputPath(*fontname, *outname)); err != nil {
		core.UserError(err)
		os.Exit(6)
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func setTraceLevel(level string) error {
	switch level {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		return fmt.Errorf("invalid trace level: %s", level)
	}
	return nil
}

// outputPath returns out, or <name>.subset<ext> next to the font.
func outputPath(font, out string) string {
	if out != "" {
		return out
	}
	ext := filepath.Ext(font)
	return strings.TrimSuffix(font, ext) + ".subset" + strings.ToLower(ext)
}

// parseGlyphIDs parses a comma separated list of glyph ids.
func parseGlyphIDs(list string) ([]uint32, error) {
	var gids []uint32
	for _, field := range strings.Split(list, ",") {
		if field = strings.TrimSpace(field); field == "" {
			continue
		}
		g, err := strconv.ParseUint(field, 10, 16)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "invalid glyph id %q", field)
		}
		gids = append(gids, uint32(g))
	}
	return gids, nil
}

func splitList(list string) []string {
	var items []string
	for _, field := range strings.Split(list, ",") {
		if field = strings.TrimSpace(field); field != "" {
			items = append(items, field)
		}
	}
	return items
}
