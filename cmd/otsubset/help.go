package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	switch strings.ToLower(topic) {
	case "gid", "gids":
		pterm.Info.Println("gid:<id>,<id>,…")
		pterm.Println(`
	Adds glyph ids to the subset input. Glyph ids outside of the
	font are silently dropped when the closure is computed.
	`)
	case "text":
		pterm.Info.Println("text:<text>")
		pterm.Println(`
	Adds the code-points of the rest of the line to the subset input.
	Code-points are mapped to glyphs through the font's cmap.
	`)
	case "flag", "flags":
		pterm.Info.Println("flag:<name>,<name>,…")
		pterm.Println(`
	Replaces the subset flags. Known flags are
	  --glyph-names         keep glyph names in the post table
	  --no-layout-closure   do not follow GSUB substitutions
	`)
	case "closure", "map":
		pterm.Info.Println("closure / map")
		pterm.Println(`
	closure computes the glyphs a subset of the current input retains.
	map prints the old to new glyph id mapping of that subset.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	gid:<ids>     add glyph ids
	text:<text>   add code-points
	flag:<names>  set subset flags
	closure       print the glyph closure
	map           print the glyph mapping
	write[:file]  write the subset font
	help[:topic]  print help
	quit          leave
	`)
	}
}
