package main

import (
	"fmt"

	"github.com/pterm/pterm"
)

// glyphPair is an entry of the old to new glyph mapping.
type glyphPair struct {
	old, new uint32
}

func printGlyphMap(pairs []glyphPair) {
	pterm.Printf("subset maps %d glyphs\n", len(pairs))
	if len(pairs) == 0 {
		return
	}
	data := [][]string{
		{"Old", "New"},
	}
	for _, p := range pairs {
		data = append(data, []string{
			fmt.Sprintf("%d", p.old),
			fmt.Sprintf("%d", p.new),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
