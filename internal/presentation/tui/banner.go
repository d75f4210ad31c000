package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  ____  _  ______    _   _      _       `, "#0ea5e9"},
	{` / ___|| |/ /  _ \  | | | | ___| |_ __  `, "#0284c7"},
	{` \___ \| ' /| |_) | | |_| |/ _ \ | '_ \ `, "#2563eb"},
	{`  ___) | . \|  __/  |  _  |  __/ | |_) |`, "#4f46e5"},
	{` |____/|_|\_\_|     |_| |_|\___|_| .__/ `, "#7c3aed"},
	{`                                 |_|    `, "#9333ea"},
}

// PrintBanner writes the SKP Help banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  Helpdesk E-Kinerja "+v).Faint())
	}
	fmt.Fprintln(w)
}
