package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"   ___                _              ", "#818cf8"},
	{"  / __|___ _ _  __ __(_)___ _ _ __ _ ___ ", "#a78bfa"},
	{" | (__/ _ \\ ' \\/ _/ -_) / -_) '_/ _` / -_)", "#c084fc"},
	{"  \\___\\___/_||_\\__\\___|_\\___|_| \\__, \\___|", "#e879f9"},
	{"                                |___/     ", "#f472b6"},
}

// PrintBanner writes the banner, the agent name and the version to w.
// Colors degrade with the terminal's profile.
func PrintBanner(w io.Writer, agent, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, termenv.String(fmt.Sprintf("  %s  %s", agent, version)).Faint())
	fmt.Fprintln(w)
}
