package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	wordwrap "github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

// Help renders command help text wrapped to the caller's terminal width,
// grounded on the teacher's cli/help.go.
type Help struct {
	termWidth   uint
	maxCmdWidth uint
	commands    []string
}

var commandHelp = map[string]string{
	"start":     "Request a scene start. The command relay in lorasim drops this request; the running scene is the one given by -scene at launch.",
	"speed":     "Set the simulation speed, as a percent of real time. Without a percent, print a note that the current speed is reported through the Visualizer SpeedChanged stream.",
	"autospeed": "Enable or disable automatic speed throttling based on how far virtual time lags behind real time.",
	"measure":   "Start a convergence measurement originating at the given node.",
	"reset":     "Clear any active convergence measurement.",
	"info":      "Request a node's history snapshot.",
	"counters":  "Print a note that transmit/receive/collision counters are reported through the Visualizer Counters stream; the CLI does not display them.",
	"send":      "Queue an opaque control command. The command relay in lorasim accepts it and forwards it nowhere.",
	"help":      "Show help for a specific command.",
	"exit":      "Exit the CLI.",
}

func newHelp() Help {
	h := Help{termWidth: 80, maxCmdWidth: 10}
	h.commands = make([]string, 0, len(commandHelp))
	for k := range commandHelp {
		h.commands = append(h.commands, k)
	}
	sort.Strings(h.commands)
	h.update()
	return h
}

// update re-reads the terminal width, since a resized window should widen
// wrapped help text the next time it's printed.
func (h *Help) update() {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil && width > 0 {
			h.termWidth = uint(width)
		}
	}
}

func (h *Help) outputGeneralHelp() string {
	return h.outputHelp(h.commands) +
		wordwrap.WrapString("\nType 'help <command>' for details on one command.\n", h.termWidth)
}

func (h *Help) outputCommandHelp(cmd string) string {
	return h.outputHelp([]string{cmd})
}

func (h *Help) outputHelp(commands []string) string {
	h.update()
	var s strings.Builder
	for _, cmd := range commands {
		explanation, ok := commandHelp[cmd]
		if !ok {
			explanation = "(unknown command)"
		}
		width := h.termWidth - h.maxCmdWidth - 1
		for idx, line := range strings.Split(wordwrap.WrapString(explanation, width), "\n") {
			if idx == 0 {
				fmt.Fprintf(&s, "%-10s %s\n", cmd, line)
			} else {
				fmt.Fprintf(&s, "%-10s %s\n", "", line)
			}
		}
	}
	return s.String()
}
