package cli

import (
	"fmt"
	"io"

	"github.com/lorasim/lorasim/bridge"
	"github.com/lorasim/lorasim/scene"
)

// Runner turns parsed command lines into bridge.Command values pushed on
// Commands, exactly the opaque push-only vocabulary spec §6 describes:
// this front-end never reads a command's result back synchronously, any
// reply arrives later through whatever Visualizer the caller also wired
// up. Grounded on the teacher's CmdRunner, trimmed to the smaller command
// set and without the in-process Simulation reference the teacher's
// runner holds (this runner only ever talks to the core through the
// command channel, never direct method calls).
type Runner struct {
	Commands chan<- bridge.Command
	help     Help
}

// NewRunner builds a Runner that pushes parsed commands onto commands.
func NewRunner(commands chan<- bridge.Command) *Runner {
	return &Runner{Commands: commands, help: newHelp()}
}

// GetPrompt implements Handler.
func (r *Runner) GetPrompt() string {
	return "lorasim> "
}

// HandleCommand implements Handler: parse cmdline, translate it
// to a bridge.Command, push it, and report Done/Error the same way the
// teacher's CmdRunner does.
func (r *Runner) HandleCommand(cmdline string, output io.Writer) error {
	var cmd command
	if err := parseCmdBytes([]byte(cmdline), &cmd); err != nil {
		_, werr := fmt.Fprintf(output, "Error: %v\n", err)
		return werr
	}

	bc, handled, err := r.translate(cmd, output)
	if err == errExit {
		return errExit
	}
	if err != nil {
		_, werr := fmt.Fprintf(output, "Error: %v\n", err)
		return werr
	}
	if !handled {
		return nil
	}

	r.Commands <- bc
	_, werr := fmt.Fprintf(output, "Done\n")
	return werr
}

// translate maps one parsed command to a bridge.Command. The bool return
// is false for commands handled entirely locally (help, exit) that never
// reach the core.
func (r *Runner) translate(cmd command, output io.Writer) (bridge.Command, bool, error) {
	switch {
	case cmd.Start != nil:
		return bridge.Command{StartMode: &bridge.StartMode{Mode: "scene", ScenePath: cmd.Start.ScenePath}}, true, nil

	case cmd.Speed != nil:
		if cmd.Speed.Percent == nil {
			fmt.Fprintf(output, "(query the current speed via the Visualizer SpeedChanged stream)\n")
			return bridge.Command{}, false, nil
		}
		percent := uint32(*cmd.Speed.Percent)
		return bridge.Command{SetSpeedPercent: &percent}, true, nil

	case cmd.AutoSpeed != nil:
		on := cmd.AutoSpeed.On != nil
		return bridge.Command{SetAutoSpeed: &on}, true, nil

	case cmd.Measure != nil:
		id := scene.NodeID(cmd.Measure.Origin.Id)
		return bridge.Command{StartMeasurement: &id}, true, nil

	case cmd.Reset != nil:
		return bridge.Command{ResetMeasurement: true}, true, nil

	case cmd.Info != nil:
		id := scene.NodeID(cmd.Info.Node.Id)
		return bridge.Command{RequestNodeInfo: &id}, true, nil

	case cmd.Counters != nil:
		fmt.Fprintf(output, "(counters are reported continuously via the Visualizer Counters stream)\n")
		return bridge.Command{}, false, nil

	case cmd.Send != nil:
		text := cmd.Send.Text
		return bridge.Command{SendControlCommand: &text}, true, nil

	case cmd.Help != nil:
		if cmd.Help.Name != nil {
			fmt.Fprint(output, r.help.outputCommandHelp(*cmd.Help.Name))
		} else {
			fmt.Fprint(output, r.help.outputGeneralHelp())
		}
		return bridge.Command{}, false, nil

	case cmd.Exit != nil:
		return bridge.Command{}, false, errExit
	}

	return bridge.Command{}, false, nil
}
