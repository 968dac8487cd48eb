// Package cli is the interactive command front-end (spec §6, AMBIENT):
// a small participle grammar over a readline loop that turns typed
// commands into bridge.Command values and relays them verbatim, the same
// split the teacher's cli package keeps between command parsing (ast.go)
// and command dispatch (CmdRunner.go).
package cli

import "github.com/alecthomas/participle"

// command is the tagged union of every command line this front-end
// accepts. Exactly one alternative matches per parse, mirroring the
// teacher's own command struct in cli/ast.go.
type command struct {
	Start      *StartCmd      `  @@` //nolint
	Speed      *SpeedCmd      `| @@` //nolint
	AutoSpeed  *AutoSpeedCmd  `| @@` //nolint
	Measure    *MeasureCmd    `| @@` //nolint
	Reset      *ResetCmd      `| @@` //nolint
	Info       *InfoCmd       `| @@` //nolint
	Counters   *CountersCmd   `| @@` //nolint
	Send       *SendCmd       `| @@` //nolint
	Help       *HelpCmd       `| @@` //nolint
	Exit       *ExitCmd       `| @@` //nolint
}

// NodeSelector parses a bare node ID, e.g. the `<node>` in `measure 3`.
type NodeSelector struct {
	Id int `@Int` //nolint
}

// StartCmd defines the `start <scene-path>` command format.
type StartCmd struct {
	Cmd       struct{} `"start"`  //nolint
	ScenePath string   `@String`  //nolint
}

// SpeedCmd defines the `speed [<percent>]` command format; omitting the
// percent sets nothing and only prints where the current speed is reported.
type SpeedCmd struct {
	Cmd     struct{} `"speed"`      //nolint
	Percent *int     `[ @Int ]`     //nolint
}

// AutoSpeedCmd defines the `autospeed on|off` command format.
type AutoSpeedCmd struct {
	Cmd struct{}  `"autospeed"`  //nolint
	On  *OnFlag   `( @@`         //nolint
	Off *OffFlag  `| @@ )`       //nolint
}

// OnFlag defines the `on` flag format.
type OnFlag struct {
	Dummy struct{} `"on"` //nolint
}

// OffFlag defines the `off` flag format.
type OffFlag struct {
	Dummy struct{} `"off"` //nolint
}

// MeasureCmd defines the `measure <node>` command format, starting a
// fresh convergence measurement originating at the given node.
type MeasureCmd struct {
	Cmd    struct{}     `"measure"` //nolint
	Origin NodeSelector `@@`        //nolint
}

// ResetCmd defines the `reset` command format, clearing any active
// convergence measurement.
type ResetCmd struct {
	Cmd struct{} `"reset"` //nolint
}

// InfoCmd defines the `info <node>` command format.
type InfoCmd struct {
	Cmd  struct{}     `"info"` //nolint
	Node NodeSelector `@@`     //nolint
}

// CountersCmd defines the `counters` command format.
type CountersCmd struct {
	Cmd struct{} `"counters"` //nolint
}

// SendCmd defines the `send "<text>"` command format: its single
// quoted-string argument is relayed verbatim as an opaque
// SendControlCommand payload, never interpreted by this front-end or the
// core.
type SendCmd struct {
	Cmd  struct{} `"send"`   //nolint
	Text string   `@String`  //nolint
}

// HelpCmd defines the `help [<command>]` command format.
type HelpCmd struct {
	Cmd  struct{} `"help"`       //nolint
	Name *string  `[ @Ident ]`   //nolint
}

// ExitCmd defines the `exit` command format.
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

var commandParser = participle.MustBuild(&command{})

func parseCmdBytes(b []byte, cmd *command) error {
	return commandParser.ParseBytes(b, cmd)
}
