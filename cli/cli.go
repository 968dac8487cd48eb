package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// errExit is returned by Runner.HandleCommand for the `exit` command, the
// one case where RunCli should stop reading lines rather than printing an
// error and continuing.
var errExit = errors.New("exit")

// Options mirrors the teacher's CliOptions: which streams to read/write,
// and whether to echo input lines back (useful when stdin is piped
// rather than an interactive terminal).
type Options struct {
	EchoInput bool
	Stdin     *os.File
	Stdout    *os.File
}

func defaultOptions(o *Options) *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	return o
}

// Handler is the interface RunCli drives, matching the teacher's
// runcli.CliHandler shape.
type Handler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

// RunCli drives an interactive readline loop until the handler returns
// errExit, EOF, or a Ctrl-C at an empty prompt - the same termination
// rules the teacher's runcli.RunCli uses, adapted to this package's
// smaller Options/Handler pair.
func RunCli(handler Handler, opts *Options) error {
	opts = defaultOptions(opts)
	stdin, stdout := opts.Stdin, opts.Stdout

	if readline.IsTerminal(int(stdin.Fd())) {
		state, err := readline.GetState(int(stdin.Fd()))
		if err == nil {
			defer func() { _ = readline.Restore(int(stdin.Fd()), state) }()
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            handler.GetPrompt(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             stdin,
		Stdout:            stdout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	for {
		rl.SetPrompt(handler.GetPrompt())
		line, err := rl.Readline()

		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C in mid-line edit only cancels the current line.
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if opts.EchoInput {
			if _, err := stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmdline := strings.TrimSpace(line)
		if cmdline == "" {
			continue
		}

		if err := handler.HandleCommand(cmdline, rl.Stdout()); err != nil {
			if err == errExit {
				return nil
			}
			return err
		}
	}
}
