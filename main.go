// Released under an MIT license. See LICENSE.

/*
Ren is an interpreter for a Rebol-family language: everything is a
value, code is data, and evaluation walks arrays of cells. Run it
with no arguments for a console:

	$ ren
	>> x: 10
	== 10
	>> either x > 5 ["big"] ["small"]
	== "big"

Or hand it a script, or a one-liner with -c.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/rhencke/ren/internal/core"
	"github.com/rhencke/ren/internal/scan"
	"github.com/rhencke/ren/pkg/ren"
)

const version = "0.1.0"

//nolint:gochecknoglobals
var usage = `ren

Usage:
  ren [SCRIPT [ARGUMENTS...]]
  ren -c COMMAND
  ren -h
  ren -v

Arguments:
  SCRIPT     Path to a ren script.
  ARGUMENTS  Positional parameters, visible to the script as args.

Options:
  -c, --command=COMMAND  Evaluate the specified command and exit.
  -h, --help             Display this help.
  -v, --version          Print ren version.

With no operands and a terminal on stdin, ren runs interactively.
`

func main() {
	opts, err := docopt.ParseArgs(usage, nil, version)
	if err != nil {
		// Error in the usage doc. This should never happen.
		panic(err.Error())
	}

	m := ren.New()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)

	go func() {
		for range interrupts {
			m.Halt()
		}
	}()

	command, _ := opts.String("--command")
	if command != "" {
		os.Exit(run(m, "command", command))
	}

	script, _ := opts.String("SCRIPT")
	if script != "" {
		source, err := os.ReadFile(script)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		os.Exit(run(m, script, string(source)))
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		repl(m)

		return
	}

	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	os.Exit(run(m, "stdin", string(source)))
}

// run evaluates one complete source text and returns an exit status.
func run(m *ren.Machine, label, source string) int {
	ip := m.Interp()

	block, err := scan.Load(ip, label, source)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())

		return 1
	}

	ip.Guard(block)
	defer ip.Unguard(1)

	ip.Manage(block)
	ip.BindArrayDeep(block, ip.Lib(), true)

	var out core.Cell

	switch err := ip.DoBlock(block, &out); {
	case err == core.ErrQuit:
		return 0
	case err != nil:
		fmt.Fprintln(os.Stderr, err.Error())

		return 1
	}

	return 0
}

// repl is the interactive prompt loop. Incomplete input continues on
// the next line; Ctrl-C abandons the current input.
func repl(m *ren.Machine) {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)

	ip := m.Interp()
	pending := ""

	for {
		prompt := ">> "
		if pending != "" {
			prompt = "   "
		}

		line, err := cli.Prompt(prompt)

		switch err {
		case nil:
		case liner.ErrPromptAborted:
			pending = ""

			continue
		default:
			fmt.Println()

			return
		}

		source := line
		if pending != "" {
			source = pending + "\n" + line
		}

		if strings.TrimSpace(source) == "" {
			continue
		}

		block, err := scan.Load(ip, "console", source)
		if err != nil {
			if scan.Incomplete(err) {
				pending = source

				continue
			}

			fmt.Fprintln(os.Stderr, err.Error())

			pending = ""

			continue
		}

		cli.AppendHistory(source)

		pending = ""

		ip.Guard(block)
		ip.Manage(block)
		ip.BindArrayDeep(block, ip.Lib(), true)

		var out core.Cell

		err = ip.DoBlock(block, &out)
		ip.Unguard(1)

		switch {
		case err == core.ErrQuit:
			return
		case err != nil:
			fmt.Fprintln(os.Stderr, err.Error())
		case out.Kind() != core.KindNull && out.Kind() != core.KindVoid && out.Kind() != core.KindEnd:
			fmt.Println("== " + ip.MoldOf(&out))
		}
	}
}
