// cmd/boreal/repl.go — interactive diagnostics shell.
//
// Lines accumulate into a buffer; an empty line analyzes the buffer
// and prints its diagnostics (or "ok" with the symbol count). The
// buffer then resets. :quit exits, :show prints the buffer.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	boreal "github.com/oxixes/boreal-lang-ext"
)

const (
	historyFile = ".boreal_history"
	promptMain  = "==> "
	promptCont  = "... "
)

func makeReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive diagnostics shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

func runRepl() error {
	an, err := boreal.NewAnalyzer()
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath()); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("Boreal front-end. Enter a unit, blank line analyzes. :quit exits.")

	var buf []string
	for {
		prompt := promptMain
		if len(buf) > 0 {
			prompt = promptCont
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				buf = buf[:0]
				continue
			}
			// Ctrl+D or closed input.
			fmt.Println()
			return nil
		}

		switch strings.TrimSpace(input) {
		case ":quit":
			return nil
		case ":show":
			fmt.Println(strings.Join(buf, "\n"))
			continue
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
			buf = append(buf, input)
			continue
		}
		if len(buf) == 0 {
			continue
		}

		src := strings.Join(buf, "\n")
		buf = buf[:0]

		res := an.Analyze(src)
		if n := printDiagnostics(src, res); n == 0 {
			count := 0
			res.SymbolTable.Walk(func(_ *boreal.Scope, _ *boreal.Symbol) { count++ })
			fmt.Printf("ok (%d symbol(s))\n", count)
		}
	}
}
