// cmd/boreal/root.go — command-line surface of the Boreal front-end.
//
// Subcommands:
//
//	check  <file>   run the full analysis and print caret diagnostics
//	tokens <file>   dump the token stream (debugging aid)
//	tables          emit the generated ACTION/GOTO tables in the
//	                loadable text format (--rules: the rule list instead)
//	repl            interactive diagnostics shell
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	boreal "github.com/oxixes/boreal-lang-ext"
)

func makeCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "boreal",
		Short:        "Boreal language front-end",
		SilenceUsage: true,
	}
	root.AddCommand(makeCheckCommand())
	root.AddCommand(makeTokensCommand())
	root.AddCommand(makeTablesCommand())
	root.AddCommand(makeReplCommand())
	return root
}

func makeCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Analyze a Boreal source file and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			src := string(data)

			an, err := boreal.NewAnalyzer()
			if err != nil {
				return err
			}
			res := an.Analyze(src)
			n := printDiagnostics(src, res)
			if n > 0 {
				return fmt.Errorf("%d problem(s) found", n)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

// printDiagnostics renders every diagnostic as a caret snippet and
// returns the number printed.
func printDiagnostics(src string, res *boreal.Result) int {
	n := 0
	print := func(header string, ds []boreal.Diag) {
		for _, d := range ds {
			fmt.Println(boreal.RenderDiag(src, header, d))
			n++
		}
	}
	print("LEXICAL ERROR", res.LexicalErrors)
	for _, d := range res.SyntaxErrors {
		fmt.Println(boreal.RenderDiag(src, "SYNTAX ERROR", d.Diag))
		n++
	}
	print("SEMANTIC ERROR", res.SemanticErrors)
	print("WARNING", res.SemanticWarnings)
	return n
}

func makeTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the token stream of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			st := boreal.NewSymbolTable()
			lx := boreal.NewLexer(string(data), st)
			for {
				tok := lx.Next()
				if tok.Kind == boreal.TkEOF {
					break
				}
				fmt.Printf("%4d:%-3d %-10s %q\n", tok.Line, tok.Col, tok.Kind, tok.Lexeme)
			}
			for _, d := range lx.Errors() {
				fmt.Printf("%4d:%-3d lexical error: %s\n", d.Line, d.Col, d.Message)
			}
			return nil
		},
	}
}

func makeTablesCommand() *cobra.Command {
	var showRules bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Emit the generated ACTION/GOTO tables in the loadable format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := boreal.DefaultTables()
			if err != nil {
				return err
			}
			if showRules {
				fmt.Print(boreal.EncodeRules(t.Grammar))
				return nil
			}
			fmt.Print(boreal.EncodeTables(t))
			for _, c := range t.Conflicts {
				fmt.Fprintln(os.Stderr, "conflict:", c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showRules, "rules", false, "emit the production list instead of the tables")
	return cmd
}
