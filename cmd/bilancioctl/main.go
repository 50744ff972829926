// Command bilancioctl manages the ledger from a terminal, against the same
// store the web server uses.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

// app carries what every command needs. Tests inject ledger and streams.
type app struct {
	ledger      *services.LedgerService
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	income  *color.Color
	expense *color.Color
	bold    *color.Color
}

func newApp(in io.Reader, out io.Writer, interactive, colored bool) *app {
	a := &app{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		income:      color.New(color.FgGreen),
		expense:     color.New(color.FgRed),
		bold:        color.New(color.Bold),
	}
	for _, c := range []*color.Color{a.income, a.expense, a.bold} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return a
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// confirm asks a yes/no question. Without a terminal the answer is def.
func (a *app) confirm(question string, def bool) bool {
	if !a.interactive {
		return def
	}
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(a.out, "%s %s ", question, hint)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bilancioctl",
		Short:         "Manage personal income and expense transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.ledger != nil {
				return nil
			}
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentCLI, os.Stderr)
			ledger, err := cli.BuildLedger(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			a.ledger = ledger
			return nil
		},
	}

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newSummaryCmd(a),
		newTrendCmd(a),
	)
	return root
}

// userError prefers the sentence the web UI would show.
func userError(err error) error {
	if msg := services.UserMessage(err); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return err
}

func main() {
	a := newApp(os.Stdin, os.Stdout, isTerminal(os.Stdin), isTerminal(os.Stdout))
	err := newRootCmd(a).Execute()
	if a.ledger != nil {
		if cerr := a.ledger.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
