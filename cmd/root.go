package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ftahirops/pcdiag/report"
	"github.com/ftahirops/pcdiag/ui"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

const Name = "pcdiag"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dataDir    string
	verbosity  int
	logFile    string
}

// Run parses the command line and runs the selected command.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewCommand().ExecuteContext(ctx)
}

// NewCommand builds the pcdiag command tree. Without a subcommand it starts
// the interactive TUI.
func NewCommand() *cobra.Command {
	opts := &globalOptions{verbosity: -1}
	root := &cobra.Command{
		Use:   Name,
		Short: "PC hardware diagnostics: system inventory, memory test history and disk S.M.A.R.T.",
		Long: `pcdiag collects a hardware and OS inventory, reads the OS memory-diagnostic
history, schedules the OS memory test, and runs a S.M.A.R.T. tool
(CrystalDiskInfo on Windows, smartctl elsewhere) to report disk health.

Run without a command for the interactive console.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to the config file (default: <user config dir>/pcdiag/config.toml)")
	pf.StringVar(&opts.dataDir, "data-dir", "", "Directory for archived S.M.A.R.T. captures")
	pf.IntVarP(&opts.verbosity, "verbosity", "v", -1, "Log verbosity (0 = info, 1 = commands and details)")
	pf.StringVar(&opts.logFile, "log-file", "", "Write logs to this file (the console logs nowhere by default)")

	root.AddCommand(newSysInfoCommand(opts))
	root.AddCommand(newMemLogCommand(opts))
	root.AddCommand(newMemTestCommand(opts))
	root.AddCommand(newSmartCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", Name, Version)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	a, err := newApp(opts, modeTUI, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := report.ParseFormat(a.cfg.UI.ExportFormat)
	if err != nil {
		a.log.Info("Ignoring export format from config", "error", err.Error())
		format = report.FormatText
	}
	m := ui.NewModel(a.engine, a.cfg.UI.DefaultPage, format)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
