package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftahirops/pcdiag/config"
	"github.com/ftahirops/pcdiag/engine"
	"github.com/ftahirops/pcdiag/report"
)

// actionError reports a failed engine action with its user-facing message.
type actionError struct {
	state engine.State
}

func (e *actionError) Error() string { return e.state.Status }

func (e *actionError) Unwrap() error { return e.state.Err }

func checkState(s engine.State) error {
	if s.Err != nil {
		return &actionError{state: s}
	}
	return nil
}

func newSysInfoCommand(opts *globalOptions) *cobra.Command {
	var format, output string
	c := &cobra.Command{
		Use:   "sysinfo",
		Short: "Print the hardware and OS inventory",
		Example: `  pcdiag sysinfo
  pcdiag sysinfo -f markdown -o report.md
  pcdiag sysinfo -f json | jq .storage`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			a, err := newApp(opts, modeCLI, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.FetchSystemInfo(cmd.Context(), engine.State{})
			data, err := report.Render(s.SysInfo, f)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(formatNames(), ", "))
	c.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")
	return c
}

func formatNames() []string {
	names := make([]string, len(report.Formats))
	for i, f := range report.Formats {
		names[i] = string(f)
	}
	return names
}

func newMemLogCommand(opts *globalOptions) *cobra.Command {
	var days int
	c := &cobra.Command{
		Use:   "memlog",
		Short: "Show recent OS memory-diagnostic results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, modeCLI, func(cfg *config.Config) {
				if days > 0 {
					cfg.MemDiag.LookbackDays = days
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.ShowMemoryLog(cmd.Context(), engine.State{})
			if err := checkState(s); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.MemDiagText(s.MemLog, a.engine.MemLookbackDays()))
			return nil
		},
	}
	c.Flags().IntVar(&days, "days", 0, "Look back N days (default from config, 7)")
	return c
}

func newMemTestCommand(opts *globalOptions) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "memtest",
		Short: "Schedule the OS memory test (it runs after a restart)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Schedule the OS memory test? It runs after a restart. [y/N]: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Not scheduled.")
					return nil
				}
			}
			a, err := newApp(opts, modeCLI, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.LaunchMemoryTest(cmd.Context(), engine.State{})
			if err := checkState(s); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.LaunchText(*s.LastLaunch))
			return nil
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return c
}

func newSmartCommand(opts *globalOptions) *cobra.Command {
	var (
		run     bool
		list    bool
		file    string
		timeout time.Duration
	)
	c := &cobra.Command{
		Use:   "smart",
		Short: "Show, capture or browse S.M.A.R.T. disk health reports",
		Example: `  pcdiag smart              # newest archived capture
  pcdiag smart --run        # run the S.M.A.R.T. tool now (administrator)
  pcdiag smart --list
  pcdiag smart --file storage_health_log_20240501_102030.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, modeCLI, func(cfg *config.Config) {
				if timeout > 0 {
					cfg.Smart.Timeout = timeout
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			var s engine.State
			switch {
			case list:
				s = a.engine.ShowSmartReport(ctx, s)
				if err := checkState(s); err != nil {
					return err
				}
				fmt.Fprint(out, report.SmartLogList(s.SmartLogs))
				return nil
			case file != "":
				s = a.engine.LoadSmartLog(ctx, s, file)
			case run:
				fmt.Fprintf(cmd.ErrOrStderr(), "Running %s (up to %s)...\n", a.storage.Tool().Kind(), a.engine.CaptureTimeout())
				s = a.engine.RunSmartCapture(ctx, s)
			default:
				s = a.engine.ShowSmartReport(ctx, s)
			}
			if err := checkState(s); err != nil {
				return err
			}
			fmt.Fprint(out, report.SmartText(s.Smart))
			return nil
		},
	}
	c.Flags().BoolVar(&run, "run", false, "Run a new capture (needs administrator rights)")
	c.Flags().BoolVar(&list, "list", false, "List archived captures, newest first")
	c.Flags().StringVar(&file, "file", "", "Show the archived capture with this file name")
	c.Flags().DurationVar(&timeout, "timeout", 0, "Capture timeout (default from config, 60s)")
	c.MarkFlagsMutuallyExclusive("run", "list", "file")
	return c
}
