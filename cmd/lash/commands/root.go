// Package commands provides the CLI commands for lash.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lashdev/lash/internal/config"
	"github.com/lashdev/lash/internal/logging"
)

var (
	// Version is set at build time via -ldflags.
	Version = "0.1.0"
)

var (
	printLogs bool
	logLevel  string
	logFile   bool
	showCfg   bool
)

var rootCmd = &cobra.Command{
	Use:   "lash",
	Short: "lash runs a code-executing coding agent against a persistent sandbox",
	Long: `lash drives an LLM through a code-executing agent loop: the model
writes code, lash runs it in a persistent interpreter sandbox, brokers any
tool calls the code issues, and feeds the result back to the model.

Run 'lash run "<prompt>"' to start a one-shot agent turn, or 'lash sessions'
to list past runs.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCfg := logging.Config{
			Level:     logging.ParseLevel(logLevel),
			Output:    os.Stderr,
			Pretty:    printLogs,
			LogToFile: logFile,
		}
		if !printLogs && !logFile {
			logCfg.Level = logging.FatalLevel
		}
		logging.Init(logCfg)

		if showCfg {
			dir, err := os.Getwd()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			cfg, err := config.Load(dir)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			b, _ := json.MarshalIndent(cfg, "", "  ")
			fmt.Println(string(b))
			os.Exit(0)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Write logs to a timestamped file under the cache dir")
	rootCmd.PersistentFlags().BoolVar(&showCfg, "show-config", false, "Print merged configuration as JSON and exit")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
