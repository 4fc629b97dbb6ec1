package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lashdev/lash/internal/config"
	"github.com/lashdev/lash/internal/journal"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past agent runs",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	infos, err := journal.List(paths.JournalDir())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("no sessions yet")
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%s  %-20s  %3d msgs  %s\n", info.RelativeTime(), info.Model, info.MessageCount, info.FirstMessage)
	}
	return nil
}
