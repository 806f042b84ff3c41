package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lbvhgo/lbvh/internal/repository"
)

var historyLimit int

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent build runs recorded by the scheduler",
	Long: `History connects to the configured database and prints the most
recent build runs the scheduler has recorded, along with their status,
primitive/node counts, and total duration.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	binName := BinName()
	historyCmd.Example = `  # List the 20 most recent runs
  ` + binName + ` history

  # List the 5 most recent runs
  ` + binName + ` history --limit 5`

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	gormDB, err := repository.NewGormDB(&repository.DBConfig{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos := repository.NewRepositories(gormDB, cfg.Database.Type)
	defer repos.Close()

	ctx := context.Background()
	runs, err := repos.Run.ListRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		log.Info("No runs recorded yet")
		return nil
	}

	log.Info("%-36s %-10s %-9s %9s %9s  %s", "RUN UUID", "STATUS", "DURATION", "PRIMS", "NODES", "DATASET")
	for _, run := range runs {
		log.Info("%-36s %-10s %9v %9d %9d  %s",
			run.RunUUID, run.Status.String(), run.Duration(), run.PrimitiveCount, run.NodeCount, run.DatasetRef)
	}

	return nil
}
