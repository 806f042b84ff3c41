package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lbvhgo/lbvh/internal/testutil"
	"github.com/lbvhgo/lbvh/pkg/bvh"
	"github.com/lbvhgo/lbvh/pkg/bvhconfig"
	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/parallel"
	"github.com/lbvhgo/lbvh/pkg/utils"
)

var (
	benchCount         int
	benchDim           int
	benchSeed          int64
	benchLeafThreshold int
	benchMaxLeafSize   int
	benchBlockWidth    int
)

// benchCmd represents the bench command.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the builder against a synthetic scene",
	Long: `Bench generates a synthetic scene of random axis-aligned boxes and
runs the builder over it, reporting per-phase timings. Useful for
tuning the leaf threshold, max leaf size, or block width without
needing a staged dataset.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	binName := BinName()
	benchCmd.Example = `  # Benchmark a million random 3D boxes
  ` + binName + ` bench -n 1000000 --dim 3

  # Compare block widths on the same seed
  ` + binName + ` bench -n 500000 --seed 42 --block-width 512`

	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 100000, "Number of random boxes to build over")
	benchCmd.Flags().IntVar(&benchDim, "dim", 3, "Dimensionality of the synthetic scene (2, 3 or 4)")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "Random seed for the synthetic scene")
	benchCmd.Flags().IntVar(&benchLeafThreshold, "leaf-threshold", 8, "Target primitive count per leaf")
	benchCmd.Flags().IntVar(&benchMaxLeafSize, "max-leaf-size", 32, "Maximum primitives a leaf may hold")
	benchCmd.Flags().IntVar(&benchBlockWidth, "block-width", 0, "Simulated thread-block width (0 uses the builder default)")
}

func runBench(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	log.Info("Generating %d random %dD boxes (seed %d)...", benchCount, benchDim, benchSeed)
	boxes := testutil.RandomBoxes(benchCount, benchDim, benchSeed)

	timer := utils.NewTimer("bench")
	stream := device.NewStream(parallel.DefaultPoolConfig())
	defer stream.Close()

	ctx := context.Background()
	result, err := bvh.Build(ctx, stream, boxes, bvh.Options{
		Config: bvhconfig.Config{
			LeafThreshold:      benchLeafThreshold,
			MaxAllowedLeafSize: benchMaxLeafSize,
		},
		BlockWidth: benchBlockWidth,
		Timer:      timer,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := stream.Sync(ctx); err != nil {
		return fmt.Errorf("stream sync failed: %w", err)
	}

	log.Info("")
	log.Info("=== Bench Results ===")
	log.Info("Primitives: %d", len(boxes))
	log.Info("Nodes:      %d", len(result.Nodes))
	log.Info("Total time: %v", timer.TotalDuration())
	log.Info("")
	printPhaseTimings(log, timer)

	return nil
}
