package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lbvhgo/lbvh/internal/datasource"
	"github.com/lbvhgo/lbvh/pkg/bvh"
	"github.com/lbvhgo/lbvh/pkg/bvhconfig"
	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/parallel"
	"github.com/lbvhgo/lbvh/pkg/utils"
)

var (
	buildInput         string
	buildOutputDir     string
	buildLeafThreshold int
	buildMaxLeafSize   int
	buildBlockWidth    int
)

// buildCmd represents the build command.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a BVH over a dataset",
	Long: `Build constructs a linear BVH over the primitive boxes named by a
dataset reference, using the same pipeline the scheduler runs for
queued jobs, and prints the resulting node count and per-phase timing.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	binName := BinName()
	buildCmd.Example = `  # Build over a dataset staged on local disk
  ` + binName + ` build -i datasets/scene.json

  # Tune the leaf threshold and save a summary
  ` + binName + ` build -i datasets/scene.json --leaf-threshold 4 -o ./output`

	buildCmd.Flags().StringVarP(&buildInput, "input", "i", "", "Dataset reference to build over (required)")
	buildCmd.Flags().StringVarP(&buildOutputDir, "output", "o", "./output", "Directory to write the run summary to")
	buildCmd.Flags().IntVar(&buildLeafThreshold, "leaf-threshold", 0, "Target primitive count per leaf (0 uses the configured default)")
	buildCmd.Flags().IntVar(&buildMaxLeafSize, "max-leaf-size", 0, "Maximum primitives a leaf may hold (0 uses the configured default)")
	buildCmd.Flags().IntVar(&buildBlockWidth, "block-width", 0, "Simulated thread-block width (0 uses the builder default)")
	buildCmd.MarkFlagRequired("input")
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	leafThreshold := buildLeafThreshold
	if leafThreshold == 0 {
		leafThreshold = cfg.Builder.LeafThreshold
	}
	maxLeafSize := buildMaxLeafSize
	if maxLeafSize == 0 {
		maxLeafSize = cfg.Builder.MaxAllowedLeafSize
	}
	blockWidth := buildBlockWidth
	if blockWidth == 0 {
		blockWidth = cfg.Builder.BlockWidth
	}

	src, err := datasource.NewSource(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize dataset source: %w", err)
	}

	log.Info("Loading dataset %s...", buildInput)
	ctx := context.Background()
	boxes, err := src.Load(ctx, buildInput)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	log.Info("Loaded %d primitives", len(boxes))

	timer := utils.NewTimer("build")
	stream := device.NewStream(parallel.DefaultPoolConfig())
	defer stream.Close()

	result, err := bvh.Build(ctx, stream, boxes, bvh.Options{
		Config: bvhconfig.Config{
			LeafThreshold:      leafThreshold,
			MaxAllowedLeafSize: maxLeafSize,
		},
		BlockWidth: blockWidth,
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
	log.Info("=== Build Results ===")
	log.Info("Primitives: %d", len(boxes))
	log.Info("Nodes:      %d", len(result.Nodes))
	log.Info("")
	printPhaseTimings(log, timer)

	return saveBuildSummary(buildOutputDir, buildInput, len(boxes), len(result.Nodes), timer)
}

func printPhaseTimings(log utils.Logger, timer *utils.Timer) {
	log.Info("=== Phase Timings ===")
	for _, phase := range timer.GetPhases() {
		log.Info("  %-20s %v", phase.Name, phase.Duration)
	}
}

func saveBuildSummary(outputDir, ref string, primitiveCount, nodeCount int, timer *utils.Timer) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := map[string]interface{}{
		"dataset_ref":     ref,
		"primitive_count": primitiveCount,
		"node_count":      nodeCount,
		"phases":          timer.ToMap(),
		"created_at":      time.Now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	return os.WriteFile(filepath.Join(outputDir, "summary.json"), data, 0644)
}
