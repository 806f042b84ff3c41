// Package datasource loads a build's primitive scene (an array of
// AABBs) from local disk or an S3-compatible / Tencent COS object
// store, referenced by a plain string key.
package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lbvhgo/lbvh/pkg/config"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Source loads the primitive boxes a build job references.
type Source interface {
	// Load reads the primitive scene named by ref and returns its boxes.
	Load(ctx context.Context, ref string) ([]vecmath.Box, error)

	// Save writes boxes under ref, so the scheduler/CLI can stage
	// synthetic or uploaded datasets the same way it loads them.
	Save(ctx context.Context, ref string, boxes []vecmath.Box) error

	// Exists reports whether ref names an existing scene.
	Exists(ctx context.Context, ref string) (bool, error)
}

// SourceType represents the type of dataset backend.
type SourceType string

const (
	SourceTypeLocal SourceType = "local"
	SourceTypeCOS   SourceType = "cos"
)

// NewSource creates a new Source instance based on the configuration.
func NewSource(cfg *config.StorageConfig) (Source, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch SourceType(cfg.Type) {
	case SourceTypeLocal:
		return NewLocalSource(cfg.LocalPath)
	case SourceTypeCOS:
		return NewCOSSource(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalSource(cfg.LocalPath)
	}
}

// ValidateConfig validates the dataset source configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	sourceType := SourceType(cfg.Type)

	// Empty type defaults to local
	if sourceType == "" {
		sourceType = SourceTypeLocal
	}

	if sourceType != SourceTypeCOS && sourceType != SourceTypeLocal {
		return fmt.Errorf("unsupported dataset source type: %s", cfg.Type)
	}

	if sourceType == SourceTypeCOS {
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	}

	if sourceType == SourceTypeLocal {
		if cfg.LocalPath == "" {
			return fmt.Errorf("local dataset path is required")
		}
	}

	return nil
}

// sceneFile is the wire format a dataset ref resolves to: a flat list
// of AABB corners. Boxes of mismatched dimensionality in the same file
// are rejected by decodeScene.
type sceneFile struct {
	Dim   int         `json:"dim"`
	Boxes [][2][]float64 `json:"boxes"` // [i][0]=lower, [i][1]=upper
}

func encodeScene(boxes []vecmath.Box) ([]byte, error) {
	sf := sceneFile{Boxes: make([][2][]float64, len(boxes))}
	if len(boxes) > 0 {
		sf.Dim = boxes[0].Dim()
	}
	for i, b := range boxes {
		sf.Boxes[i] = [2][]float64{[]float64(b.Lower), []float64(b.Upper)}
	}
	return json.Marshal(sf)
}

func decodeScene(r io.Reader) ([]vecmath.Box, error) {
	var sf sceneFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}

	boxes := make([]vecmath.Box, len(sf.Boxes))
	for i, pair := range sf.Boxes {
		lower, upper := pair[0], pair[1]
		if len(lower) != len(upper) {
			return nil, fmt.Errorf("scene box %d has mismatched lower/upper dimensionality", i)
		}
		boxes[i] = vecmath.NewBox(lower, upper)
	}

	return boxes, nil
}
