package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// LocalSource implements Source over the local filesystem.
type LocalSource struct {
	basePath string
}

// NewLocalSource creates a new LocalSource instance.
func NewLocalSource(basePath string) (*LocalSource, error) {
	if basePath == "" {
		basePath = "./datasets"
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}

	return &LocalSource{basePath: basePath}, nil
}

// Load reads the scene named by ref from local disk.
func (s *LocalSource) Load(ctx context.Context, ref string) ([]vecmath.Box, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath := s.getFullPath(ref)
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset not found: %s", ref)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return decodeScene(file)
}

// Save writes boxes to local disk under ref.
func (s *LocalSource) Save(ctx context.Context, ref string, boxes []vecmath.Box) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := encodeScene(boxes)
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}

	fullPath := s.getFullPath(ref)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	return nil
}

// Exists checks if ref names an existing dataset.
func (s *LocalSource) Exists(ctx context.Context, ref string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	_, err := os.Stat(s.getFullPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check dataset existence: %w", err)
	}

	return true, nil
}

// GetBasePath returns the base path for the local dataset store.
func (s *LocalSource) GetBasePath() string {
	return s.basePath
}

func (s *LocalSource) getFullPath(ref string) string {
	return filepath.Join(s.basePath, ref)
}
