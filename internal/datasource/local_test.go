package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbvhgo/lbvh/pkg/config"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

func sampleBoxes() []vecmath.Box {
	return []vecmath.Box{
		vecmath.NewBox(vecmath.Vec{0, 0, 0}, vecmath.Vec{1, 1, 1}),
		vecmath.NewBox(vecmath.Vec{2, 2, 2}, vecmath.Vec{3, 3, 3}),
	}
}

func TestNewLocalSource(t *testing.T) {
	t.Run("CreateWithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		defaultPath := filepath.Join(tempDir, "datasets")

		src, err := NewLocalSource(defaultPath)
		require.NoError(t, err)
		require.NotNil(t, src)

		info, err := os.Stat(defaultPath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("CreateWithEmptyPath", func(t *testing.T) {
		origDir, err := os.Getwd()
		require.NoError(t, err)
		defer os.Chdir(origDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		src, err := NewLocalSource("")
		require.NoError(t, err)
		require.NotNil(t, src)

		assert.Equal(t, "./datasets", src.GetBasePath())
	})
}

func TestLocalSource_SaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	src, err := NewLocalSource(tempDir)
	require.NoError(t, err)

	boxes := sampleBoxes()

	t.Run("RoundTrip", func(t *testing.T) {
		err := src.Save(context.Background(), "scenes/scene.json", boxes)
		require.NoError(t, err)

		loaded, err := src.Load(context.Background(), "scenes/scene.json")
		require.NoError(t, err)
		require.Len(t, loaded, len(boxes))
		for i := range boxes {
			assert.Equal(t, boxes[i].Lower, loaded[i].Lower)
			assert.Equal(t, boxes[i].Upper, loaded[i].Upper)
		}
	})

	t.Run("SaveWithCanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := src.Save(ctx, "canceled.json", boxes)
		assert.Error(t, err)
	})
}

func TestLocalSource_Load_NotFound(t *testing.T) {
	tempDir := t.TempDir()
	src, err := NewLocalSource(tempDir)
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "missing.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dataset not found")
}

func TestLocalSource_Exists(t *testing.T) {
	tempDir := t.TempDir()
	src, err := NewLocalSource(tempDir)
	require.NoError(t, err)

	t.Run("Exists", func(t *testing.T) {
		require.NoError(t, src.Save(context.Background(), "present.json", sampleBoxes()))

		exists, err := src.Exists(context.Background(), "present.json")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("NotExists", func(t *testing.T) {
		exists, err := src.Exists(context.Background(), "absent.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestNewSource(t *testing.T) {
	t.Run("CreateLocalSource", func(t *testing.T) {
		tempDir := t.TempDir()
		cfg := &config.StorageConfig{
			Type:      "local",
			LocalPath: tempDir,
		}

		src, err := NewSource(cfg)
		require.NoError(t, err)
		require.NotNil(t, src)

		_, ok := src.(*LocalSource)
		assert.True(t, ok)
	})

	t.Run("CreateDefaultSource", func(t *testing.T) {
		tempDir := t.TempDir()
		cfg := &config.StorageConfig{
			Type:      "",
			LocalPath: tempDir,
		}

		src, err := NewSource(cfg)
		require.NoError(t, err)
		require.NotNil(t, src)

		_, ok := src.(*LocalSource)
		assert.True(t, ok)
	})
}
