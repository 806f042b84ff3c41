package datasource

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeScene_RoundTrip(t *testing.T) {
	boxes := sampleBoxes()

	data, err := encodeScene(boxes)
	require.NoError(t, err)

	decoded, err := decodeScene(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded, len(boxes))
	for i := range boxes {
		assert.Equal(t, boxes[i].Lower, decoded[i].Lower)
		assert.Equal(t, boxes[i].Upper, decoded[i].Upper)
	}
}

func TestEncodeDecodeScene_Empty(t *testing.T) {
	data, err := encodeScene(nil)
	require.NoError(t, err)

	decoded, err := decodeScene(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeScene_MismatchedDimensionality(t *testing.T) {
	raw := `{"dim":3,"boxes":[[[0,0,0],[1,1]]]}`

	_, err := decodeScene(strings.NewReader(raw))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched lower/upper dimensionality")
}

func TestDecodeScene_InvalidJSON(t *testing.T) {
	_, err := decodeScene(strings.NewReader("not json"))
	assert.Error(t, err)
}
