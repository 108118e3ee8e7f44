package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressJSONRoundTrip(t *testing.T) {
	in := map[string]string{"text": strings.Repeat("hello ", 200)}

	data, err := CompressJSON(in)
	require.NoError(t, err)
	assert.Less(t, len(data), len(in["text"]))

	var out map[string]string
	require.NoError(t, DecompressJSON(data, &out))
	assert.Equal(t, in, out)
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := DecompressData([]byte("not brotli at all"))
	assert.Error(t, err)
}
