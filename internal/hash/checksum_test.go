package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestChecksum_MatchesConcatenation(t *testing.T) {
	header := []byte{0x1A, 0x00, 0x22, 0x00}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	joined := append(append([]byte{}, header...), payload...)
	require.Equal(t, xxhash.Sum64(joined), Checksum(header, payload))
	require.Equal(t, Sum(joined), Checksum(header, payload))
}

func TestChecksum_DetectsChanges(t *testing.T) {
	header := []byte{0x10, 0x00}
	payload := []byte{9, 9, 9, 9}

	base := Checksum(header, payload)

	payload[2] ^= 0x01
	require.NotEqual(t, base, Checksum(header, payload))
	payload[2] ^= 0x01

	header[0] = 0x11
	require.NotEqual(t, base, Checksum(header, payload))
}

func TestChecksum_Empty(t *testing.T) {
	require.Equal(t, xxhash.Sum64(nil), Checksum(nil, nil))
}
