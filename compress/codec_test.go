package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
)

// sensorPayload builds a slowly changing float32 series, the common shape of
// a temperature or pressure batch.
func sensorPayload(n int) []byte {
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := float32(21.5 + 0.01*float64(i%50))
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	return buf
}

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func TestGetCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err, ct.String())
		require.Equal(t, ct, codec.Type())
	}

	_, err := GetCodec(format.CompressionType(0x7))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestCodec_RoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"single element": sensorPayload(1),
		"small batch":    sensorPayload(16),
		"large batch":    sensorPayload(4096),
		"zeros":          make([]byte, 1024),
	}

	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		for pname, payload := range payloads {
			t.Run(ct.String()+"/"+pname, func(t *testing.T) {
				prefix := []byte("hdr:")

				stored, err := codec.AppendCompressed(append([]byte(nil), prefix...), payload)
				require.NoError(t, err)
				require.Equal(t, prefix, stored[:len(prefix)])

				decoded, err := codec.AppendDecompressed(append([]byte(nil), prefix...), stored[len(prefix):], len(payload))
				require.NoError(t, err)
				require.Equal(t, prefix, decoded[:len(prefix)])
				require.True(t, bytes.Equal(payload, decoded[len(prefix):]))
			})
		}
	}
}

func TestCodec_DecodeIntoCapacity(t *testing.T) {
	payload := sensorPayload(256)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			stored, err := codec.AppendCompressed(nil, payload)
			require.NoError(t, err)

			slot := make([]byte, 0, len(payload))
			decoded, err := codec.AppendDecompressed(slot, stored, len(payload))
			require.NoError(t, err)
			require.Equal(t, payload, decoded)
			require.Same(t, &slot[:1][0], &decoded[0], "decoded in place")
		})
	}
}

func TestCodec_Empty(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		stored, err := codec.AppendCompressed(nil, nil)
		require.NoError(t, err)
		require.Empty(t, stored)

		decoded, err := codec.AppendDecompressed(nil, nil, 0)
		require.NoError(t, err)
		require.Empty(t, decoded)

		_, err = codec.AppendDecompressed(nil, nil, 4)
		require.ErrorIs(t, err, errs.ErrPayloadSizeMismatch, ct.String())
	}
}

func TestCodec_SizeMismatch(t *testing.T) {
	payload := sensorPayload(64)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			stored, err := codec.AppendCompressed(nil, payload)
			require.NoError(t, err)

			dst := []byte{0xAA}
			out, err := codec.AppendDecompressed(dst, stored, len(payload)-4)
			require.ErrorIs(t, err, errs.ErrPayloadSizeMismatch)
			require.Equal(t, []byte{0xAA}, out)

			_, err = codec.AppendDecompressed(nil, stored, len(payload)+4)
			require.ErrorIs(t, err, errs.ErrPayloadSizeMismatch)
		})
	}
}

func TestCodec_LargeBatchShrinks(t *testing.T) {
	payload := sensorPayload(4096)
	for _, ct := range allTypes[1:] {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		stored, err := codec.AppendCompressed(nil, payload)
		require.NoError(t, err)
		require.Less(t, len(stored), len(payload), ct.String())
	}
}

func TestCodec_CorruptedInput(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03}

	_, err := ZstdCodec{}.AppendDecompressed(nil, garbage, 16)
	require.Error(t, err)

	_, err = S2Codec{}.AppendDecompressed(nil, garbage, 16)
	require.Error(t, err)
}

func BenchmarkCodec_AppendCompressed(b *testing.B) {
	payload := sensorPayload(256)
	for _, ct := range allTypes[1:] {
		codec, _ := GetCodec(ct)
		b.Run(ct.String(), func(b *testing.B) {
			dst := make([]byte, 0, 2*len(payload))
			b.ReportAllocs()
			b.SetBytes(int64(len(payload)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = codec.AppendCompressed(dst[:0], payload)
			}
		})
	}
}

func BenchmarkCodec_AppendDecompressed(b *testing.B) {
	payload := sensorPayload(256)
	for _, ct := range allTypes[1:] {
		codec, _ := GetCodec(ct)
		stored, _ := codec.AppendCompressed(nil, payload)
		b.Run(ct.String(), func(b *testing.B) {
			dst := make([]byte, 0, len(payload))
			b.ReportAllocs()
			b.SetBytes(int64(len(payload)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = codec.AppendDecompressed(dst[:0], stored, len(payload))
			}
		})
	}
}
