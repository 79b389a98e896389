package measurement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/stepflow/compress"
	"github.com/arloliu/stepflow/endian"
	"github.com/arloliu/stepflow/errs"
	"github.com/arloliu/stepflow/format"
	"github.com/arloliu/stepflow/internal/hash"
)

func rampF32(t *testing.T, n int, c format.CompressionType) *Measurement {
	t.Helper()

	h, err := MakeHeader(format.CTypeFloat32, format.UnitDegreeCelsius, format.ScaleNone, uint32(n)) //nolint:gosec
	require.NoError(t, err)
	h.Flags = h.Flags.WithCompression(c)
	h.Source = 7
	h.Timestamp = 1_760_000_000_000_000

	m := New(h, make([]byte, h.PayloadSize))
	for i := 0; i < n; i++ {
		require.NoError(t, m.SetFloat64(i, 20+0.01*float64(i%32)))
	}

	return m
}

func TestFrame_RoundTrip(t *testing.T) {
	for _, c := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(c.String(), func(t *testing.T) {
			m := rampF32(t, 512, c)

			frame, err := Marshal(m)
			require.NoError(t, err)

			got, err := Unmarshal(frame)
			require.NoError(t, err)
			require.Equal(t, m.Header, got.Header)
			require.Equal(t, m.Payload, got.Payload)
		})
	}
}

func TestFrame_DeclaredSizeDisagreesWithStored(t *testing.T) {
	m := rampF32(t, 2, format.CompressionS2)

	// A well-formed, correctly checksummed frame whose header claims four
	// elements while the stored block decodes to two.
	h := m.Header
	h.SampleCount = 4
	h.PayloadSize = 16

	stored, err := compress.S2Codec{}.AppendCompressed(nil, m.Payload)
	require.NoError(t, err)

	engine := endian.GetWireEngine()
	frame := h.AppendBinary(nil)
	frame = engine.AppendUint32(frame, uint32(len(stored))) //nolint:gosec
	frame = append(frame, stored...)
	frame = engine.AppendUint64(frame, hash.Checksum(frame[:HeaderSize], stored))

	_, err = Unmarshal(frame)
	require.ErrorIs(t, err, errs.ErrPayloadSizeMismatch)
}

func TestFrame_EmptyPayload(t *testing.T) {
	m := rampF32(t, 0, format.CompressionZstd)

	frame, err := Marshal(m)
	require.NoError(t, err)
	require.Len(t, frame, frameOverhead)

	got, err := Unmarshal(frame)
	require.NoError(t, err)
	require.Empty(t, got.Payload)
}

func TestFrame_Concatenated(t *testing.T) {
	a := rampF32(t, 4, format.CompressionNone)
	b := rampF32(t, 8, format.CompressionS2)

	buf, err := AppendFrame(nil, a)
	require.NoError(t, err)
	buf, err = AppendFrame(buf, b)
	require.NoError(t, err)

	var m Measurement
	n, err := DecodeInto(&m, buf)
	require.NoError(t, err)
	require.Equal(t, a.Payload, m.Payload)

	_, err = DecodeInto(&m, buf[n:])
	require.NoError(t, err)
	require.Equal(t, b.Payload, m.Payload)
}

func TestFrame_Errors(t *testing.T) {
	m := rampF32(t, 16, format.CompressionNone)
	frame, err := Marshal(m)
	require.NoError(t, err)

	t.Run("flipped payload byte", func(t *testing.T) {
		bad := append([]byte(nil), frame...)
		bad[HeaderSize+frameLengthSize+3] ^= 0xFF
		_, err := Unmarshal(bad)
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("flipped source byte", func(t *testing.T) {
		bad := append([]byte(nil), frame...)
		bad[6] ^= 0x01
		_, err := Unmarshal(bad)
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Unmarshal(frame[:len(frame)-1])
		require.ErrorIs(t, err, errs.ErrFrameTruncated)

		_, err = Unmarshal(frame[:HeaderSize+2])
		require.ErrorIs(t, err, errs.ErrFrameTruncated)
	})

	t.Run("short header", func(t *testing.T) {
		_, err := Unmarshal(frame[:10])
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("invalid header", func(t *testing.T) {
		bad := append([]byte(nil), frame...)
		bad[0] = 0x00
		_, err := Unmarshal(bad)
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
	})

	t.Run("marshal rejects inconsistent measurement", func(t *testing.T) {
		bad := rampF32(t, 4, format.CompressionNone)
		bad.Payload = bad.Payload[:12]
		_, err := Marshal(bad)
		require.ErrorIs(t, err, errs.ErrPayloadSizeMismatch)
	})
}

func TestDecodeInto_ReusesStorage(t *testing.T) {
	m := rampF32(t, 8, format.CompressionLZ4)
	frame, err := Marshal(m)
	require.NoError(t, err)

	backing := make([]byte, 0, 64)
	dst := Measurement{Payload: backing}
	_, err = DecodeInto(&dst, frame)
	require.NoError(t, err)
	require.Same(t, &backing[:1][0], &dst.Payload[0])
}

func BenchmarkFrame_Marshal(b *testing.B) {
	h, _ := MakeHeader(format.CTypeFloat32, format.UnitPascal, format.ScaleNone, 256)
	m := New(h, make([]byte, h.PayloadSize))
	buf := make([]byte, 0, 2048)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, _ = AppendFrame(buf[:0], m)
	}
}
