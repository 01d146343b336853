package transform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
)

func plainConfig(t require.TestingT) *Config {
	return &Config{ID: NoTransform, Streams: []*cabac.Config{byteConfig(t)}}
}

func equalityConfig(t require.TestingT) *Config {
	return &Config{ID: EqualityCoding, Streams: []*cabac.Config{flagConfig(t), byteConfig(t)}}
}

func matchConfig(t require.TestingT, bufSize uint16, minLen int) *Config {
	return &Config{
		ID:               MatchCoding,
		MatchBufferSize:  bufSize,
		MinPatternLength: minLen,
		Streams:          []*cabac.Config{wideConfig(16), wideConfig(16), byteConfig(t)},
	}
}

func rleConfig(t require.TestingT, guard uint8) *Config {
	return &Config{ID: RLECoding, RLEGuard: guard, Streams: []*cabac.Config{byteConfig(t), byteConfig(t)}}
}

func mergeConfig(t require.TestingT) *Config {
	four := byteConfig(t)
	four.OutputSymbolSize, four.CodingSubsymSize = 4, 4
	four.Binarization = wideConfig(4).Binarization
	return &Config{ID: MergeCoding, Streams: []*cabac.Config{four, byteConfig(t)}}
}

func TestID_String(t *testing.T) {
	for id := ID(0); id < numIDs; id++ {
		got, err := ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, "Unknown", ID(9).String())
	_, err := ParseID("BWT")
	assert.True(t, errors.Is(err, ErrInvalidTransform))
}

func TestNoTransform_Roundtrip(t *testing.T) {
	symbols := []int64{0, 255, 17, 17, 3}
	_, got := roundtrip(t, plainConfig(t), symbols)
	assert.Equal(t, symbols, got)

	_, got = roundtrip(t, plainConfig(t), nil)
	assert.Empty(t, got)
}

func TestEquality_Roundtrip(t *testing.T) {
	symbols := []int64{0, 0, 5, 5, 5, 2, 9, 9, 8, 255, 0}
	streams, got := roundtrip(t, equalityConfig(t), symbols)
	assert.Equal(t, symbols, got)
	assert.Equal(t, []int64{1, 1, 0, 1, 1, 0, 0, 1, 0, 0, 0}, symbolsOf(t, flagConfig(t), streams[0]))
	assert.Equal(t, []int64{4, 2, 8, 8, 254, 0}, symbolsOf(t, byteConfig(t), streams[1]))
}

func TestEquality_SizeFollowsChanges(t *testing.T) {
	short := []int64{5, 5, 7}
	long := append(make([]int64, 0, 1002), 5)
	for i := 0; i < 1000; i++ {
		long = append(long, 5)
	}
	long = append(long, 7)

	a, _ := roundtrip(t, equalityConfig(t), short)
	b, gotLong := roundtrip(t, equalityConfig(t), long)
	assert.Equal(t, long, gotLong)
	assert.Equal(t, a[1], b[1], "values stream depends on value changes only")
	assert.Less(t, len(b[0]), 64)
}

func TestEquality_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		symbols := rapid.SliceOfN(rapid.Int64Range(0, 7), 0, 200).Draw(t, "symbols")
		got, err := tryRoundtrip(equalityConfig(t), symbols)
		if err != nil {
			t.Fatalf("roundtrip: %v", err)
		}
		if !assert.Equal(t, append([]int64{}, symbols...), got) {
			t.FailNow()
		}
	})
}

func TestMatch_RepeatedPattern(t *testing.T) {
	c := matchConfig(t, 16, 0)
	symbols := []int64{1, 2, 3, 1, 2, 3, 1, 2, 3}
	streams, got := roundtrip(t, c, symbols)
	assert.Equal(t, symbols, got)
	assert.Equal(t, []int64{3}, symbolsOf(t, wideConfig(16), streams[0]))
	assert.Equal(t, []int64{0, 0, 0, 6}, symbolsOf(t, wideConfig(16), streams[1]))
	assert.Equal(t, []int64{1, 2, 3}, symbolsOf(t, byteConfig(t), streams[2]))
}

func TestMatch_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		bufSize uint16
		minLen  int
		symbols []int64
	}{
		{"empty", 8, 0, nil},
		{"shorter than min pattern", 8, 0, []int64{1, 2, 3}},
		{"single symbol", 1, 1, []int64{9}},
		{"buffer of one", 1, 1, []int64{4, 4, 4, 4, 5, 5, 4}},
		{"pattern across flush", 4, 2, []int64{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4, 9}},
		{"min pattern of one", 8, 1, []int64{1, 2, 1, 3, 1, 2, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := roundtrip(t, matchConfig(t, tt.bufSize, tt.minLen), tt.symbols)
			assert.Equal(t, append([]int64{}, tt.symbols...), got)
		})
	}
}

func TestMatch_LongRun(t *testing.T) {
	c := matchConfig(t, 16, 0)
	symbols := make([]int64, 1000)
	for i := range symbols {
		symbols[i] = 9
	}
	streams, got := roundtrip(t, c, symbols)
	assert.Equal(t, symbols, got)

	lengths := symbolsOf(t, wideConfig(16), streams[1])
	assert.Less(t, len(lengths), 100)
	assert.Equal(t, []int64{9}, symbolsOf(t, byteConfig(t), streams[2]))
	for _, p := range symbolsOf(t, wideConfig(16), streams[0]) {
		assert.True(t, p >= 1 && p <= 16, "distance %d", p)
	}
}

func TestMatch_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bufSize := rapid.IntRange(1, 40).Draw(t, "bufSize")
		minLen := rapid.IntRange(1, 6).Draw(t, "minLen")
		symbols := rapid.SliceOfN(rapid.Int64Range(0, 3), 0, 300).Draw(t, "symbols")
		got, err := tryRoundtrip(matchConfig(t, uint16(bufSize), minLen), symbols)
		if err != nil {
			t.Fatalf("roundtrip: %v", err)
		}
		if !assert.Equal(t, append([]int64{}, symbols...), got) {
			t.FailNow()
		}
	})
}

func TestMatch_CorruptPointer(t *testing.T) {
	c := matchConfig(t, 16, 0)
	streams := []payload.Payload{
		encoded(t, wideConfig(16), 3),
		encoded(t, wideConfig(16), 0, 5),
		encoded(t, byteConfig(t), 7),
	}
	dec, err := NewDecoder(c, streams)
	require.NoError(t, err)
	v, err := dec.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
	_, err = dec.Read()
	assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestRLE_GuardBoundary(t *testing.T) {
	const guard = 4
	tests := []struct {
		run     int
		lengths []int64
	}{
		{1, []int64{0}},
		{guard - 1, []int64{2}},
		{guard, []int64{3}},
		{guard + 1, []int64{4, 0}},
		{2 * guard, []int64{4, 3}},
		{2*guard + 1, []int64{4, 4, 0}},
	}
	for _, tt := range tests {
		symbols := make([]int64, tt.run)
		for i := range symbols {
			symbols[i] = 6
		}
		streams, got := roundtrip(t, rleConfig(t, guard), symbols)
		assert.Equal(t, symbols, got, "run %d", tt.run)
		assert.Equal(t, tt.lengths, symbolsOf(t, byteConfig(t), streams[0]), "run %d", tt.run)
		assert.Equal(t, []int64{6}, symbolsOf(t, byteConfig(t), streams[1]), "run %d", tt.run)
	}
}

func TestRLE_BinaryAlphabet(t *testing.T) {
	// The final run is flushed on close for any alphabet.
	symbols := []int64{0, 0, 1, 1, 1, 0, 1}
	streams, got := roundtrip(t, rleConfig(t, 2), symbols)
	assert.Equal(t, symbols, got)
	assert.Equal(t, []int64{0, 1, 0, 1}, symbolsOf(t, byteConfig(t), streams[1]))
}

func TestRLE_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		guard := rapid.IntRange(1, 10).Draw(t, "guard")
		symbols := rapid.SliceOfN(rapid.Int64Range(0, 2), 0, 300).Draw(t, "symbols")
		got, err := tryRoundtrip(rleConfig(t, uint8(guard)), symbols)
		if err != nil {
			t.Fatalf("roundtrip: %v", err)
		}
		if !assert.Equal(t, append([]int64{}, symbols...), got) {
			t.FailNow()
		}
	})
}

func TestRLE_CorruptLength(t *testing.T) {
	streams := []payload.Payload{encoded(t, byteConfig(t), 9), encoded(t, byteConfig(t), 1)}
	dec, err := NewDecoder(rleConfig(t, 4), streams)
	require.NoError(t, err)
	_, err = dec.Read()
	assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)

	streams = []payload.Payload{encoded(t, byteConfig(t), 4), encoded(t, byteConfig(t), 1)}
	dec, err = NewDecoder(rleConfig(t, 4), streams)
	require.NoError(t, err)
	_, err = dec.Read()
	assert.True(t, errors.Is(err, ErrCorrupt), "lengths end inside a run: got %v", err)
}

func TestEquality_MissingValue(t *testing.T) {
	streams := []payload.Payload{encoded(t, flagConfig(t), 0), encoded(t, byteConfig(t))}
	dec, err := NewDecoder(equalityConfig(t), streams)
	require.NoError(t, err)
	_, err = dec.Read()
	assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestMerge_Roundtrip(t *testing.T) {
	c := mergeConfig(t)
	assert.Equal(t, []uint{8, 0}, c.MergeShifts())

	symbols := []int64{0xABC, 0, 0xFFF, 0x123}
	streams, got := roundtrip(t, c, symbols)
	assert.Equal(t, symbols, got)
	assert.Equal(t, []int64{0xA, 0, 0xF, 0x1}, symbolsOf(t, c.Streams[0], streams[0]))
	assert.Equal(t, []int64{0xBC, 0, 0xFF, 0x23}, symbolsOf(t, c.Streams[1], streams[1]))

	enc, err := NewEncoder(c)
	require.NoError(t, err)
	err = enc.Write(0x1000)
	assert.Error(t, err)
	assert.Error(t, enc.Write(-1))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"unknown id", &Config{ID: 7}},
		{"stream count", &Config{ID: EqualityCoding, Streams: []*cabac.Config{byteConfig(t)}}},
		{"nil stream", &Config{ID: NoTransform, Streams: []*cabac.Config{nil}}},
		{"zero buffer", matchConfig(t, 0, 0)},
		{"negative pattern", matchConfig(t, 8, -1)},
		{"zero guard", rleConfig(t, 0)},
		{"no merge streams", &Config{ID: MergeCoding}},
		{"merge shift too large", &Config{ID: MergeCoding, Streams: []*cabac.Config{wideConfig(8), wideConfig(32)}}},
		{"merge too wide", &Config{ID: MergeCoding, Streams: []*cabac.Config{wideConfig(32), wideConfig(31), wideConfig(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidTransform), "got %v", err)
		})
	}

	bad := plainConfig(t)
	bad.Streams[0].CodingSubsymSize = 3
	assert.True(t, errors.Is(bad.Validate(), cabac.ErrInvalidConfig))
}

func marshalConfig(t *testing.T, c *Config) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	require.NoError(t, WriteConfig(w, c))
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func TestConfig_Roundtrip(t *testing.T) {
	for _, c := range []*Config{
		plainConfig(t), equalityConfig(t), matchConfig(t, 300, 0), rleConfig(t, 17), mergeConfig(t),
	} {
		t.Run(c.ID.String(), func(t *testing.T) {
			data := marshalConfig(t, c)
			got, err := ReadConfig(bio.NewReader(bytes.NewReader(data)))
			require.NoError(t, err)
			assert.Equal(t, c.ID, got.ID)
			assert.Equal(t, c.MatchBufferSize, got.MatchBufferSize)
			assert.Equal(t, c.RLEGuard, got.RLEGuard)
			assert.Len(t, got.Streams, len(c.Streams))
			assert.Equal(t, data, marshalConfig(t, got))
		})
	}
}

func TestReadConfig_MergeShiftMismatch(t *testing.T) {
	c := mergeConfig(t)
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	require.NoError(t, w.WriteBits(uint64(MergeCoding), 8))
	require.NoError(t, w.WriteBits(2, 4))
	require.NoError(t, w.WriteBits(5, 5))
	require.NoError(t, w.WriteBits(0, 5))
	for _, s := range c.Streams {
		require.NoError(t, cabac.WriteConfig(w, s))
	}
	require.NoError(t, w.Flush())

	_, err := ReadConfig(bio.NewReader(bytes.NewReader(buf.Bytes())))
	assert.True(t, errors.Is(err, ErrInvalidTransform), "got %v", err)
}

func TestReadConfig_UnknownID(t *testing.T) {
	_, err := ReadConfig(bio.NewReader(bytes.NewReader([]byte{0x09})))
	assert.True(t, errors.Is(err, ErrInvalidTransform), "got %v", err)
}

func TestNewDecoder_StreamCount(t *testing.T) {
	_, err := NewDecoder(equalityConfig(t), []payload.Payload{encoded(t, flagConfig(t))})
	assert.True(t, errors.Is(err, ErrInvalidTransform), "got %v", err)
}
