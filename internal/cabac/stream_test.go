package cabac

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

type streamPreset struct {
	name string
	cfg  *Config
	gen  *rapid.Generator[int64]
}

func streamPresets(t testing.TB) []streamPreset {
	sdtuInit := make([]uint8, 24)
	for i := range sdtuInit {
		sdtuInit[i] = uint8(i * 5 % 128)
	}
	return []streamPreset{
		{"TU order0", tuConfig(t, 255, 8, 8, 0), rapid.Int64Range(0, 255)},
		{"BI two lanes", &Config{
			OutputSymbolSize: 16, CodingSubsymSize: 8,
			Binarization: mustBin(t, binarization.IDBinary, binarization.Params{SymbolSize: 8}),
			Adaptive:     true,
		}, rapid.Int64Range(0, 65535)},
		{"TU order2 four lanes", tuConfig(t, 3, 8, 2, 2), rapid.Int64Range(0, 255)},
		{"SUTU order1 shared", &Config{
			OutputSymbolSize: 8, CodingSubsymSize: 4, CodingOrder: 1,
			ShareSubsymPrv: true, ShareSubsymCtx: true,
			Binarization: mustBin(t, binarization.IDSplitUnitTU, binarization.Params{SplitUnitSize: 2, SymbolSize: 4}),
			Adaptive:     true,
		}, rapid.Int64Range(0, 255)},
		{"diff SSUTU", &Config{
			Transform: SubsymDiff, OutputSymbolSize: 8, CodingSubsymSize: 8, CodingOrder: 1,
			Binarization: mustBin(t, binarization.IDSignedSplitUnitTU, binarization.Params{SplitUnitSize: 4, SymbolSize: 8}),
			Adaptive:     true,
		}, rapid.Int64Range(0, 255)},
		{"diff SEG order2", &Config{
			Transform: SubsymDiff, OutputSymbolSize: 32, CodingSubsymSize: 32, CodingOrder: 2,
			Binarization: binarization.SignedExpGolomb{},
			Adaptive:     true,
		}, rapid.Int64Range(0, math.MaxUint32)},
		{"LUT TU order1", func() *Config {
			c := tuConfig(t, 15, 8, 4, 1)
			c.Transform = SubsymLUT
			return c
		}(), rapid.Int64Range(0, 255)},
		{"LUT TEG order2", &Config{
			Transform: SubsymLUT, OutputSymbolSize: 4, CodingSubsymSize: 4, CodingOrder: 2,
			Binarization: mustBin(t, binarization.IDTruncatedExpGolomb, binarization.Params{CMax: 2}),
			Adaptive:     true,
		}, rapid.Int64Range(0, 15)},
		{"LUT EG shared", &Config{
			Transform: SubsymLUT, OutputSymbolSize: 6, CodingSubsymSize: 2,
			ShareSubsymLUT: true,
			Binarization:   binarization.ExpGolomb{},
			Adaptive:       true,
		}, rapid.Int64Range(0, 63)},
		{"bypass BI63", &Config{
			OutputSymbolSize: 63, CodingSubsymSize: 63,
			Binarization: mustBin(t, binarization.IDBinary, binarization.Params{SymbolSize: 63}),
			Bypass:       true,
		}, rapid.Int64Range(0, math.MaxInt64)},
		{"SDTU fixed init", &Config{
			OutputSymbolSize: 10, CodingSubsymSize: 10,
			Binarization: mustBin(t, binarization.IDSignedDoubleTU, binarization.Params{CMax: 2, SplitUnitSize: 3, SymbolSize: 10}),
			InitValues:   sdtuInit,
		}, rapid.Int64Range(-1023, 1023)},
		{"STEG order1", &Config{
			OutputSymbolSize: 8, CodingSubsymSize: 8, CodingOrder: 1,
			Binarization: mustBin(t, binarization.IDSignedTruncatedExpGolomb, binarization.Params{CMax: 3}),
			Adaptive:     true,
		}, rapid.Int64Range(-255, 255)},
		{"DTU two lanes", &Config{
			OutputSymbolSize: 12, CodingSubsymSize: 6,
			Binarization: mustBin(t, binarization.IDDoubleTU, binarization.Params{CMax: 5, SplitUnitSize: 2, SymbolSize: 6}),
			Adaptive:     true,
		}, rapid.Int64Range(0, 4095)},
	}
}

func TestStream_RoundtripProperty(t *testing.T) {
	for _, p := range streamPresets(t) {
		t.Run(p.name, func(t *testing.T) {
			require.NoError(t, p.cfg.Validate())
			rapid.Check(t, func(rt *rapid.T) {
				symbols := rapid.SliceOfN(p.gen, 0, 200).Draw(rt, "symbols")
				data, err := EncodeSymbols(p.cfg, symbols)
				if err != nil {
					rt.Fatalf("encode: %v", err)
				}
				got, err := DecodeSymbols(p.cfg, data)
				if err != nil {
					rt.Fatalf("decode: %v", err)
				}
				if len(symbols) == 0 {
					symbols = []int64{}
				}
				if !assert.Equal(rt, symbols, got) {
					rt.FailNow()
				}
			})
		})
	}
}

func TestStream_Empty(t *testing.T) {
	cfg := tuConfig(t, 3, 2, 2, 0)
	data, err := EncodeSymbols(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)

	d, err := NewDecoder(cfg, data)
	require.NoError(t, err)
	assert.False(t, d.HasNext())
	_, err = d.Decode()
	assert.True(t, errors.Is(err, ErrEndOfStream))
}

func TestStream_CountPrefix(t *testing.T) {
	cfg := tuConfig(t, 3, 2, 2, 0)
	data, err := EncodeSymbols(cfg, []int64{1, 2, 3, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 5}, data[:4])
}

func TestStream_EndOfStream(t *testing.T) {
	cfg := tuConfig(t, 255, 8, 8, 0)
	data, err := EncodeSymbols(cfg, []int64{7, 9})
	require.NoError(t, err)

	d, err := NewDecoder(cfg, data)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.Remaining())
	for _, want := range []int64{7, 9} {
		require.True(t, d.HasNext())
		v, err := d.Decode()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.False(t, d.HasNext())
	_, err = d.Decode()
	assert.True(t, errors.Is(err, ErrEndOfStream))
}

func TestStream_Deterministic(t *testing.T) {
	for _, p := range streamPresets(t) {
		t.Run(p.name, func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				symbols := rapid.SliceOfN(p.gen, 1, 100).Draw(rt, "symbols")
				a, err := EncodeSymbols(p.cfg, symbols)
				if err != nil {
					rt.Fatalf("encode: %v", err)
				}
				b, err := EncodeSymbols(p.cfg, symbols)
				if err != nil {
					rt.Fatalf("encode: %v", err)
				}
				if !bytes.Equal(a, b) {
					rt.Fatalf("two encodings differ")
				}
			})
		})
	}
}

func TestStream_LUTSingleValueCell(t *testing.T) {
	// A cell holding one value caps TU at cMax 0, so repeats cost nothing.
	cfg := tuConfig(t, 15, 4, 4, 0)
	cfg.Transform = SubsymLUT

	one, err := EncodeSymbols(cfg, []int64{7})
	require.NoError(t, err)
	repeated := make([]int64, 1000)
	for i := range repeated {
		repeated[i] = 7
	}
	many, err := EncodeSymbols(cfg, repeated)
	require.NoError(t, err)
	assert.Equal(t, one[4:], many[4:])

	got, err := DecodeSymbols(cfg, many)
	require.NoError(t, err)
	assert.Len(t, got, 1000)
	for _, v := range got {
		assert.Equal(t, int64(7), v)
	}
}

func TestStream_LUTRanksIgnoreTUCMax(t *testing.T) {
	// Ten distinct values rank up to 9, beyond the configured cMax of 3.
	cfg := tuConfig(t, 3, 8, 8, 0)
	cfg.Transform = SubsymLUT
	symbols := make([]int64, 10)
	for i := range symbols {
		symbols[i] = int64(i)
	}
	data, err := EncodeSymbols(cfg, symbols)
	require.NoError(t, err)
	got, err := DecodeSymbols(cfg, data)
	require.NoError(t, err)
	assert.Equal(t, symbols, got)
}

func TestStream_AdaptiveCompresses(t *testing.T) {
	symbols := make([]int64, 1000)
	adaptive := tuConfig(t, 255, 8, 8, 0)
	fixed := tuConfig(t, 255, 8, 8, 0)
	fixed.Adaptive = false

	a, err := EncodeSymbols(adaptive, symbols)
	require.NoError(t, err)
	f, err := EncodeSymbols(fixed, symbols)
	require.NoError(t, err)
	assert.Less(t, len(a), 64)
	assert.Less(t, len(a), len(f))

	got, err := DecodeSymbols(fixed, f)
	require.NoError(t, err)
	assert.Equal(t, symbols, got)
}

func TestEncoder_OutOfRange(t *testing.T) {
	cfg := tuConfig(t, 255, 8, 8, 0)
	e, err := NewEncoder(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Encode(4))
	assert.True(t, errors.Is(e.Encode(256), binarization.ErrValueOutOfRange))
	assert.True(t, errors.Is(e.Encode(-1), binarization.ErrValueOutOfRange))
	require.NoError(t, e.Encode(5))
	assert.Equal(t, uint64(2), e.Count())

	data, err := e.Close()
	require.NoError(t, err)
	got, err := DecodeSymbols(cfg, data)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, got)

	_, err = e.Close()
	assert.Error(t, err)
	assert.Error(t, e.Encode(1))
}

func TestEncoder_FailureIsPermanent(t *testing.T) {
	// 5 fits the 8-bit symbol but not TU cMax 2.
	e, err := NewEncoder(tuConfig(t, 2, 8, 8, 0))
	require.NoError(t, err)
	require.NoError(t, e.Encode(1))
	err = e.Encode(5)
	assert.True(t, errors.Is(err, binarization.ErrValueOutOfRange), "got %v", err)
	assert.Equal(t, err, e.Encode(9))
	_, closeErr := e.Close()
	assert.Equal(t, err, closeErr)
}

func TestEncoder_SignedOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		bad  []int64
		good []int64
	}{
		{"SEG", &Config{
			OutputSymbolSize: 8, CodingSubsymSize: 8,
			Binarization: binarization.SignedExpGolomb{},
			Adaptive:     true,
		}, []int64{1000, 256, -256, math.MinInt64}, []int64{255, -255, 0}},
		{"STEG", &Config{
			OutputSymbolSize: 4, CodingSubsymSize: 4,
			Binarization: mustBin(t, binarization.IDSignedTruncatedExpGolomb, binarization.Params{CMax: 2}),
			Adaptive:     true,
		}, []int64{16, -16}, []int64{15, -15}},
		{"diff SEG", &Config{
			Transform: SubsymDiff, OutputSymbolSize: 8, CodingSubsymSize: 8, CodingOrder: 1,
			Binarization: binarization.SignedExpGolomb{},
			Adaptive:     true,
		}, []int64{-1, 256}, []int64{255, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEncoder(tt.cfg)
			require.NoError(t, err)
			for _, v := range tt.bad {
				err := e.Encode(v)
				assert.True(t, errors.Is(err, binarization.ErrValueOutOfRange), "%d: got %v", v, err)
			}
			for _, v := range tt.good {
				require.NoError(t, e.Encode(v))
			}
			data, err := e.Close()
			require.NoError(t, err)
			got, err := DecodeSymbols(tt.cfg, data)
			require.NoError(t, err)
			assert.Equal(t, tt.good, got)
		})
	}
}

func TestDecoder_CorruptPrefix(t *testing.T) {
	// Zero bytes decode as an endless run of most probable zeros, an EG
	// prefix longer than the context table.
	data := append([]byte{0, 0, 0, 1}, make([]byte, 32)...)
	for _, cfg := range []*Config{
		{OutputSymbolSize: 16, CodingSubsymSize: 16, Binarization: binarization.ExpGolomb{}, Adaptive: true},
		{OutputSymbolSize: 8, CodingSubsymSize: 8, Binarization: binarization.SignedExpGolomb{}, Adaptive: true},
	} {
		t.Run(cfg.Binarization.ID().String(), func(t *testing.T) {
			_, err := DecodeSymbols(cfg, data)
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
		})
	}
}

func TestDecoder_SignedWiderThanOutput(t *testing.T) {
	// 300 coded with a 9-bit STEG stays inside the 8-bit table but
	// exceeds the 8-bit symbol range.
	steg := mustBin(t, binarization.IDSignedTruncatedExpGolomb, binarization.Params{CMax: 3})
	wide := &Config{OutputSymbolSize: 9, CodingSubsymSize: 9, Binarization: steg, Adaptive: true}
	narrow := &Config{OutputSymbolSize: 8, CodingSubsymSize: 8, Binarization: steg, Adaptive: true}
	data, err := EncodeSymbols(wide, []int64{-300})
	require.NoError(t, err)
	_, err = DecodeSymbols(narrow, data)
	assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestNewEncoder_InvalidConfig(t *testing.T) {
	_, err := NewEncoder(tuConfig(t, 3, 8, 3, 0))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewDecoder(tuConfig(t, 3, 8, 3, 0), []byte{0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDecoder_Truncated(t *testing.T) {
	cfg := tuConfig(t, 255, 8, 8, 0)
	_, err := NewDecoder(cfg, []byte{0, 0})
	assert.True(t, errors.Is(err, bio.ErrEndOfData), "got %v", err)

	_, err = NewDecoder(cfg, []byte{0, 0, 0, 1})
	assert.True(t, errors.Is(err, bio.ErrEndOfData), "got %v", err)

	symbols := make([]int64, 300)
	for i := range symbols {
		symbols[i] = int64(i % 256)
	}
	data, err := EncodeSymbols(cfg, symbols)
	require.NoError(t, err)
	_, err = DecodeSymbols(cfg, data[:len(data)/2])
	assert.Error(t, err)
}
