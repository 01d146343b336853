package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
)

func byteConfig(t require.TestingT) *cabac.Config {
	tu, err := binarization.NewTruncatedUnary(255)
	require.NoError(t, err)
	return &cabac.Config{OutputSymbolSize: 8, CodingSubsymSize: 8, Binarization: tu, Adaptive: true}
}

func flagConfig(t require.TestingT) *cabac.Config {
	tu, err := binarization.NewTruncatedUnary(1)
	require.NoError(t, err)
	return &cabac.Config{OutputSymbolSize: 1, CodingSubsymSize: 1, Binarization: tu, Adaptive: true}
}

func wideConfig(size uint) *cabac.Config {
	return &cabac.Config{OutputSymbolSize: size, CodingSubsymSize: size, Binarization: binarization.ExpGolomb{}, Adaptive: true}
}

func roundtrip(t testing.TB, c *Config, symbols []int64) ([]payload.Payload, []int64) {
	t.Helper()
	enc, err := NewEncoder(c)
	require.NoError(t, err)
	for _, v := range symbols {
		require.NoError(t, enc.Write(v))
	}
	streams, err := enc.Close()
	require.NoError(t, err)
	require.Len(t, streams, c.NumStreams())

	dec, err := NewDecoder(c, streams)
	require.NoError(t, err)
	return streams, readAll(t, dec)
}

func readAll(t testing.TB, dec Decoder) []int64 {
	t.Helper()
	out := []int64{}
	for dec.HasNext() {
		v, err := dec.Read()
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

// tryRoundtrip is roundtrip without assertions for property tests.
func tryRoundtrip(c *Config, symbols []int64) ([]int64, error) {
	enc, err := NewEncoder(c)
	if err != nil {
		return nil, err
	}
	for _, v := range symbols {
		if err := enc.Write(v); err != nil {
			return nil, err
		}
	}
	streams, err := enc.Close()
	if err != nil {
		return nil, err
	}
	dec, err := NewDecoder(c, streams)
	if err != nil {
		return nil, err
	}
	out := []int64{}
	for dec.HasNext() {
		v, err := dec.Read()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func symbolsOf(t testing.TB, cfg *cabac.Config, p payload.Payload) []int64 {
	t.Helper()
	out, err := cabac.DecodeSymbols(cfg, p)
	require.NoError(t, err)
	return out
}

func encoded(t testing.TB, cfg *cabac.Config, symbols ...int64) payload.Payload {
	t.Helper()
	data, err := cabac.EncodeSymbols(cfg, symbols)
	require.NoError(t, err)
	return data
}
