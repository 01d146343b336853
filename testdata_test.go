package mpegg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `
[subsequence.pos]
transform = "EQUALITY_CODING"

[[subsequence.pos.stream]]
output_symbol_size = 1
binarization = "BI"

[[subsequence.pos.stream]]
output_symbol_size = 16
coding_subsym_size = 4
coding_order = 1
subsym_transform = "LUT_TRANSFORM"
binarization = "TU"
cmax = 15

[subsequence.mmpos]
transform = "MATCH_CODING"
match_buffer_size = 64

[[subsequence.mmpos.stream]]
output_symbol_size = 16
binarization = "EG"

[[subsequence.mmpos.stream]]
output_symbol_size = 16
binarization = "EG"

[[subsequence.mmpos.stream]]
output_symbol_size = 8
binarization = "TU"
cmax = 255

[subsequence.rlen]
transform = "RLE_CODING"
rle_guard = 255

[[subsequence.rlen.stream]]
output_symbol_size = 8
binarization = "TU"
cmax = 255

[[subsequence.rlen.stream]]
output_symbol_size = 8
coding_subsym_size = 8
binarization = "SUTU"
split_unit_size = 2

[subsequence.flags]
transform = "MERGE_CODING"

[[subsequence.flags.stream]]
output_symbol_size = 4
binarization = "TU"
cmax = 15

[[subsequence.flags.stream]]
output_symbol_size = 4
binarization = "EG"
bypass = true

[subsequence.mmtype]

[[subsequence.mmtype.stream]]
output_symbol_size = 8
coding_subsym_size = 2
coding_order = 2
binarization = "DTU"
cmax = 3
split_unit_size = 2
adaptive = false
`

func loadTestConfig(t testing.TB) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	return cfg
}

// testSymbols returns a deterministic sequence suited to each test
// subsequence.
func testSymbols(name string, n int) []int64 {
	out := make([]int64, n)
	x := uint32(12345)
	next := func() uint32 {
		x = x*1103515245 + 12345
		return x >> 16
	}
	for i := range out {
		switch name {
		case "pos":
			if i%5 == 0 {
				out[i] = int64(next() % 4096)
			} else if i > 0 {
				out[i] = out[i-1]
			}
		case "mmpos":
			out[i] = int64(i%7) * 3
		case "rlen":
			out[i] = int64(i / 40 % 3)
		case "flags":
			out[i] = int64(next() % 256)
		default:
			out[i] = int64(next() % 8)
		}
	}
	return out
}

// zeroLengthStreams returns mmpos streams whose lengths stream declares
// one symbol followed by zero bytes.
func zeroLengthStreams() []Payload {
	empty := Payload{0, 0, 0, 0}
	lengths := append(Payload{0, 0, 0, 1}, make([]byte, 32)...)
	return []Payload{empty, lengths, empty}
}
