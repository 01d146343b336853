package mpegg

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/transform"
)

// Config maps descriptor subsequence names to their configuration.
//
// It is read from a TOML file of the form:
//
//	[subsequence.pos]
//	transform = "EQUALITY_CODING"
//
//	[[subsequence.pos.stream]]
//	output_symbol_size = 1
//	binarization = "BI"
//
//	[[subsequence.pos.stream]]
//	output_symbol_size = 16
//	coding_subsym_size = 8
//	coding_order = 1
//	subsym_transform = "LUT_TRANSFORM"
//	binarization = "TU"
//	cmax = 255
type Config struct {
	Subsequences map[string]*SubsequenceConfig
}

// Names returns the subsequence names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Subsequences))
	for name := range c.Subsequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fileConfig struct {
	Subsequence map[string]subsequenceConfig `toml:"subsequence"`
}

type subsequenceConfig struct {
	Transform        string         `toml:"transform"`
	MatchBufferSize  uint16         `toml:"match_buffer_size"`
	MinPatternLength int            `toml:"min_pattern_length"`
	RLEGuard         uint8          `toml:"rle_guard"`
	Streams          []streamConfig `toml:"stream"`
}

type streamConfig struct {
	OutputSymbolSize uint    `toml:"output_symbol_size"`
	CodingSubsymSize uint    `toml:"coding_subsym_size"`
	CodingOrder      uint    `toml:"coding_order"`
	SubsymTransform  string  `toml:"subsym_transform"`
	ShareSubsymLUT   bool    `toml:"share_subsym_lut"`
	ShareSubsymPrv   bool    `toml:"share_subsym_prv"`
	ShareSubsymCtx   bool    `toml:"share_subsym_ctx"`
	Binarization     string  `toml:"binarization"`
	CMax             uint64  `toml:"cmax"`
	SplitUnitSize    uint    `toml:"split_unit_size"`
	Bypass           bool    `toml:"bypass"`
	Adaptive         *bool   `toml:"adaptive"`
	InitValues       []uint8 `toml:"init_values"`
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	var f fileConfig
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return buildConfig(f, md)
}

// ParseConfig parses a TOML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var f fileConfig
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(err, "parsing configuration")
	}
	return buildConfig(f, md)
}

func buildConfig(f fileConfig, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	c := &Config{Subsequences: make(map[string]*SubsequenceConfig, len(f.Subsequence))}
	for name, s := range f.Subsequence {
		sub, err := s.build()
		if err != nil {
			return nil, errors.Wrapf(err, "subsequence %q", name)
		}
		c.Subsequences[name] = sub
	}
	return c, nil
}

func (s subsequenceConfig) build() (*SubsequenceConfig, error) {
	id := transform.NoTransform
	if s.Transform != "" {
		var err error
		if id, err = transform.ParseID(s.Transform); err != nil {
			return nil, err
		}
	}
	c := &SubsequenceConfig{
		ID:               id,
		MatchBufferSize:  s.MatchBufferSize,
		MinPatternLength: s.MinPatternLength,
		RLEGuard:         s.RLEGuard,
	}
	for i, st := range s.Streams {
		sc, err := st.build()
		if err != nil {
			return nil, errors.Wrapf(err, "stream %d", i)
		}
		c.Streams = append(c.Streams, sc)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s streamConfig) build() (*cabac.Config, error) {
	c := &cabac.Config{
		OutputSymbolSize: s.OutputSymbolSize,
		CodingSubsymSize: s.CodingSubsymSize,
		CodingOrder:      s.CodingOrder,
		ShareSubsymLUT:   s.ShareSubsymLUT,
		ShareSubsymPrv:   s.ShareSubsymPrv,
		ShareSubsymCtx:   s.ShareSubsymCtx,
		Bypass:           s.Bypass,
		Adaptive:         true,
		InitValues:       s.InitValues,
	}
	if c.CodingSubsymSize == 0 {
		c.CodingSubsymSize = c.OutputSymbolSize
	}
	if s.Adaptive != nil {
		c.Adaptive = *s.Adaptive
	}
	if s.SubsymTransform != "" {
		t, err := cabac.ParseSubsymTransform(s.SubsymTransform)
		if err != nil {
			return nil, err
		}
		c.Transform = t
	}
	id, err := binarization.ParseID(s.Binarization)
	if err != nil {
		return nil, err
	}
	c.Binarization, err = binarization.New(id, binarization.Params{
		CMax:          s.CMax,
		SplitUnitSize: s.SplitUnitSize,
		SymbolSize:    c.CodingSubsymSize,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
