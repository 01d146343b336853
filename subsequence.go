package mpegg

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/transform"
)

// SubsequenceConfig describes the transform of a descriptor subsequence
// and the codec configuration of each of its streams.
type SubsequenceConfig transform.Config

func (c *SubsequenceConfig) inner() *transform.Config {
	return (*transform.Config)(c)
}

// NumStreams returns the number of physical streams of the subsequence.
func (c *SubsequenceConfig) NumStreams() int {
	return c.inner().NumStreams()
}

// Validate checks the transform and every stream configuration.
func (c *SubsequenceConfig) Validate() error {
	return c.inner().Validate()
}

// MarshalBinary returns the decoder configuration block of c, padded to a
// whole byte.
func (c *SubsequenceConfig) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	if err := transform.WriteConfig(w, c.inner()); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary reads a block written by MarshalBinary.
func (c *SubsequenceConfig) UnmarshalBinary(data []byte) error {
	read, err := transform.ReadConfig(bio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return errors.Wrap(err, "reading subsequence configuration")
	}
	*c = SubsequenceConfig(*read)
	return nil
}
