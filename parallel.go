package mpegg

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// EncodeJob is one subsequence to encode.
type EncodeJob struct {
	Config  *SubsequenceConfig
	Symbols []int64
}

// DecodeJob is one subsequence block to decode.
type DecodeJob struct {
	Config *SubsequenceConfig
	Block  []byte
}

// EncodeAll encodes independent subsequences concurrently. Blocks are
// returned in job order. The first failure cancels the remaining jobs.
func EncodeAll(ctx context.Context, jobs []EncodeJob) ([][]byte, error) {
	out := make([][]byte, len(jobs))
	err := forEach(ctx, len(jobs), func(i int) error {
		block, err := Encode(jobs[i].Config, jobs[i].Symbols)
		if err != nil {
			return errors.Wrapf(err, "encoding job %d", i)
		}
		out[i] = block
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeAll decodes independent subsequence blocks concurrently. Symbols
// are returned in job order. The first failure cancels the remaining jobs.
func DecodeAll(ctx context.Context, jobs []DecodeJob) ([][]int64, error) {
	out := make([][]int64, len(jobs))
	err := forEach(ctx, len(jobs), func(i int) error {
		symbols, err := Decode(jobs[i].Config, jobs[i].Block)
		if err != nil {
			return errors.Wrapf(err, "decoding job %d", i)
		}
		out[i] = symbols
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEach runs fn for 0..n-1 on at most GOMAXPROCS goroutines.
func forEach(parent context.Context, n int, fn func(i int) error) error {
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}
