package ui

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// All runs every fetch concurrently and succeeds only if all of them do.
// The first failure cancels the rest and is the only error returned.
func All(ctx context.Context, fetches ...func(context.Context) error) error {
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, fetch := range fetches {
		p.Go(fetch)
	}
	return p.Wait()
}
