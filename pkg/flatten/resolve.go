package flatten

import (
	"context"
	stderrors "errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/observability"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

// ResolveAll runs every field's Future on up to workers goroutines and
// returns a copy of fields with Value filled in and Future cleared. Fields
// that already carry a Value are left alone. The first failure cancels the
// remaining work.
func ResolveAll(ctx context.Context, fields []Field, workers int) (_ []Field, err error) {
	ctx, span := observability.StartSpan(ctx, "flatten.resolve",
		attribute.Int("fields", len(fields)),
		attribute.Int("workers", workers))
	defer func() { observability.EndSpan(span, err) }()

	out := make([]Field, len(fields))
	copy(out, fields)

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range out {
		if out[i].Value != nil || out[i].Future == nil {
			continue
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := resolve(out[i])
			if err != nil {
				return err
			}
			out[i].Value = v
			out[i].Future = nil
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "field resolution cancelled")
		}
		return nil, err
	}
	return out, nil
}

// Resolved wraps an already-computed value as a Future
func Resolved(v values.Array) Future {
	return func() (values.Array, error) { return v, nil }
}
