package layout

import (
	"context"
	"fmt"
	"runtime"

	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"golang.org/x/sync/errgroup"
)

// Builder assembles a model from the stripe table and DEF pin files
type Builder struct {
	Layers  LayerSet
	Stripes StripeConfig

	// DEFOptions are passed to every extractor
	DEFOptions []def.Option

	// Jobs bounds how many DEF files are read at once; <= 0 means GOMAXPROCS
	Jobs int
}

// NewBuilder creates a builder with the default layers and stripe table
func NewBuilder() *Builder {
	return &Builder{
		Layers:  DefaultLayers(),
		Stripes: DefaultStripeConfig(),
	}
}

// Build draws the stripes, then the pins of each DEF file in argument order.
// Files are read and extracted concurrently; insertion into the model
// happens on the calling goroutine so name conflicts are reported
// deterministically. Any conflict aborts the build with a *ConflictError.
func (b *Builder) Build(ctx context.Context, cell string, defPaths []string) (*Model, []*def.Result, error) {
	if err := b.Stripes.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid stripe table: %w", err)
	}

	results, err := b.extractAll(ctx, defPaths)
	if err != nil {
		return nil, nil, err
	}

	m := NewModel(cell)
	if err := m.AddStripes(b.Stripes, b.Layers); err != nil {
		return nil, nil, err
	}

	for _, res := range results {
		if err := m.AddDEF(res, b.Layers); err != nil {
			return nil, results, err
		}
	}
	return m, results, nil
}

func (b *Builder) extractAll(ctx context.Context, paths []string) ([]*def.Result, error) {
	results := make([]*def.Result, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// each goroutine writes only its own slot
			res, err := def.ParseFile(path, b.DEFOptions...)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AddDEF resolves and inserts every record of an extraction result
func (m *Model) AddDEF(res *def.Result, layers LayerSet) error {
	for _, rec := range res.Ports {
		port, poly := ResolvePort(rec, res.Header.Units, layers.Metal)
		port.Source = sourceOf(res.Path, rec)
		if err := m.AddPort(port); err != nil {
			return err
		}
		m.AddPolygon(poly)
	}
	return nil
}
