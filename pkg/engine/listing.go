package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
)

// Groups writes the clusters of every clusterset file in dir, one line per file.
func (e *Engine) Groups(ctx context.Context, dir string, w io.Writer) error {
	sets, err := e.loadDir(ctx, dir)
	if err != nil {
		return err
	}

	for _, cs := range sets {
		formatErr := cs.Format(w)
		if formatErr != nil {
			return formatErr
		}
	}

	return nil
}

// Elements writes the deduplicated, sorted element names of every clusterset in dir.
func (e *Engine) Elements(ctx context.Context, dir string, w io.Writer) error {
	sets, err := e.loadDir(ctx, dir)
	if err != nil {
		return err
	}

	names := clusterset.GenerateElementList(sets...)

	e.logger.DebugContext(ctx, "element list generated", slog.Int("elements", len(names)))

	return clusterset.WriteElementList(w, names)
}
