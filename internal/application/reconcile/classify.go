package reconcile

import (
	"context"
	"fmt"

	"github.com/adplan/backend/internal/domain/media"
)

// Classification is the heuristic's verdict for one support
type Classification struct {
	Support    media.Support
	Resolution media.Resolution
	Err        error // set when no media could be resolved
}

// Changes reports whether the verdict differs from the support's stored media
func (c Classification) Changes() bool {
	if c.Err != nil {
		return false
	}
	return !c.Support.HasMedia() || *c.Support.MediaID != c.Resolution.Media.ID
}

// PreviewClassification resolves every support with classifier without writing
func PreviewClassification(ctx context.Context, repos Repositories, classifier *media.Classifier) ([]Classification, error) {
	if classifier == nil {
		classifier = media.NewClassifier()
	}
	all, err := repos.Media.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	supports, err := repos.Supports.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load supports: %w", err)
	}

	out := make([]Classification, 0, len(supports))
	for _, s := range supports {
		res, err := classifier.Resolve(s.Name, all)
		if err != nil {
			res = media.Resolution{Normalized: media.Normalize(s.Name)}
		}
		out = append(out, Classification{Support: s, Resolution: res, Err: err})
	}
	return out, nil
}
