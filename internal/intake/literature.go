// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intake

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/pdiddy/genocode/internal/literature"
	"github.com/pdiddy/genocode/pkg/types"
)

// LinkLiterature searches the backends for every study and links the
// ranked results to it in the store. A study whose search fails is
// skipped; the failures are returned together after all studies ran.
// It returns the number of article links written.
func (s *Service) LinkLiterature(ctx context.Context, studies []types.TraitStudy, backends []literature.Backend, cfg types.LiteratureConfig, w io.Writer) (int, error) {
	var result *multierror.Error
	total := 0
	for _, study := range studies {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		out, err := literature.Search(ctx, literature.QueryForStudy(study), backends, cfg, true, w)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", study.ID, err))
			continue
		}
		n, err := s.Store.LinkArticles(ctx, study.ID, out.Results)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", study.ID, err))
			continue
		}
		total += n
		fmt.Fprintf(w, "%s: linked %d articles (%d duplicates merged)\n", study.ID, n, out.DupsRemoved)
		s.log().Info("literature linked", zap.String("study", study.ID), zap.Int("articles", n))
	}
	return total, result.ErrorOrNil()
}
