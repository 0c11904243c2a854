package query

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
)

const (
	defaultListLimit = 50
	defaultListPage  = 1
)

// ListModels expresses list_visible(caller) (spec §4.2): public models, the
// caller's own models, models with an explicit grant to the caller, and
// protected models of the caller's teams, narrowed by the optional
// name/kind/sub-kind/access-level filter. A global admin sees only what
// those clauses admit, not every model.
func (uc *UseCase) ListModels(ctx context.Context, caller permission.Principal, filter mmodel.ModelFilter, limit, page int) ([]*mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_models")
	defer span.End()

	limit, page = normalizePage(limit, page)

	return uc.ModelRepo.ListVisible(ctx, caller.UserID, caller.TeamIDs, filter, limit, page)
}

// PublicListModels lists public models for an unauthenticated caller,
// narrowed by the optional name filter. Access-level and kind/sub-kind
// filters are accepted too for symmetry with ListModels.
func (uc *UseCase) PublicListModels(ctx context.Context, filter mmodel.ModelFilter, limit, page int) ([]*mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.public_list_models")
	defer span.End()

	limit, page = normalizePage(limit, page)

	return uc.ModelRepo.ListPublic(ctx, filter, limit, page)
}

func normalizePage(limit, page int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if page <= 0 {
		page = defaultListPage
	}

	return limit, page
}
