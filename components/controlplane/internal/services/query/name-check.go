package query

import (
	"context"
	"errors"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/google/uuid"
)

// NameCheck reports whether name is still available to ownerID (true when
// ownerID owns no model called name), so a client can validate availability
// before starting an upload.
func (uc *UseCase) NameCheck(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.name_check")
	defer span.End()

	_, err := uc.ModelRepo.FindByOwnerAndName(ctx, ownerID, name)
	if err == nil {
		return false, nil
	}

	var notFound common.EntityNotFoundError
	if errors.As(err, &notFound) {
		return true, nil
	}

	return false, err
}
