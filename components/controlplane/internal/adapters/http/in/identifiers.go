package in

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/domain/catalog"
	"github.com/thirdway-labs/modelctl/common/domain/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// basicAuthCredentials extracts a username/password pair from the request's
// Basic Authorization header, the transport the login endpoint uses per §6.
func basicAuthCredentials(c *fiber.Ctx) (username, password string, ok bool) {
	auth := c.Get(fiber.HeaderAuthorization)

	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(decoded), ":")

	return username, password, ok
}

// resolveModelIdentifier accepts either a model's UUID or the
// "<owner-username>/<model-name>" form the endpoint surface exposes to
// human clients, and returns the catalog row either way.
func resolveModelIdentifier(ctx context.Context, modelRepo catalog.ModelRepository, userRepo identity.UserRepository, identifier string) (*mmodel.Model, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		return modelRepo.Find(ctx, id)
	}

	owner, name, ok := strings.Cut(identifier, "/")
	if !ok {
		return nil, common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Invalid Model Identifier",
			Message: "model_identifier must be a model id or \"<owner>/<name>\".",
		}
	}

	ownerUser, err := userRepo.FindByUsername(ctx, owner)
	if err != nil {
		return nil, modelNotFoundErrIn()
	}

	ownerID, err := uuid.Parse(ownerUser.ID)
	if err != nil {
		return nil, modelNotFoundErrIn()
	}

	return modelRepo.FindByOwnerAndName(ctx, ownerID, name)
}

func modelNotFoundErrIn() error {
	return common.EntityNotFoundError{
		EntityType: "Model",
		Title:      "Model Not Found",
		Code:       cn.ErrModelNotFound.Error(),
		Message:    "No model was found matching the provided identifier.",
	}
}
