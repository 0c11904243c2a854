package in

import (
	"strconv"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/command"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/query"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadHandler exposes artifact upload and download, the two endpoints
// that accept a bearer token other than the session kind.
type UploadHandler struct {
	Command   *command.UseCase
	Query     *query.UseCase
	Principal *PrincipalResolver
	JWTSecret []byte
}

// uploadTokenResponse is the payload returned by IssueUploadToken.
type uploadTokenResponse struct {
	Token string        `json:"token"`
	Model *mmodel.Model `json:"model"`
}

// IssueUploadToken reserves a model name against the caller's session token
// and mints an upload token scoped to the reservation.
func (handler *UploadHandler) IssueUploadToken(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.issue_upload_token")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	size, err := strconv.ParseInt(c.Query("size"), 10, 64)
	if err != nil || size <= 0 {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "size must be a positive integer"})
	}

	token, model, err := handler.Command.IssueUploadToken(ctx, userID, c.Query("model_name"), size, handler.JWTSecret)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to issue upload token", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, uploadTokenResponse{Token: token, Model: model})
}

// UploadChunk writes one chunk of the artifact named by the upload token's scope.
func (handler *UploadHandler) UploadChunk(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.upload_chunk")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer upload token")
	}

	chunkNumber, err := strconv.Atoi(c.Query("chunk_number"))
	if err != nil || chunkNumber < 1 {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "chunk_number must be a positive integer"})
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "chunk must be supplied as multipart form file \"chunk\""})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return commonHTTP.WithError(c, err)
	}
	defer file.Close()

	if err := handler.Command.UploadChunk(ctx, claims, chunkNumber, file); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to write upload chunk", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, fiber.Map{"chunkNumber": chunkNumber})
}

// UploadCommit concatenates every uploaded chunk into the final artifact and
// publishes the reserved model row.
func (handler *UploadHandler) UploadCommit(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.upload_commit")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer upload token")
	}

	totalChunks, err := strconv.Atoi(c.Query("total_chunks"))
	if err != nil || totalChunks < 1 {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "total_chunks must be a positive integer"})
	}

	payload := i.(*mmodel.UploadCommitInput)

	model, err := handler.Command.UploadCommit(ctx, claims, totalChunks, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to commit upload", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, model)
}

// Download streams a model's artifact to an authenticated caller with at
// least read permission.
func (handler *UploadHandler) Download(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.download")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	model, err := resolveModelIdentifier(ctx, handler.Query.ModelRepo, handler.Query.UserRepo, c.Query("model_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	modelID, err := uuid.Parse(model.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "model id is malformed")
	}

	caller := handler.Principal.Resolve(ctx, userID)

	r, _, err := handler.Query.DownloadModel(ctx, caller, modelID, c.QueryBool("compressed"))
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to open artifact for download", err)
		return commonHTTP.WithError(c, err)
	}
	defer r.Close()

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

	return c.SendStream(r)
}

// PublicDownload streams a public model's artifact without authentication.
func (handler *UploadHandler) PublicDownload(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.public_download")
	defer span.End()

	model, err := resolveModelIdentifier(ctx, handler.Query.ModelRepo, handler.Query.UserRepo, c.Query("model_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	modelID, err := uuid.Parse(model.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "model id is malformed")
	}

	r, _, err := handler.Query.PublicDownloadModel(ctx, modelID, c.QueryBool("compressed"))
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to open artifact for public download", err)
		return commonHTTP.WithError(c, err)
	}
	defer r.Close()

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

	return c.SendStream(r)
}
