// Package in implements the semantic response cache's HTTP surface:
// suggest/query are open reads, insert is gated by a cache-insert token
// instead of a session token, invalidate and token issuance require a
// session token plus an effective permission on the target model.
package in

import (
	"github.com/google/uuid"
	"github.com/gofiber/fiber/v2"
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/adapters/permsvc"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/cachesvc"
)

// Handler exposes the cache's suggest/lookup/insert/invalidate/token-issue
// operations of spec §4.6.
type Handler struct {
	UseCase    *cachesvc.UseCase
	Permission *permsvc.Resolver
	JWTSecret  []byte
}

func callerID(c *fiber.Ctx) uuid.UUID {
	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return uuid.Nil
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil
	}

	return id
}

func (h *Handler) requirePermission(c *fiber.Ctx, modelID uuid.UUID, min mmodel.Permission) error {
	perm, err := h.Permission.Resolve(c.UserContext(), callerID(c), modelID)
	if err != nil {
		return err
	}

	if !permissionAtLeast(perm, min) {
		return common.ForbiddenError{
			EntityType: "Model",
			Title:      "Insufficient Permission",
			Code:       "1006",
			Message:    "The caller does not have the permission this operation requires.",
		}
	}

	return nil
}

func permissionAtLeast(have, want mmodel.Permission) bool {
	rank := map[mmodel.Permission]int{
		mmodel.PermissionNone:  0,
		mmodel.PermissionRead:  1,
		mmodel.PermissionWrite: 2,
	}

	return rank[have] >= rank[want]
}

type completionPayload struct {
	Query   string  `json:"query"`
	ChunkID *string `json:"chunkId,omitempty"`
}

// Suggest handles GET /cache/suggestions?model_id&query.
func (h *Handler) Suggest(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.cache_suggest")
	defer span.End()

	modelID := c.Query("model_id")
	query := c.Query("query")

	results, err := h.UseCase.Suggest(ctx, modelID, query)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to suggest", err)
		return commonHTTP.WithError(c, err)
	}

	suggestions := make([]completionPayload, 0, len(results))
	for _, r := range results {
		suggestions = append(suggestions, completionPayload{Query: r.Entry.Query, ChunkID: r.Entry.ChunkID})
	}

	return commonHTTP.OK(c, fiber.Map{"suggestions": suggestions})
}

type cachedResponsePayload struct {
	Query    string  `json:"query"`
	ChunkID  *string `json:"chunkId,omitempty"`
	Response string  `json:"response"`
}

// Query handles GET /cache/query?model_id&query, the lookup operation.
func (h *Handler) Query(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.cache_query")
	defer span.End()

	modelID := c.Query("model_id")
	query := c.Query("query")

	result, err := h.UseCase.Lookup(ctx, modelID, query)
	if err != nil {
		if _, ok := err.(common.EntityNotFoundError); ok {
			return commonHTTP.OK(c, fiber.Map{"cachedResponse": nil})
		}

		mopentelemetry.HandleSpanError(&span, "Failed to look up cache entry", err)

		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, fiber.Map{"cachedResponse": cachedResponsePayload{
		Query:    result.Entry.Query,
		ChunkID:  result.Entry.ChunkID,
		Response: result.Entry.Response,
	}})
}

// Insert handles POST /cache/insert?query&llm_res, authenticated by a
// cache-insert token whose Scope names the model being written to.
func (h *Handler) Insert(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.cache_insert")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok || claims.Scope == "" {
		return commonHTTP.Unauthorized(c, "1025", "Invalid Cache Insert Token", "The cache-insert token is missing or malformed.")
	}

	in := &mmodel.CacheInsertInput{
		Query:    c.Query("query"),
		Response: c.Query("llm_res"),
	}

	if chunkID := c.Query("chunk_id"); chunkID != "" {
		in.ChunkID = &chunkID
	}

	if in.Query == "" || in.Response == "" {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "query and llm_res are required"})
	}

	if err := h.UseCase.Insert(ctx, claims.Scope, in); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert cache entry", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, nil)
}

// Invalidate handles POST /cache/invalidate?model_id, requiring write
// permission on the model since it discards every cached response for it.
func (h *Handler) Invalidate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.cache_invalidate")
	defer span.End()

	modelID, err := uuid.Parse(c.Query("model_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "model_id must be a valid id"})
	}

	if err := h.requirePermission(c, modelID, mmodel.PermissionWrite); err != nil {
		mopentelemetry.HandleSpanError(&span, "Invalidate forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	if err := h.UseCase.Invalidate(ctx, modelID.String()); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to invalidate cache", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, nil)
}

// Token handles GET /cache/token?model_id, minting a cache-insert token for
// the LLM-dispatch caller once the session caller is shown to have at least
// read permission on the model whose responses it forwards.
func (h *Handler) Token(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.cache_token")
	defer span.End()

	modelID, err := uuid.Parse(c.Query("model_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "model_id must be a valid id"})
	}

	if err := h.requirePermission(c, modelID, mmodel.PermissionRead); err != nil {
		mopentelemetry.HandleSpanError(&span, "Token issuance forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	token, err := cachesvc.IssueInsertToken(h.JWTSecret, modelID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to issue cache-insert token", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, fiber.Map{"token": token})
}
