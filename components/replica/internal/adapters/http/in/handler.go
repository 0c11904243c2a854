// Package in implements the deployed-replica's HTTP surface: search/predict
// reads go straight to the in-memory snapshot; insert/delete/upvote/
// associate/save go through the write coordinator, matching the teacher's
// thin-handler/fat-service-layer split.
package in

import (
	"encoding/json"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/replica/internal/adapters/permsvc"
	"github.com/thirdway-labs/modelctl/components/replica/internal/services/coordinator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes the per-replica read/write surface of spec §4.5.
type Handler struct {
	Coordinator   *coordinator.Coordinator
	Permission    *permsvc.Resolver
	SourceModelID uuid.UUID
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

func (h *Handler) requirePermission(c *fiber.Ctx, min mmodel.Permission) (uuid.UUID, error) {
	ctx := c.UserContext()

	userID := callerID(c)

	perm, err := h.Permission.Resolve(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}

	if !permissionAtLeast(perm, min) {
		return uuid.Nil, common.ForbiddenError{
			EntityType: "Deployment",
			Title:      "Insufficient Permission",
			Code:       "1006",
			Message:    "The caller does not have the permission this operation requires.",
		}
	}

	return userID, nil
}

func permissionAtLeast(have, want mmodel.Permission) bool {
	rank := map[mmodel.Permission]int{
		mmodel.PermissionNone:  0,
		mmodel.PermissionRead:  1,
		mmodel.PermissionWrite: 2,
	}

	return rank[have] >= rank[want]
}

// searchRequest is the JSON body of /search and /predict.
type searchRequest struct {
	Query       string         `json:"query" validate:"required"`
	TopK        int            `json:"topK"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

// Search ranks documents against query and returns up to TopK matches.
func (h *Handler) Search(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_search")
	defer span.End()

	if _, err := h.requirePermission(c, mmodel.PermissionRead); err != nil {
		mopentelemetry.HandleSpanError(&span, "Search forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*searchRequest)

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	return commonHTTP.OK(c, h.Coordinator.Snapshot.Search(req.Query, topK))
}

// Predict returns the single best match, standing in for model inference
// (spec Non-goals exclude building the retrieval/vector index itself).
func (h *Handler) Predict(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_predict")
	defer span.End()

	if _, err := h.requirePermission(c, mmodel.PermissionRead); err != nil {
		mopentelemetry.HandleSpanError(&span, "Predict forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*searchRequest)

	result, ok := h.Coordinator.Snapshot.Predict(req.Query)
	if !ok {
		return commonHTTP.OK(c, nil)
	}

	return commonHTTP.OK(c, result)
}

// insertRequest is the JSON body of /insert. Large document bodies are
// expected to have already been staged through the chunked-upload protocol
// of §4.3; this call registers the reference (and/or small inline text).
type insertRequest struct {
	SourceID string            `json:"sourceId" validate:"required"`
	Text     string            `json:"text"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Insert applies (development mode) or logs (production mode) a document
// insert, acknowledging 200 or 202 to match.
func (h *Handler) Insert(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_insert")
	defer span.End()

	userID, err := h.requirePermission(c, mmodel.PermissionWrite)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Insert forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*insertRequest)

	payload, _ := json.Marshal(req)

	applied, err := h.Coordinator.Insert(ctx, userID.String(), coordinator.InsertInput{
		SourceID: req.SourceID,
		Text:     req.Text,
		Labels:   req.Labels,
	}, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert document", err)
		return commonHTTP.WithError(c, err)
	}

	return acceptedOrOK(c, applied)
}

// deleteRequest is the JSON body of /delete.
type deleteRequest struct {
	SourceIDs []string `json:"sourceIds" validate:"required,min=1"`
}

// Delete removes documents by source id.
func (h *Handler) Delete(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_delete")
	defer span.End()

	userID, err := h.requirePermission(c, mmodel.PermissionWrite)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Delete forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*deleteRequest)

	payload, _ := json.Marshal(req)

	applied, err := h.Coordinator.Delete(ctx, userID.String(), req.SourceIDs, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to delete documents", err)
		return commonHTTP.WithError(c, err)
	}

	return acceptedOrOK(c, applied)
}

// upvoteRequest is the JSON body of /upvote: pairs of (query text id, target source id).
type upvoteRequest struct {
	TextIDPairs [][2]string `json:"textIdPairs" validate:"required,min=1"`
}

// Upvote boosts the target of each (query, target) pair; requires only read
// permission, since it reflects feedback from a reader rather than a catalog
// mutation.
func (h *Handler) Upvote(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_upvote")
	defer span.End()

	userID, err := h.requirePermission(c, mmodel.PermissionRead)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Upvote forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*upvoteRequest)

	targets := make([]string, 0, len(req.TextIDPairs))
	for _, pair := range req.TextIDPairs {
		targets = append(targets, pair[1])
	}

	payload, _ := json.Marshal(req)

	applied, err := h.Coordinator.Upvote(ctx, userID.String(), targets, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to upvote", err)
		return commonHTTP.WithError(c, err)
	}

	return acceptedOrOK(c, applied)
}

// associateRequest is the JSON body of /associate.
type associateRequest struct {
	TextPairs [][2]string `json:"textPairs" validate:"required,min=1"`
}

// Associate teaches taught-synonym pairs; requires only read permission.
func (h *Handler) Associate(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_associate")
	defer span.End()

	userID, err := h.requirePermission(c, mmodel.PermissionRead)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Associate forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*associateRequest)

	payload, _ := json.Marshal(req)

	applied, err := h.Coordinator.Associate(ctx, userID.String(), req.TextPairs, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to associate", err)
		return commonHTTP.WithError(c, err)
	}

	return acceptedOrOK(c, applied)
}

// saveRequest is the JSON body of /save.
type saveRequest struct {
	Override  bool   `json:"override"`
	ModelName string `json:"modelName"`
}

// Save creates a new Model row under a new name, or (owner only) designates
// the current model as the save target in place.
func (h *Handler) Save(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "handler.replica_save")
	defer span.End()

	userID, err := h.requirePermission(c, mmodel.PermissionWrite)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Save forbidden", err)
		return commonHTTP.WithError(c, err)
	}

	req := i.(*saveRequest)

	if !req.Override && req.ModelName == "" {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "modelName is required unless override is set"})
	}

	model, err := h.Coordinator.Save(ctx, userID, h.SourceModelID, coordinator.SaveInput{
		Override:  req.Override,
		ModelName: req.ModelName,
	})
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to save", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.Created(c, model)
}

func acceptedOrOK(c *fiber.Ctx, applied bool) error {
	if applied {
		return commonHTTP.OK(c, nil)
	}

	return commonHTTP.Accepted(c, nil)
}
