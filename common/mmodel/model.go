package mmodel

import "time"

// AccessLevel is a Model's visibility level.
type AccessLevel string

const (
	AccessPrivate   AccessLevel = "private"
	AccessProtected AccessLevel = "protected"
	AccessPublic    AccessLevel = "public"
)

// Permission is an effective or granted permission level.
type Permission string

const (
	PermissionNone  Permission = "none"
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// TrainState is the lifecycle state shared by Model (train) and Deployment (deploy) rows.
type TrainState string

const (
	StateNotStarted TrainState = "not-started"
	StateStarting   TrainState = "starting"
	StateInProgress TrainState = "in-progress"
	StateComplete   TrainState = "complete"
	StateFailed     TrainState = "failed"
	StateStopped    TrainState = "stopped"
)

// Model is the durable catalog row for a model, irrespective of whether its
// artifact bytes exist yet. (OwnerUserID, Name) is unique; ParentModelID
// forms a DAG (enforced acyclic by the catalog layer on write).
type Model struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	OwnerUserID       string      `json:"ownerUserId"`
	TeamID            *string     `json:"teamId"`
	Access            AccessLevel `json:"access"`
	DefaultPermission Permission  `json:"defaultPermission"`
	Kind              string      `json:"kind"`
	SubKind           string      `json:"subKind"`
	TrainState        TrainState  `json:"trainState"`
	ParentModelID     *string     `json:"parentModelId"`
	PublishedAt       *time.Time  `json:"publishedAt"`
	SizeBytes         int64       `json:"sizeBytes"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// Models is a paginated collection of Model.
type Models struct {
	Items []Model `json:"items"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// ModelFilter narrows a listing query by the optional query-string
// parameters /model/list and /model/public-list accept. A zero-value field
// means "don't filter on this".
type ModelFilter struct {
	Name        string
	Kind        string
	SubKind     string
	AccessLevel AccessLevel
}

// ModelMetadata is a 1:1 child of Model, cascade-deleted with it. General and
// Train are free-form maps merged from the runner's terminal-callback
// payload (sizes, parameter counts, training time).
type ModelMetadata struct {
	ModelID   string         `json:"modelId"`
	General   map[string]any `json:"general"`
	Train     map[string]any `json:"train"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ModelPermission is an explicit per-user override on a model. It beats the
// access-level/team-membership resolution path but never beats the owner
// floor (resolve(owner, _) is always write regardless of an explicit grant).
type ModelPermission struct {
	UserID     string     `json:"userId"`
	ModelID    string     `json:"modelId"`
	Permission Permission `json:"permission"`
}

// ModelDependency is a weak (model, depends-on) edge, used for the
// parent/child DAG check; it is a lookup relation, never an ownership link.
type ModelDependency struct {
	ModelID     string `json:"modelId"`
	DependsOnID string `json:"dependsOnId"`
}

// JobMessage is an append-only diagnostic line attached to a Model or
// Deployment's job history.
type JobMessage struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"modelId"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Level     string    `json:"level"`
	Text      string    `json:"text"`
}

// UploadCommitInput is the JSON body accompanying /model/upload-commit,
// supplying the catalog fields that weren't known at upload-token issuance.
type UploadCommitInput struct {
	Kind        string      `json:"type" validate:"required"`
	SubKind     string      `json:"subType"`
	AccessLevel AccessLevel `json:"accessLevel" validate:"required,oneof=private protected public"`
	TeamID      *string     `json:"teamId" validate:"omitempty,uuid"`
}

// TrainRequest is the JSON half of the multipart /train/ndb request.
type TrainRequest struct {
	ModelName   string         `json:"modelName" validate:"required,max=128"`
	BaseModelID *string        `json:"baseModelId" validate:"omitempty,uuid"`
	AccessLevel AccessLevel    `json:"accessLevel" validate:"required,oneof=private protected public"`
	TeamID      *string        `json:"teamId" validate:"omitempty,uuid"`
	Kind        string         `json:"kind" validate:"required"`
	SubKind     string         `json:"subKind"`
	Options     map[string]any `json:"options"`
}

// TrainCompleteInput is the runner's terminal-state callback for a train job.
type TrainCompleteInput struct {
	ModelID  string         `json:"modelId" validate:"required,uuid"`
	Metadata map[string]any `json:"metadata"`
}

// TrainUpdateStatusInput is the runner's intermediate/terminal status callback.
type TrainUpdateStatusInput struct {
	ModelID string     `json:"modelId" validate:"required,uuid"`
	Status  TrainState `json:"status" validate:"required"`
	Message string     `json:"message"`
}

// UpdateAccessLevelInput is the payload for /model/update-access-level.
type UpdateAccessLevelInput struct {
	AccessLevel AccessLevel `json:"accessLevel" validate:"required,oneof=private protected public"`
}

// UpdateDefaultPermissionInput is the payload for /model/update-default-permission.
type UpdateDefaultPermissionInput struct {
	ModelID    string     `json:"modelId" validate:"required,uuid"`
	Permission Permission `json:"permission" validate:"required,oneof=read write"`
}

// UpdateModelPermissionInput is the payload for /model/update-model-permission.
type UpdateModelPermissionInput struct {
	ModelID    string     `json:"modelId" validate:"required,uuid"`
	Email      string     `json:"email" validate:"required,email"`
	Permission Permission `json:"permission" validate:"required,oneof=read write"`
}
