package mmodel

import "time"

// Deployment is a running (or pending/stopped) serving instance of a
// published model. (OwnerUserID, Name) is unique, mirroring Model.
type Deployment struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	OwnerUserID        string     `json:"ownerUserId"`
	SourceModelID      string     `json:"sourceModelId"`
	State              TrainState `json:"state"`
	AutoscalingEnabled bool       `json:"autoscalingEnabled"`
	PublishedAt        *time.Time `json:"publishedAt"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Deployments is a paginated collection of Deployment.
type Deployments struct {
	Items []Deployment `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// CreateDeploymentInput is the payload accepted by the deploy endpoint. A
// deployment may only be created from a model whose TrainState is complete.
type CreateDeploymentInput struct {
	Name               string `json:"name" validate:"required,max=128"`
	SourceModelID      string `json:"sourceModelId" validate:"required,uuid"`
	AutoscalingEnabled bool   `json:"autoscalingEnabled"`
}

// UpdateDeploymentStatusInput is the runner's callback reporting a
// deployment's readiness.
type UpdateDeploymentStatusInput struct {
	DeploymentID string     `json:"deploymentId" validate:"required,uuid"`
	Status       TrainState `json:"status" validate:"required"`
	Message      string     `json:"message"`
}
