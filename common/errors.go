package common

import (
	"errors"
	"fmt"
	"strings"

	cn "github.com/thirdway-labs/modelctl/common/constant"
)

// EntityNotFoundError records an error indicating an entity was not found in
// the catalog, the artifact store, or any other repository.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if strings.TrimSpace(e.EntityType) != "" {
			return fmt.Sprintf("entity %s not found", e.EntityType)
		}

		if e.Err != nil {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

// Unwrap exposes the wrapped error.
func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records a malformed or missing-field request.
type ValidationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// EntityConflictError records a unique-constraint violation: a duplicate
// (owner, name) pair, an upload already in flight, and so on.
type EntityConflictError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Message) == "" {
		return e.Err.Error()
	}

	return e.Message
}

func (e EntityConflictError) Unwrap() error {
	return e.Err
}

// UnauthorizedError indicates a missing or invalid bearer token.
type UnauthorizedError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e UnauthorizedError) Error() string { return e.Message }

// ForbiddenError indicates the caller's effective permission is insufficient
// for the requested operation (permission resolver returned "none" or a
// permission floor below what the operation requires).
type ForbiddenError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e ForbiddenError) Error() string { return e.Message }

// UnprocessableOperationError indicates an operation that is well-formed but
// cannot be carried out given current state (a deploy whose source model
// isn't complete, a write rejected because no rebuild lease is reachable).
type UnprocessableOperationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e UnprocessableOperationError) Error() string { return e.Message }

// QuotaError indicates a license/capacity check failed.
type QuotaError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e QuotaError) Error() string { return e.Message }

// InternalServerError wraps an unexpected error for a uniform 500 response.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e InternalServerError) Error() string { return e.Message }

// ValidateInternalError wraps any error as an InternalServerError with a
// stable code and a message safe to show to callers.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       cn.ErrInternalServer.Error(),
		Title:      "Internal Server Error",
		Message:    "The server encountered an unexpected error. Please try again later.",
		Err:        err,
	}
}

// ValidateBusinessError maps a sentinel business error from common/constant
// to the typed error the HTTP layer dispatches on. args are interpolated
// into the message the way fmt.Sprintf would.
//
//nolint:gocyclo
func ValidateBusinessError(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, cn.ErrDuplicateModelName):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrDuplicateModelName.Error(),
			Title:      "Duplicate Model Name",
			Message:    fmt.Sprintf("A model named %s already exists for this owner. Choose a different name.", args...),
		}
	case errors.Is(err, cn.ErrUploadAlreadyInFlight):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrUploadAlreadyInFlight.Error(),
			Title:      "Upload Already In Flight",
			Message:    "An upload for this model name is already in progress. Wait for it to complete or expire before retrying.",
		}
	case errors.Is(err, cn.ErrDuplicateDeploymentName):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrDuplicateDeploymentName.Error(),
			Title:      "Duplicate Deployment Name",
			Message:    fmt.Sprintf("A deployment named %s already exists for this owner.", args...),
		}
	case errors.Is(err, cn.ErrCyclicModelDependency):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrCyclicModelDependency.Error(),
			Title:      "Cyclic Model Dependency",
			Message:    "Setting this parent model would introduce a cycle in the model dependency graph.",
		}
	case errors.Is(err, cn.ErrModelNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrModelNotFound.Error(),
			Title:      "Model Not Found",
			Message:    "No model was found for the given identifier.",
		}
	case errors.Is(err, cn.ErrActionNotPermitted):
		return ForbiddenError{
			EntityType: entityType,
			Code:       cn.ErrActionNotPermitted.Error(),
			Title:      "Action Not Permitted",
			Message:    "The caller's effective permission does not allow this action.",
		}
	case errors.Is(err, cn.ErrMissingFieldsInRequest):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrMissingFieldsInRequest.Error(),
			Title:      "Missing Fields In Request",
			Message:    "The request is missing one or more required fields.",
		}
	case errors.Is(err, cn.ErrModelNotComplete):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrModelNotComplete.Error(),
			Title:      "Model Not Complete",
			Message:    "The source model must be in the complete state before it can be deployed.",
		}
	case errors.Is(err, cn.ErrDeploymentsExist):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrDeploymentsExist.Error(),
			Title:      "Deployments Exist",
			Message:    "This model cannot be deleted while deployments still reference it.",
		}
	case errors.Is(err, cn.ErrQuotaExceeded):
		return QuotaError{
			EntityType: entityType,
			Code:       cn.ErrQuotaExceeded.Error(),
			Title:      "Quota Exceeded",
			Message:    "The license's capacity or expiry check failed for this request.",
		}
	case errors.Is(err, cn.ErrNoWriterLeaseReachable):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrNoWriterLeaseReachable.Error(),
			Title:      "Writer Lease Unreachable",
			Message:    "No rebuild lease is currently reachable; writes are rejected until one becomes available.",
		}
	case errors.Is(err, cn.ErrUnverifiedAccount):
		return UnauthorizedError{
			EntityType: entityType,
			Code:       cn.ErrUnverifiedAccount.Error(),
			Title:      "Unverified Account",
			Message:    "This account has not verified its email address yet.",
		}
	case errors.Is(err, cn.ErrInvalidCredentials):
		return UnauthorizedError{
			EntityType: entityType,
			Code:       cn.ErrInvalidCredentials.Error(),
			Title:      "Invalid Credentials",
			Message:    "The email or password provided is incorrect.",
		}
	case errors.Is(err, cn.ErrInvalidCacheInsertToken):
		return UnauthorizedError{
			EntityType: entityType,
			Code:       cn.ErrInvalidCacheInsertToken.Error(),
			Title:      "Invalid Cache Insert Token",
			Message:    "The cache-insert token is missing, expired, or does not match this model.",
		}
	case errors.Is(err, cn.ErrCacheEntryNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrCacheEntryNotFound.Error(),
			Title:      "Cache Entry Not Found",
			Message:    "No cache entry matched the query above the similarity threshold.",
		}
	default:
		return ValidateInternalError(err, entityType)
	}
}
