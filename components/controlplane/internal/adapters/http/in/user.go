package in

import (
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/command"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/query"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler exposes account lifecycle operations: signup, login,
// email verification, and password reset.
type UserHandler struct {
	Command   *command.UseCase
	Query     *query.UseCase
	JWTSecret []byte
}

// loginResponse is the payload returned by Login.
type loginResponse struct {
	Token string `json:"token"`
}

// Signup creates an account and issues a verification token out of band.
func (handler *UserHandler) Signup(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.signup")
	defer span.End()

	payload := i.(*mmodel.SignupInput)

	user, err := handler.Command.Signup(ctx, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to create user on command", err)
		return commonHTTP.WithError(c, err)
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to parse created user id", err)
		return commonHTTP.WithError(c, err)
	}

	if _, err := handler.Command.IssueVerificationToken(userID, handler.JWTSecret); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to issue verification token", err)
		return commonHTTP.WithError(c, err)
	}

	logger.Infof("Successfully created user %s", user.Username)

	return commonHTTP.Created(c, user)
}

// Login verifies a username/password pair and issues a session token.
func (handler *UserHandler) Login(i any, c *fiber.Ctx) error {
	payload := i.(*mmodel.LoginInput)
	return handler.LoginWithCredentials(c, payload.Username, payload.Password)
}

// LoginWithCredentials verifies a username/password pair, however they
// arrived (Basic auth header per §6, or a decoded body via Login), and
// issues a session token.
func (handler *UserHandler) LoginWithCredentials(c *fiber.Ctx, username, password string) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.login")
	defer span.End()

	token, err := handler.Command.Login(ctx, username, password, handler.JWTSecret)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to login", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, loginResponse{Token: token})
}

// VerifyEmail marks the account named by the bearer verification token as verified.
func (handler *UserHandler) VerifyEmail(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.verify_email")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer verification token")
	}

	user, err := handler.Command.VerifyEmail(ctx, claims)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to verify email", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, user)
}

// RequestPasswordReset sends a single-use reset code to the account's email.
func (handler *UserHandler) RequestPasswordReset(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.request_password_reset")
	defer span.End()

	payload := i.(*mmodel.ResetPasswordInput)

	if err := handler.Command.RequestPasswordReset(ctx, payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to request password reset", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// CompletePasswordReset consumes a reset code and sets a new password.
func (handler *UserHandler) CompletePasswordReset(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.complete_password_reset")
	defer span.End()

	payload := i.(*mmodel.NewPasswordInput)

	if err := handler.Command.CompletePasswordReset(ctx, payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to complete password reset", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// Info returns the caller's profile and team memberships.
func (handler *UserHandler) Info(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.user_info")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	info, err := handler.Query.GetUserInfo(ctx, userID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get user info", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, info)
}
