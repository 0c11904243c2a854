package in

import (
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/gofiber/fiber/v2"
)

// ApplicationName identifies this component in telemetry and log output.
const ApplicationName = "controlplane"

// Handlers aggregates every HTTP handler the router wires up, so callers
// need only build one struct rather than pass six handlers separately.
type Handlers struct {
	User   *UserHandler
	Model  *ModelHandler
	Upload *UploadHandler
	Train  *TrainHandler
	Deploy *DeployHandler
	Team   *TeamHandler
}

// NewRouter builds the Fiber app and wires every endpoint in §6 of the
// specification behind the teacher's middleware chain: correlation id,
// logging, telemetry, CORS, then per-route auth and body decoding.
func NewRouter(logger mlog.Logger, tl *mopentelemetry.Telemetry, jwtSecret []byte, h *Handlers) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             -1, // artifact chunks can exceed fiber's default 4MB limit
	})

	tlMid := commonHTTP.NewTelemetryMiddleware(tl)

	f.Use(commonHTTP.WithCorrelationID())
	f.Use(commonHTTP.WithHTTPLogging(commonHTTP.WithCustomLogger(logger)))
	f.Use(tlMid.WithTelemetry(tl))
	f.Use(commonHTTP.WithCORS())

	session := commonHTTP.NewJWTMiddleware(jwtSecret, commonHTTP.TokenKindSession).Protect()
	uploadTok := commonHTTP.NewJWTMiddleware(jwtSecret, commonHTTP.TokenKindUpload).Protect()
	verifyTok := commonHTTP.NewJWTMiddleware(jwtSecret, commonHTTP.TokenKindVerify).Protect()

	f.Get("/health", commonHTTP.Ping)
	f.Get("/version", commonHTTP.Version("1.0.0"))

	// Identity
	user := f.Group("/user")
	user.Post("/signup", commonHTTP.WithBody(new(mmodel.SignupInput), h.User.Signup))
	user.Get("/login", basicAuthLogin(h.User))
	user.Post("/verify", verifyTok, h.User.VerifyEmail)
	user.Post("/reset-password", commonHTTP.WithBody(new(mmodel.ResetPasswordInput), h.User.RequestPasswordReset))
	user.Post("/new-password", commonHTTP.WithBody(new(mmodel.NewPasswordInput), h.User.CompletePasswordReset))
	user.Get("/info", session, h.User.Info)

	// Model catalog
	model := f.Group("/model")
	model.Get("/list", session, h.Model.List)
	model.Get("/public-list", h.Model.PublicList)
	model.Get("/info", session, h.Model.Info)
	model.Get("/name-check", session, h.Model.NameCheck)
	model.Post("/update-access-level", session, h.Model.UpdateAccessLevel)
	model.Post("/update-default-permission", session, commonHTTP.WithBody(new(mmodel.UpdateDefaultPermissionInput), h.Model.UpdateDefaultPermission))
	model.Post("/update-model-permission", session, h.Model.UpdateModelPermission)

	// Upload/Download
	model.Get("/upload-token", session, h.Upload.IssueUploadToken)
	model.Post("/upload-chunk", uploadTok, h.Upload.UploadChunk)
	model.Post("/upload-commit", uploadTok, commonHTTP.WithBody(new(mmodel.UploadCommitInput), h.Upload.UploadCommit))
	model.Get("/download", session, h.Upload.Download)
	model.Get("/public-download", h.Upload.PublicDownload)

	// Train: NDB accepts its own token via the session group; the runner
	// callbacks carry no bearer token since the runner is a trusted internal
	// collaborator reachable only on the private job network.
	train := f.Group("/train")
	train.Post("/ndb", session, h.Train.NDB)
	train.Post("/complete", commonHTTP.WithBody(new(mmodel.TrainCompleteInput), h.Train.Complete))
	train.Post("/update-status", commonHTTP.WithBody(new(mmodel.TrainUpdateStatusInput), h.Train.UpdateStatus))

	// Deploy
	deploy := f.Group("/deploy")
	deploy.Post("/run", session, h.Deploy.Run)
	deploy.Post("/stop", session, h.Deploy.Stop)
	deploy.Get("/status", session, h.Deploy.Status)
	deploy.Post("/update-status", commonHTTP.WithBody(new(mmodel.UpdateDeploymentStatusInput), h.Deploy.UpdateStatus))
	deploy.Get("/permissions/:deployment_id", session, h.Deploy.Permissions)

	// Team
	team := f.Group("/team", session)
	team.Post("/create-team", commonHTTP.WithBody(new(mmodel.CreateTeamInput), h.Team.CreateTeam))
	team.Post("/add-user-to-team", commonHTTP.WithBody(new(mmodel.AddUserToTeamInput), h.Team.AddUserToTeam))
	team.Post("/assign-team-admin", h.Team.AssignTeamAdmin)
	team.Delete("/delete-team", h.Team.DeleteTeam)
	team.Get("/list", h.Team.List)
	team.Get("/team-users", h.Team.TeamUsers)

	f.Use(tlMid.EndTracingSpans)

	return f
}

// basicAuthLogin adapts the spec's `GET /user/login` (Basic auth) endpoint
// onto the Login use case, which takes a username/password pair regardless
// of transport.
func basicAuthLogin(h *UserHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, pass, ok := basicAuthCredentials(c)
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="modelctl"`)
			return commonHTTP.Unauthorized(c, "1013", "Missing Credentials", "Must provide HTTP Basic credentials")
		}

		return h.LoginWithCredentials(c, user, pass)
	}
}
