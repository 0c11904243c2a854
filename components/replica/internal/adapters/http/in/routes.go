package in

import (
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/gofiber/fiber/v2"
)

// ApplicationName identifies this component in telemetry and log output.
const ApplicationName = "replica"

// NewRouter builds the Fiber app for a single deployed replica, wiring the
// read endpoints (search/predict) and the write-coordinator endpoints
// (insert/delete/upvote/associate/save) behind the same middleware chain
// the control plane uses.
func NewRouter(logger mlog.Logger, tl *mopentelemetry.Telemetry, jwtSecret []byte, h *Handler) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             -1,
	})

	tlMid := commonHTTP.NewTelemetryMiddleware(tl)

	f.Use(commonHTTP.WithCorrelationID())
	f.Use(commonHTTP.WithHTTPLogging(commonHTTP.WithCustomLogger(logger)))
	f.Use(tlMid.WithTelemetry(tl))
	f.Use(commonHTTP.WithCORS())

	session := commonHTTP.NewJWTMiddleware(jwtSecret, commonHTTP.TokenKindSession).Protect()

	f.Get("/health", commonHTTP.Ping)
	f.Get("/version", commonHTTP.Version("1.0.0"))

	f.Post("/search", session, commonHTTP.WithBody(new(searchRequest), h.Search))
	f.Post("/predict", session, commonHTTP.WithBody(new(searchRequest), h.Predict))
	f.Post("/insert", session, commonHTTP.WithBody(new(insertRequest), h.Insert))
	f.Post("/delete", session, commonHTTP.WithBody(new(deleteRequest), h.Delete))
	f.Post("/upvote", session, commonHTTP.WithBody(new(upvoteRequest), h.Upvote))
	f.Post("/associate", session, commonHTTP.WithBody(new(associateRequest), h.Associate))
	f.Post("/save", session, commonHTTP.WithBody(new(saveRequest), h.Save))

	f.Use(tlMid.EndTracingSpans)

	return f
}
