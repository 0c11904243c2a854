package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
)

// ApplicationName identifies this component in telemetry and log output.
const ApplicationName = "cachesvc"

// NewRouter builds the Fiber app exposing the semantic response cache:
// suggest/query are unauthenticated reads, insert requires a cache-insert
// token, invalidate and token issuance require a session token.
func NewRouter(logger mlog.Logger, tl *mopentelemetry.Telemetry, jwtSecret []byte, h *Handler) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	tlMid := commonHTTP.NewTelemetryMiddleware(tl)

	f.Use(commonHTTP.WithCorrelationID())
	f.Use(commonHTTP.WithHTTPLogging(commonHTTP.WithCustomLogger(logger)))
	f.Use(tlMid.WithTelemetry(tl))
	f.Use(commonHTTP.WithCORS())

	session := commonHTTP.NewJWTMiddleware(jwtSecret, commonHTTP.TokenKindSession).Protect()
	cacheToken := commonHTTP.NewJWTMiddleware(jwtSecret, commonHTTP.TokenKindCache).Protect()

	f.Get("/health", commonHTTP.Ping)
	f.Get("/version", commonHTTP.Version("1.0.0"))

	f.Get("/cache/suggestions", h.Suggest)
	f.Get("/cache/query", h.Query)
	f.Post("/cache/insert", cacheToken, h.Insert)
	f.Post("/cache/invalidate", session, h.Invalidate)
	f.Get("/cache/token", session, h.Token)

	f.Use(tlMid.EndTracingSpans)

	return f
}
