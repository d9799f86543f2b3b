package waitlist

import (
	"time"

	"github.com/metll/metll-backend/config/router"
	"github.com/metll/metll-backend/pkg/constants"
)

// NewWaitlistController mounts POST /api/waitlist, limited to requestsPerMinute per client IP.
func NewWaitlistController(service WaitlistService, requestsPerMinute int) *router.RESTController {
	if requestsPerMinute <= 0 {
		requestsPerMinute = constants.DefaultWaitlistRateLimitRequests
	}

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			c.RateLimitWith(rs, rs.NewRateLimiter(requestsPerMinute, time.Minute))

			rs.AddPostHandler(c, nil, "", joinWaitlistHandler(service))
		},
	)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind waitlist request", "error", err)
			return router.BadRequestResult(MessageInvalidRequestBody)
		}

		response, err := service.SubmitEntry(ctx.Request.Context(), &req)
		if err != nil {
			return router.ErrorResultFrom(err)
		}

		return router.CreatedResult(response, MessageJoined)
	}
}
