package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what every handler returns. Message is the success message
// for 2xx results and the client-facing error for everything else.
type ServiceResult struct {
	StatusCode int
	Data       any
	Message    string
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

// ToJSON renders the response envelope:
// {success:true, message, data} or {success:false, error[, data]}.
func (result *ServiceResult) ToJSON() gin.H {
	if result.IsSuccess() {
		return gin.H{
			"success": true,
			"message": result.Message,
			"data":    result.Data,
		}
	}

	body := gin.H{
		"success": false,
		"error":   result.Message,
	}
	if result.Data != nil {
		body["data"] = result.Data
	}

	return body
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}
