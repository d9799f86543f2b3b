package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/metll/metll-backend/pkg/ratelimit"
)

func normalizePath(controller *RESTController, relativePath string) string {
	path := controller.mountPoint

	if relativePath != "" {
		path = path + "/" + relativePath
	}

	if path[0] != '/' {
		path = "/" + path
	}

	path = strings.ReplaceAll(path, "//", "/")

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	return path
}

func (routerService *RouterService) keyForPathAndMethod(path, method string) string {
	return fmt.Sprintf("%s-%s", method, path)
}

func (controller *RESTController) bindHandlerToController(routerService *RouterService, path, method string) {
	key := routerService.keyForPathAndMethod(path, method)
	otherController, foundPrevious := routerService.handlerToControllerMap[key]

	if foundPrevious {
		panic(fmt.Sprintf("A handler is already registered for path '%s' by a different controller '%s'", path, otherController.name))
	}

	routerService.handlerToControllerMap[key] = controller
}

func (routerService *RouterService) bindOverrideRateLimiter(path string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}

	_, foundPrevious := routerService.rateLimitOverrides[path]
	if foundPrevious {
		panic(fmt.Sprintf("A rate limiter is already registered for path '%s'", path))
	}

	routerService.rateLimitOverrides[path] = limiter
}

func (routerService *RouterService) bindHandlerRateLimiter(path, method string, limiter ratelimit.RateLimiter) {
	key := routerService.keyForPathAndMethod(path, method)
	routerService.bindOverrideRateLimiter(key, limiter)
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		if result == nil {
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("A handler returned an undefined result. This typically indicates a bug in a handler's implementation.").ToJSON())
			return
		}

		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	mountPoint = strings.ReplaceAll("/"+mountPoint, "//", "/")

	return &RESTController{
		name:       name,
		mountPoint: mountPoint,
		version:    "",
		prepare:    prepare,
	}
}

// RateLimitWith applies limiter to every handler of the controller that has no
// handler-level limiter of its own.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	routerService.bindOverrideRateLimiter(controller.mountPoint, limiter)
	return controller
}

func (routerService *RouterService) addHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	controller.handlerCount++
	mountPoint := normalizePath(controller, path)
	controller.bindHandlerToController(routerService, mountPoint, method)
	routerService.bindHandlerRateLimiter(mountPoint, method, limiter)
	routerService.engine.Handle(method, mountPoint, append(middlewares, createHandler(handler))...)
	routerService.logger.Debug("Handler registered", "method", method, "path", mountPoint)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodPost, controller, limiter, path, handler, middlewares...)
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodGet, controller, limiter, path, handler, middlewares...)
}
