package api

import (
	"io"
	"net/http"
	"strings"

	"alcyxob/file-grants/internal/logger"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts both grant handlers behind the gateway emulator.
func SetupRoutes(router *gin.Engine, jwtSecret string, log *logger.Logger, download, upload EventHandler) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(GatewayAuthMiddleware(jwtSecret))
	{
		apiV1.POST("/downloads/presign", serveEvent(download, log))
		apiV1.POST("/uploads/presign", serveEvent(upload, log))
	}
}

// serveEvent translates the HTTP request into the gateway event the Lambda
// would receive, runs h, and writes its response back. A handler error
// becomes the gateway's generic 500.
func serveEvent(h EventHandler, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := eventFromRequest(c)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Could not read request body")
			return
		}

		resp, err := h.Handle(c.Request.Context(), event)
		if err != nil {
			log.Error("handler failed", logger.String("path", c.FullPath()), logger.Error(err))
			abortWithError(c, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		contentType := "application/json"
		for k, v := range resp.Headers {
			if strings.EqualFold(k, "Content-Type") {
				contentType = v
				continue
			}
			c.Header(k, v)
		}
		c.Data(resp.StatusCode, contentType, []byte(resp.Body))
	}
}

func eventFromRequest(c *gin.Context) (GatewayEvent, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return GatewayEvent{}, err
	}

	// HTTP API payloads carry lower-cased header names with repeated
	// values joined by commas.
	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ",")
	}

	event := GatewayEvent{
		Body:    string(body),
		Headers: headers,
	}
	event.RequestContext.Authorizer.JWT.Claims = claimsFromContext(c)
	event.RequestContext.HTTP = HTTPContext{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		SourceIP: c.RemoteIP(),
	}
	return event, nil
}
