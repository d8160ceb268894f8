package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/logger"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

const userIDKey = "user_id"

// authMiddleware checks the bearer JWT and stores the normalized user id
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Get token from Authorization header
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return c.JSON(http.StatusUnauthorized, tbsync.Response{Message: "Unauthorized"})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			return c.JSON(http.StatusUnauthorized, tbsync.Response{Message: "invalid authorization format"})
		}

		claims, err := s.issuer.Verify(token)
		if err != nil {
			logger.Warn("Invalid token", logger.F("error", err), logger.F("ip", c.RealIP()))
			return c.JSON(http.StatusUnauthorized, tbsync.Response{Message: "Unauthorized"})
		}

		c.Set(userIDKey, claims.UserID())
		return next(c)
	}
}

// requestLogger logs each request and its outcome
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		logger.Debug("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("remote", c.RealIP()))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		logger.Info("HTTP Response",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)))

		return nil
	}
}
