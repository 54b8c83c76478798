package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/httperr"
)

// CORSOptions mirrors the server.origin and server.credentials settings.
type CORSOptions struct {
	Origin      string
	Credentials bool
}

func corsMiddleware(opts CORSOptions) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range strings.Split(opts.Origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}
	_, wildcard := allowed["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard && opts.Credentials && origin != "":
			// browsers reject "*" together with credentials
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		if opts.Credentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}).Info("request")
	}
}

// ErrorReporter renders the last error recorded on the context as
// {"message": ...} with the error's status. Errors without a status report 500,
// errors without a message report httperr.DefaultMessage. In development the
// full error chain is logged too.
func ErrorReporter(logger *logrus.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		status, message := httperr.StatusAndMessage(last.Err)
		entry := logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})
		if development {
			entry = entry.WithField("cause", fmt.Sprintf("%+v", last.Err))
		}
		entry.Errorf("[%s] %s >> StatusCode:: %d, Message:: %s", c.Request.Method, c.Request.URL.Path, status, message)

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"message": message})
	}
}
