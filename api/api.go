package api

import (
	"agentbacktest/internal/logger"
	"agentbacktest/internal/metrics"
	"agentbacktest/internal/repository"
	l1_service "agentbacktest/internal/service/l1"
	"bytes"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApiHandler struct {
	// nil when running without postgres; persisting is then refused
	Db                       *sql.DB
	PriceService             l1_service.PriceService
	BacktestResultRepository repository.BacktestResultRepository

	GptApiKey       string
	DecisionTimeout time.Duration
	JwtDecodeToken  string
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(metrics.GinMiddleware())
	router.Use(m.logRequestMiddlware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to agentbacktest"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authorized := router.Group("/")
	authorized.Use(m.authMiddleware())
	authorized.POST("/backtest", m.backtest)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	router := m.InitializeRouterEngine()
	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	returnErrorJsonCode(err, c, http.StatusInternalServerError)
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	logger.FromContext(c.Request.Context()).Errorw("request failed", "status", code, "error", err.Error())
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// logRequestMiddlware gives every request its own logger and logs the
// outcome. Error bodies are included since they are small.
func (m ApiHandler) logRequestMiddlware(c *gin.Context) {
	w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
	c.Writer = w

	requestID := uuid.New()
	log := zap.S().With(
		"requestID", requestID,
		"method", c.Request.Method,
		"route", c.Request.URL.Path,
	)
	c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))
	c.Header("X-Request-ID", requestID.String())

	start := time.Now().UTC()
	c.Next()

	fields := []interface{}{
		"status", c.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
		"ip", c.ClientIP(),
	}
	if c.Writer.Status() >= 400 {
		fields = append(fields, "responseBody", w.body.String())
	}
	log.Infow("handled request", fields...)
}
