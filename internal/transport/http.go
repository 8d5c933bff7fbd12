package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/scoring"
	"github.com/skillgate/interviewd/internal/metrics"
)

// Services bundles the domain services the HTTP layer dispatches to.
type Services struct {
	Credits    *credit.Service
	Interviews *interview.Service
}

// Server wires HTTP handlers.
type Server struct {
	services Services
	logger   *zap.Logger
}

// NewRouter creates the gin router with middleware and all routes.
func NewRouter(services Services, resolver TenantResolver, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{services: services, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	r.GET("/health", srv.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", AuthMiddleware(resolver))
	{
		v1.POST("/interviews/reserve", srv.handleReserve)
		v1.POST("/interviews/:id/start", srv.handleStart)
		v1.POST("/interviews/:id/finalize", srv.handleFinalize)
		v1.POST("/interviews/:id/fail", srv.handleFail)
		v1.POST("/interviews/:id/restore-credit", srv.handleRestore)
		v1.GET("/interviews/:id", srv.handleGetInterview)
		v1.POST("/interviews/reconcile", srv.handleReconcile)
		v1.GET("/credits/history", srv.handleHistory)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type reserveRequest struct {
	StudentID   string `json:"student_id" binding:"required"`
	Route       string `json:"route"`
	InitiatedBy string `json:"initiated_by"` // "student" (default) or "org"
}

func (s *Server) handleReserve(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)

	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_input", err.Error()))
		return
	}
	if req.Route == "" {
		req.Route = "api"
	}

	iv, err := s.services.Credits.Reserve(c.Request.Context(), tenantID, credit.ReserveRequest{
		StudentID:     req.StudentID,
		Route:         req.Route,
		SelfInitiated: req.InitiatedBy != "org",
	})
	if err != nil {
		_, code := classify(err)
		metrics.ReservationsTotal.WithLabelValues(code).Inc()
		writeError(c, s.logger, err)
		return
	}

	metrics.ReservationsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, gin.H{"interview_id": iv.ID})
}

func (s *Server) handleStart(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)
	if err := s.services.Interviews.Start(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": interview.StatusInProgress})
}

type finalizeRequest struct {
	Answers       []scoring.AnswerInput `json:"per_answer_scores" binding:"required"`
	HolisticScore *float64              `json:"holistic_score"`
	BodyEnabled   bool                  `json:"body_enabled"`
	Profile       string                `json:"profile"`
}

func (s *Server) handleFinalize(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)

	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_input", err.Error()))
		return
	}

	report, err := s.services.Interviews.Finalize(c.Request.Context(), tenantID, interview.FinalizeRequest{
		InterviewID:   c.Param("id"),
		Answers:       req.Answers,
		HolisticScore: req.HolisticScore,
		BodyEnabled:   req.BodyEnabled,
		Profile:       req.Profile,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"final_report": report.Final})
}

type failRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) handleFail(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)

	var req failRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_input", err.Error()))
		return
	}
	if err := s.services.Interviews.Fail(c.Request.Context(), tenantID, c.Param("id"), req.Reason); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": interview.StatusFailed})
}

type restoreRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRestore(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)

	var req restoreRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "credit restored"
	}

	if err := s.services.Credits.Restore(c.Request.Context(), tenantID, c.Param("id"), req.Reason); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": true})
}

func (s *Server) handleGetInterview(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)
	iv, err := s.services.Interviews.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

type reconcileRequest struct {
	StalenessWindowSeconds int `json:"staleness_window_seconds"`
}

func (s *Server) handleReconcile(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)

	var req reconcileRequest
	_ = c.ShouldBindJSON(&req)

	result, err := s.services.Interviews.Reconcile(c.Request.Context(), tenantID,
		time.Duration(req.StalenessWindowSeconds)*time.Second)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	metrics.ReconciledTotal.WithLabelValues("fixed").Add(float64(result.Fixed))
	metrics.ReconciledTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.ReconciledTotal.WithLabelValues("error").Add(float64(result.Failed))

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHistory(c *gin.Context) {
	tenantID, _ := TenantFromContext(c)

	opts := credit.ListHistoryOptions{}
	if v := c.Query("student_id"); v != "" {
		opts.StudentID = &v
	}
	if v := c.Query("interview_id"); v != "" {
		opts.InterviewID = &v
	}
	if v := c.Query("type"); v != "" {
		t := credit.EntryType(v)
		opts.Type = &t
	}
	var query struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	_ = c.ShouldBindQuery(&query)
	opts.Limit = query.Limit
	opts.Offset = query.Offset

	entries, err := s.services.Credits.History(c.Request.Context(), tenantID, opts)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
