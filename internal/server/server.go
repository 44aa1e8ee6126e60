package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/notify"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

// UserHeader carries the acting user id.
const UserHeader = "X-User-ID"

const (
	shutdownTimeoutConstant          = 5 * time.Second
	readHeaderTimeoutConstant        = 10 * time.Second
	requestLogMessageConstant        = "http request"
	serverStartedLogMessageConstant  = "http server listening"
	serverStoppingLogMessageConstant = "http server stopping"
	logFieldMethodConstant           = "method"
	logFieldPathConstant             = "path"
	logFieldStatusConstant           = "status"
	logFieldDurationConstant         = "duration"
	logFieldAddressConstant          = "address"
	repositoryMissingMessageConstant = "server repository not configured"
	committerMissingMessageConstant  = "server committer not configured"
)

var (
	errRepositoryMissing = errors.New(repositoryMissingMessageConstant)
	errCommitterMissing  = errors.New(committerMissingMessageConstant)
)

// Repository is the read side the server needs.
type Repository interface {
	store.CatalogReader
	store.AuditReader
	store.OrganizationResolver
}

// Dependencies describes the collaborators of a Server.
type Dependencies struct {
	Logger     *zap.Logger
	Repository Repository
	Committer  wizard.Committer
	// Notifier receives creation outcomes in addition to websocket subscribers.
	Notifier notify.Notifier
	// DefaultUserID acts for requests without a user header.
	DefaultUserID string
	// ShutdownTimeout bounds graceful shutdown; zero selects five seconds.
	ShutdownTimeout time.Duration
}

// Server routes HTTP requests to the audit domain.
type Server struct {
	engine          *gin.Engine
	hub             *Hub
	repository      Repository
	committer       wizard.Committer
	notifier        notify.Notifier
	defaultUserID   string
	shutdownTimeout time.Duration
	logger          *zap.Logger
	responder       responder
}

// New validates dependencies and builds the routes.
func New(dependencies Dependencies) (*Server, error) {
	if dependencies.Repository == nil {
		return nil, errRepositoryMissing
	}
	if dependencies.Committer == nil {
		return nil, errCommitterMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	shutdownTimeout := dependencies.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = shutdownTimeoutConstant
	}

	hub := NewHub(logger)
	fanout := notify.NewFanout(hub, dependencies.Notifier)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	server := &Server{
		engine:          engine,
		hub:             hub,
		repository:      dependencies.Repository,
		committer:       dependencies.Committer,
		notifier:        fanout,
		defaultUserID:   strings.TrimSpace(dependencies.DefaultUserID),
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		responder:       responder{now: time.Now},
	}

	engine.Use(gin.Recovery(), server.requestLogger(), server.actingUser())
	engine.GET("/healthz", server.health)
	engine.GET("/ws/notifications", server.notifications)

	api := engine.Group("/api")
	api.GET("/standards", server.listStandards)
	api.GET("/standards/:standardID/items", server.listStandardItems)
	api.GET("/categories", server.listCategories)
	api.GET("/templates", server.listTemplates)
	api.GET("/audits", server.listAudits)
	api.POST("/audits", server.createAudit)
	api.GET("/audits/:auditID", server.getAudit)

	return server, nil
}

// Handler returns the root http.Handler.
func (server *Server) Handler() http.Handler {
	return server.engine
}

// Hub returns the websocket notification hub.
func (server *Server) Hub() *Hub {
	return server.hub
}

// ListenAndServe serves on address until the context is cancelled, then shuts down gracefully.
func (server *Server) ListenAndServe(executionContext context.Context, address string) error {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.engine,
		ReadHeaderTimeout: readHeaderTimeoutConstant,
	}

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- httpServer.ListenAndServe()
	}()
	server.logger.Info(serverStartedLogMessageConstant, zap.String(logFieldAddressConstant, address))

	select {
	case serveError := <-serveErrors:
		if errors.Is(serveError, http.ErrServerClosed) {
			return nil
		}
		return serveError
	case <-executionContext.Done():
	}

	server.logger.Info(serverStoppingLogMessageConstant)
	server.hub.Close()
	shutdownContext, cancel := context.WithTimeout(context.WithoutCancel(executionContext), server.shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownContext)
}

func (server *Server) requestLogger() gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		started := time.Now()
		ginContext.Next()
		server.logger.Debug(requestLogMessageConstant,
			zap.String(logFieldMethodConstant, ginContext.Request.Method),
			zap.String(logFieldPathConstant, ginContext.FullPath()),
			zap.Int(logFieldStatusConstant, ginContext.Writer.Status()),
			zap.Duration(logFieldDurationConstant, time.Since(started)),
		)
	}
}

func (server *Server) actingUser() gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		userID := strings.TrimSpace(ginContext.GetHeader(UserHeader))
		if len(userID) == 0 {
			userID = server.defaultUserID
		}
		if len(userID) > 0 {
			ginContext.Request = ginContext.Request.WithContext(store.WithActingUserID(ginContext.Request.Context(), userID))
		}
		ginContext.Next()
	}
}
