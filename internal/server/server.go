package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/audit"
	"github.com/gravadigital/urna-api/internal/backup"
	"github.com/gravadigital/urna-api/internal/config"
	"github.com/gravadigital/urna-api/internal/handlers"
	"github.com/gravadigital/urna-api/internal/lifecycle"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/middleware/auth"
	"github.com/gravadigital/urna-api/internal/middleware/events"
	"github.com/gravadigital/urna-api/internal/notify"
	"github.com/gravadigital/urna-api/internal/services"
	"github.com/gravadigital/urna-api/internal/session"
	"github.com/gravadigital/urna-api/internal/store"
)

// Deps are the components the HTTP surface serves
type Deps struct {
	Store     *store.Store
	Services  *services.Services
	Lifecycle *lifecycle.Controller
	Recorder  *audit.Recorder
	Resolver  *session.Resolver
	Tokens    *session.Tokens
	Backups   *backup.Controller
	Hub       *notify.Hub
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	deps       Deps
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.Router()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		// Timeouts seguros según estándares de Go
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.HTTP().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.HTTP().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// corsConfig builds the CORS policy; a "*" entry allows every origin
func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	origins := s.config.AllowedOrigins()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	if methods := s.config.AllowedMethods(); len(methods) > 0 {
		corsConfig.AllowMethods = methods
	}
	if headers := s.config.AllowedHeaders(); len(headers) > 0 {
		corsConfig.AllowHeaders = headers
	}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", events.RequestIDHeader}
	return corsConfig
}

// Router configures the HTTP router with middleware and routes
func (s *Server) Router() *gin.Engine {
	// Configurar Gin
	if s.config.Server.GinMode != "" {
		gin.SetMode(s.config.Server.GinMode)
	}

	router := gin.New()

	// Middleware básico
	router.Use(events.CreateEvent())
	router.Use(gin.Recovery())
	router.Use(cors.New(s.corsConfig()))

	// Inicializar handlers
	sessionHandler := handlers.NewSessionHandler(s.deps.Store, s.deps.Resolver, s.deps.Tokens)
	superHandler := handlers.NewSuperHandler(s.deps.Services, s.deps.Lifecycle, s.deps.Recorder)
	adminHandler := handlers.NewAdminHandler(s.deps.Store, s.deps.Services, s.deps.Lifecycle, s.deps.Recorder)
	ballotHandler := handlers.NewBallotHandler(s.deps.Services)
	backupHandler := handlers.NewBackupHandler(s.deps.Backups)
	syncHandler := handlers.NewSyncHandler(s.deps.Store, s.deps.Hub)

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Urna API is running",
			"status":  "healthy",
			"sync":    s.deps.Store.SyncStatus().Status,
		})
	})

	api := router.Group("/api")
	s.setupPublicRoutes(api, sessionHandler, ballotHandler, syncHandler)

	authed := api.Group("", auth.Authenticate(s.deps.Tokens))
	authed.GET("/session", sessionHandler.Me)
	authed.PUT("/settings/theme", auth.Require(session.PermChangeSettings), superHandler.SetTheme)

	s.setupSuperAdminRoutes(authed.Group("/super"), superHandler, backupHandler)
	s.setupAdminRoutes(authed.Group("/admin", auth.ActiveWorkspace(s.deps.Store)), adminHandler)

	ballot := authed.Group("/ballot", auth.ActiveWorkspace(s.deps.Store), auth.Require(session.PermCastBallot))
	{
		ballot.GET("", ballotHandler.GetBallot)
		ballot.POST("", ballotHandler.SubmitBallot)
	}

	return router
}

func (s *Server) setupPublicRoutes(
	api *gin.RouterGroup,
	sessionHandler *handlers.SessionHandler,
	ballotHandler *handlers.BallotHandler,
	syncHandler *handlers.SyncHandler,
) {
	api.GET("/sync/status", syncHandler.Status)
	if s.deps.Hub != nil {
		api.GET("/sync/ws", syncHandler.Stream)
	}

	api.GET("/workspaces", sessionHandler.ListWorkspaces)
	api.POST("/workspaces/select", sessionHandler.SelectWorkspace)
	api.POST("/session/login", sessionHandler.Login)

	api.GET("/results", ballotHandler.PublicResults)
}

func (s *Server) setupSuperAdminRoutes(
	group *gin.RouterGroup,
	superHandler *handlers.SuperHandler,
	backupHandler *handlers.BackupHandler,
) {
	workspaces := group.Group("/workspaces")
	{
		manage := auth.Require(session.PermManageWorkspaces)
		workspaces.GET("", manage, superHandler.ListWorkspaces)
		workspaces.POST("", manage, superHandler.CreateWorkspace)
		workspaces.GET("/:id", manage, superHandler.GetWorkspace)
		workspaces.PUT("/:id", manage, superHandler.RenameWorkspace)
		workspaces.DELETE("/:id", manage, superHandler.DeleteWorkspace)

		profiles := auth.Require(session.PermManageProfiles)
		workspaces.PUT("/:id/admin", profiles, superHandler.SetAdmin)
		workspaces.DELETE("/:id/admin", profiles, superHandler.RemoveAdmin)

		workspaces.POST("/:id/new-election", auth.Require(session.PermNewElection), superHandler.NewElection)
		workspaces.GET("/:id/results", auth.Require(session.PermViewResults), superHandler.WorkspaceResults)
	}

	group.GET("/profile", auth.Require(session.PermManageProfiles), superHandler.Profile)
	group.PUT("/profile", auth.Require(session.PermManageProfiles), superHandler.UpdateProfile)
	group.GET("/audit", auth.Require(session.PermViewGlobalAudit), superHandler.Audit)

	backups := group.Group("/backup", auth.Require(session.PermManageBackups))
	{
		backups.GET("", backupHandler.Status)
		backups.GET("/export", backupHandler.Export)
		backups.POST("/import", backupHandler.Import)
		backups.GET("/archives", backupHandler.ListArchives)
		backups.POST("/archives", backupHandler.Archive)
		backups.POST("/archives/:name/restore", backupHandler.Restore)
	}
}

func (s *Server) setupAdminRoutes(group *gin.RouterGroup, adminHandler *handlers.AdminHandler) {
	roster := group.Group("", auth.Require(session.PermManageRoster))
	{
		roster.GET("/positions", adminHandler.ListPositions)
		roster.POST("/positions", adminHandler.CreatePosition)
		roster.PUT("/positions/:id", adminHandler.UpdatePosition)
		roster.DELETE("/positions/:id", adminHandler.DeletePosition)

		roster.GET("/candidates", adminHandler.ListCandidates)
		roster.POST("/candidates", adminHandler.CreateCandidate)
		roster.PUT("/candidates/:id", adminHandler.UpdateCandidate)
		roster.DELETE("/candidates/:id", adminHandler.DeleteCandidate)

		roster.GET("/voters", adminHandler.ListVoters)
		roster.POST("/voters", adminHandler.CreateVoter)
		roster.PUT("/voters/:id", adminHandler.UpdateVoter)
		roster.DELETE("/voters/:id", adminHandler.DeleteVoter)
		roster.POST("/voters/:id/block", adminHandler.BlockVoter)
		roster.POST("/voters/:id/unblock", adminHandler.UnblockVoter)
		roster.POST("/voters/:id/reset-vote", adminHandler.ResetVote)
	}

	election := group.Group("/election", auth.Require(session.PermControlElection))
	{
		election.GET("", adminHandler.Election)
		election.PUT("/details", adminHandler.UpdateDetails)
		election.POST("/start", adminHandler.Start)
		election.POST("/end", adminHandler.End)
		election.POST("/reset", adminHandler.Reset)
		election.PUT("/results", adminHandler.SetResults)
	}

	group.GET("/audit", auth.Require(session.PermViewAudit), adminHandler.Audit)
	group.GET("/results", auth.Require(session.PermViewResults), adminHandler.Results)
}
