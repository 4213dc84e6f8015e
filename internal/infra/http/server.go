package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"fieldserve/internal/config"
	"fieldserve/internal/domain"
	"fieldserve/internal/infra/auth/jwtlocal"
	"fieldserve/internal/infra/auth/oidc"
	"fieldserve/internal/infra/auth/policy"
	"fieldserve/internal/infra/auth/rbac"
	"fieldserve/internal/infra/db"
	"fieldserve/internal/infra/events"
	"fieldserve/internal/infra/ratelimit"
	"fieldserve/internal/usecase"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server wires the admission pipeline in front of the booking API.
// Every request runs rate limiting first; booking routes then require a
// verified principal, and the admin group additionally requires the
// admin role. Stages short-circuit through the error translator.
type Server struct {
	cfg config.Config
	r   *gin.Engine

	store    *db.Store
	bookings *usecase.BookingService

	authenticator domain.Authenticator
	authorizer    domain.Authorizer
	authInitErr   error

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

type ServerDeps struct {
	Bookings      *usecase.BookingService
	Authenticator domain.Authenticator
	Authorizer    domain.Authorizer
	RateLimiter   domain.RateLimiter
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.initRateLimit(nil)
	s.routes()
	return s
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:           cfg,
		r:             r,
		bookings:      deps.Bookings,
		authenticator: deps.Authenticator,
		authorizer:    deps.Authorizer,
	}
	s.initAuth()
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	var conn *gorm.DB
	if s.store != nil {
		conn = s.store.DB
	}
	bookingRepo := db.NewBookingRepository(conn)
	roleRepo := db.NewRoleRepository(conn)

	var publisher domain.EventPublisher
	if s.cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewPublisher(s.cfg.AMQPURL, s.cfg.AMQPExchange)
		if err != nil {
			log.Printf("amqp publisher disabled: %v", err)
		} else {
			publisher = amqpPublisher
		}
	}
	s.bookings = usecase.NewBookingService(bookingRepo, publisher)

	s.initAuthWithRoles(roleRepo)
}

func (s *Server) initAuth() {
	s.initAuthWithRoles(nil)
}

func (s *Server) initAuthWithRoles(roles domain.RoleStore) {
	if s.cfg.AuthMode == "" {
		s.authInitErr = errors.New("AUTH_MODE is required")
		return
	}
	switch s.cfg.AuthMode {
	case "none":
	case "oidc":
		if s.authenticator == nil {
			authenticator, err := oidc.NewAuthenticator(s.cfg)
			if err != nil {
				s.authInitErr = err
				return
			}
			s.authenticator = authenticator
		}
	case "jwt":
		if s.authenticator == nil {
			authenticator, err := jwtlocal.NewAuthenticator(s.cfg.JWTSecret)
			if err != nil {
				s.authInitErr = err
				return
			}
			s.authenticator = authenticator
		}
	default:
		s.authInitErr = errors.New("unsupported auth mode")
		return
	}
	if s.authorizer == nil {
		switch s.cfg.AuthzMode {
		case "", "rbac":
			s.authorizer = rbac.NewAuthorizer(roles)
		case "policy":
			authorizer, err := policy.NewAuthorizer(context.Background(), roles, s.cfg.PolicyBundlePath)
			if err != nil {
				s.authInitErr = err
				return
			}
			s.authorizer = authorizer
		default:
			s.authInitErr = errors.New("unsupported authz mode")
		}
	}
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.Use(s.rateLimitMiddleware())

	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": dbMode})
	})

	v1 := s.r.Group("/v1")
	v1.Use(s.authMiddleware())
	{
		v1.POST("/bookings", s.handleCreateBooking)
		v1.GET("/bookings", s.handleListBookings)
		v1.GET("/bookings/:id", s.handleGetBooking)
		v1.PATCH("/bookings/:id/status", s.handleUpdateStatus)
		v1.POST("/bookings/:id/review", s.handleAttachReview)

		admin := v1.Group("/admin")
		admin.Use(s.requireAdminMiddleware())
		{
			admin.GET("/bookings", s.handleAdminListBookings)
			admin.PATCH("/bookings/:id/status", s.handleUpdateStatus)
			admin.DELETE("/bookings/:id", s.handleAdminCancelBooking)
		}
	}

	s.r.NoRoute(func(c *gin.Context) {
		s.writeError(c, domain.ErrNotFound)
	})
}

func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	if s.authInitErr != nil {
		return s.authInitErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}
