package api

import (
	authUsecase "devboard-backend/internal/auth/usecase"
	connUsecase "devboard-backend/internal/connection/usecase"
	pomodoroUsecase "devboard-backend/internal/pomodoro/usecase"
	projectUsecase "devboard-backend/internal/project/usecase"
	spotifyUsecase "devboard-backend/internal/spotify/usecase"
	"devboard-backend/pkg/config"
	"devboard-backend/pkg/ratelimit"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	connUsecase     connUsecase.ConnectionUsecase
	projectUsecase  projectUsecase.ProjectUsecase
	spotifyUsecase  spotifyUsecase.SpotifyUsecase
	pomodoroUsecase pomodoroUsecase.PomodoroUsecase
	redisClient     *redis.Client
	config          *config.Config
	logger          *log.Logger
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	connUc connUsecase.ConnectionUsecase,
	projectUc projectUsecase.ProjectUsecase,
	spotifyUc spotifyUsecase.SpotifyUsecase,
	pomodoroUc pomodoroUsecase.PomodoroUsecase,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *log.Logger,
) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		authUsecase:     authUc,
		connUsecase:     connUc,
		projectUsecase:  projectUc,
		spotifyUsecase:  spotifyUc,
		pomodoroUsecase: pomodoroUc,
		redisClient:     redisClient,
		config:          cfg,
		logger:          logger,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.Use(ratelimit.Middleware(h.redisClient, h.config.RateLimitRequests, h.config.RateLimitWindow, h.logger))

	SetupRoutes(r, h)

	return r.Run(addr)
}
