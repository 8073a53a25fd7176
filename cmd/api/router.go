package api

import (
	"net/http"
	"strings"

	authDelivery "devboard-backend/internal/auth/delivery"
	connDelivery "devboard-backend/internal/connection/delivery"
	conndomain "devboard-backend/internal/connection/domain"
	pomodoroDelivery "devboard-backend/internal/pomodoro/delivery"
	projectDelivery "devboard-backend/internal/project/delivery"
	spotifyDelivery "devboard-backend/internal/spotify/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := authDelivery.NewAuthHandler(h.authUsecase)
	connectionHandler := connDelivery.NewConnectionHandler(h.connUsecase, h.config.FrontendURL)
	projectHandler := projectDelivery.NewProjectHandler(h.projectUsecase)
	spotifyHandler := spotifyDelivery.NewSpotifyHandler(h.spotifyUsecase)
	pomodoroHandler := pomodoroDelivery.NewPomodoroHandler(h.pomodoroUsecase)

	authRequired := authDelivery.AuthMiddleware(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
			auth.GET("/github/login", authHandler.GitHubLogin)
		}

		// Provider account linking
		connections := api.Group("/connections")
		{
			connections.GET("", authRequired, connectionHandler.ListConnections)
			connections.GET("/:provider/login", authRequired, connectionHandler.InitiateLogin)
			// The callback carries no session; state correlates it. A GitHub
			// callback with a "login:" state belongs to the sign-in flow.
			connections.GET("/:provider/callback", func(c *gin.Context) {
				if c.Param("provider") == conndomain.ProviderGitHub && strings.HasPrefix(c.Query("state"), "login:") {
					authHandler.GitHubCallback(c)
					return
				}
				connectionHandler.HandleCallback(c)
			})
			connections.DELETE("/:provider", authRequired, connectionHandler.Disconnect)
		}

		// GitHub repository routes (protected)
		projects := api.Group("/projects")
		projects.Use(authRequired)
		{
			projects.GET("/repos", projectHandler.ListRepos)
			projects.POST("/repos", projectHandler.CreateRepo)
			projects.GET("/repos/:owner/:repo", projectHandler.GetRepo)
			projects.GET("/repos/:owner/:repo/commits", projectHandler.ListCommits)
		}

		// Spotify routes (protected)
		spotify := api.Group("/spotify")
		spotify.Use(authRequired)
		{
			spotify.GET("/profile", spotifyHandler.GetProfile)
			spotify.GET("/playlists", spotifyHandler.GetPlaylists)
			spotify.GET("/playlists/:id/tracks", spotifyHandler.GetPlaylistTracks)
			spotify.GET("/top-tracks", spotifyHandler.TopTracks)
			spotify.GET("/recently-played", spotifyHandler.RecentlyPlayed)

			player := spotify.Group("/player")
			{
				player.PUT("/play", spotifyHandler.Play)
				player.PUT("/pause", spotifyHandler.Pause)
				player.POST("/next", spotifyHandler.Next)
				player.POST("/previous", spotifyHandler.Previous)
				player.GET("/currently-playing", spotifyHandler.CurrentlyPlaying)
				player.GET("/token", spotifyHandler.PlaybackToken)
			}
		}

		// Pomodoro routes (protected)
		pomodoro := api.Group("/pomodoro")
		pomodoro.Use(authRequired)
		{
			pomodoro.POST("/start", pomodoroHandler.Start)
			pomodoro.POST("/pause", pomodoroHandler.Pause)
			pomodoro.POST("/resume", pomodoroHandler.Resume)
			pomodoro.DELETE("/reset", pomodoroHandler.Reset)
			pomodoro.GET("/status", pomodoroHandler.Status)
			pomodoro.GET("/history", pomodoroHandler.History)
		}
	}
}
