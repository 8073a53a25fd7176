package delivery

import (
	"net/http"

	"devboard-backend/internal/spotify/usecase"
	"devboard-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

// SpotifyHandler handles Spotify player and profile endpoints
type SpotifyHandler struct {
	spotifyUsecase usecase.SpotifyUsecase
}

func NewSpotifyHandler(spotifyUsecase usecase.SpotifyUsecase) *SpotifyHandler {
	return &SpotifyHandler{
		spotifyUsecase: spotifyUsecase,
	}
}

// GetProfile returns the linked Spotify account
// GET /api/spotify/profile
func (h *SpotifyHandler) GetProfile(c *gin.Context) {
	profile, err := h.spotifyUsecase.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetPlaylists returns the user's playlists
// GET /api/spotify/playlists
func (h *SpotifyHandler) GetPlaylists(c *gin.Context) {
	playlists, err := h.spotifyUsecase.GetPlaylists(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playlists": playlists})
}

// GetPlaylistTracks returns the tracks of one playlist
// GET /api/spotify/playlists/:id/tracks
func (h *SpotifyHandler) GetPlaylistTracks(c *gin.Context) {
	tracks, err := h.spotifyUsecase.GetPlaylistTracks(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

type playRequest struct {
	TrackURI string `json:"track_uri"`
}

// Play starts or resumes playback
// PUT /api/spotify/player/play
func (h *SpotifyHandler) Play(c *gin.Context) {
	var req playRequest
	// Body is optional: resume playback when no track is given.
	_ = c.ShouldBindJSON(&req)

	if err := h.spotifyUsecase.Play(c.Request.Context(), c.GetString("userID"), req.TrackURI); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "playback started"})
}

// Pause pauses playback
// PUT /api/spotify/player/pause
func (h *SpotifyHandler) Pause(c *gin.Context) {
	if err := h.spotifyUsecase.Pause(c.Request.Context(), c.GetString("userID")); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "playback paused"})
}

// Next skips to the next track
// POST /api/spotify/player/next
func (h *SpotifyHandler) Next(c *gin.Context) {
	if err := h.spotifyUsecase.Next(c.Request.Context(), c.GetString("userID")); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Previous skips to the previous track
// POST /api/spotify/player/previous
func (h *SpotifyHandler) Previous(c *gin.Context) {
	if err := h.spotifyUsecase.Previous(c.Request.Context(), c.GetString("userID")); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CurrentlyPlaying returns the player state
// GET /api/spotify/player/currently-playing
func (h *SpotifyHandler) CurrentlyPlaying(c *gin.Context) {
	state, err := h.spotifyUsecase.CurrentlyPlaying(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// TopTracks returns the user's most played tracks
// GET /api/spotify/top-tracks
func (h *SpotifyHandler) TopTracks(c *gin.Context) {
	tracks, err := h.spotifyUsecase.TopTracks(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// RecentlyPlayed returns the user's listening history
// GET /api/spotify/recently-played
func (h *SpotifyHandler) RecentlyPlayed(c *gin.Context) {
	tracks, err := h.spotifyUsecase.RecentlyPlayed(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// PlaybackToken returns an access token for the Web Playback SDK
// GET /api/spotify/player/token
func (h *SpotifyHandler) PlaybackToken(c *gin.Context) {
	token, err := h.spotifyUsecase.PlaybackToken(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}
