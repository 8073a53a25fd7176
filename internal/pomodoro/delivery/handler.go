package delivery

import (
	"net/http"

	"devboard-backend/internal/pomodoro/usecase"

	"github.com/gin-gonic/gin"
)

// PomodoroHandler handles pomodoro timer HTTP requests
type PomodoroHandler struct {
	pomodoroUsecase usecase.PomodoroUsecase
}

func NewPomodoroHandler(pomodoroUsecase usecase.PomodoroUsecase) *PomodoroHandler {
	return &PomodoroHandler{
		pomodoroUsecase: pomodoroUsecase,
	}
}

type startRequest struct {
	Duration int `json:"duration" binding:"required,min=1"`
}

// Start begins a new session
// POST /api/pomodoro/start
func (h *PomodoroHandler) Start(c *gin.Context) {
	userID := c.GetString("userID")

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.pomodoroUsecase.Start(userID, req.Duration)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Pause pauses the running session
// POST /api/pomodoro/pause
func (h *PomodoroHandler) Pause(c *gin.Context) {
	session, err := h.pomodoroUsecase.Pause(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

// Resume continues a paused session
// POST /api/pomodoro/resume
func (h *PomodoroHandler) Resume(c *gin.Context) {
	session, err := h.pomodoroUsecase.Resume(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

// Reset discards the active session
// DELETE /api/pomodoro/reset
func (h *PomodoroHandler) Reset(c *gin.Context) {
	if err := h.pomodoroUsecase.Reset(c.GetString("userID")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status returns the active session (null when idle)
// GET /api/pomodoro/status
func (h *PomodoroHandler) Status(c *gin.Context) {
	session, err := h.pomodoroUsecase.Status(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// History returns today's sessions
// GET /api/pomodoro/history
func (h *PomodoroHandler) History(c *gin.Context) {
	sessions, err := h.pomodoroUsecase.History(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
