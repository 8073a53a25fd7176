package usecase

import (
	"errors"
	"time"

	"devboard-backend/internal/pomodoro/domain"
	"devboard-backend/internal/pomodoro/repository"
)

// PomodoroUsecase defines the interface for pomodoro timer business logic
type PomodoroUsecase interface {
	// Start begins a new session of the given duration (seconds).
	Start(userID string, duration int) (*domain.Session, error)

	// Pause pauses the running session.
	Pause(userID string) (*domain.Session, error)

	// Resume continues a paused session.
	Resume(userID string) (*domain.Session, error)

	// Reset discards the active session.
	Reset(userID string) error

	// Status returns the active session, or nil when there is none.
	Status(userID string) (*domain.Session, error)

	// History returns today's sessions, newest first.
	History(userID string) ([]*domain.Session, error)
}

// pomodoroUsecase implements PomodoroUsecase
type pomodoroUsecase struct {
	repo repository.SessionRepository
}

func NewPomodoroUsecase(repo repository.SessionRepository) PomodoroUsecase {
	return &pomodoroUsecase{repo: repo}
}

func (u *pomodoroUsecase) Start(userID string, duration int) (*domain.Session, error) {
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}

	active, err := u.repo.FindActive(userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errors.New("a session is already running")
	}

	session := &domain.Session{
		UserID:    userID,
		Status:    domain.SessionStarted,
		Duration:  duration,
		StartTime: time.Now(),
	}
	if err := u.repo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (u *pomodoroUsecase) Pause(userID string) (*domain.Session, error) {
	session, err := u.repo.FindActive(userID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Status != domain.SessionStarted {
		return nil, errors.New("no active session to pause")
	}

	now := time.Now()
	session.Status = domain.SessionPaused
	session.EndTime = &now
	if err := u.repo.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (u *pomodoroUsecase) Resume(userID string) (*domain.Session, error) {
	session, err := u.repo.FindActive(userID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Status != domain.SessionPaused {
		return nil, errors.New("no paused session to resume")
	}

	session.Status = domain.SessionStarted
	session.EndTime = nil
	if err := u.repo.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (u *pomodoroUsecase) Reset(userID string) error {
	session, err := u.repo.FindActive(userID)
	if err != nil {
		return err
	}
	if session == nil {
		return errors.New("no active session to reset")
	}
	return u.repo.Delete(session.ID)
}

func (u *pomodoroUsecase) Status(userID string) (*domain.Session, error) {
	return u.repo.FindActive(userID)
}

func (u *pomodoroUsecase) History(userID string) ([]*domain.Session, error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return u.repo.FindSince(userID, todayStart)
}
