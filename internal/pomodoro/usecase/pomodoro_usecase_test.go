package usecase

import (
	"testing"

	"devboard-backend/internal/pomodoro/domain"
	"devboard-backend/internal/pomodoro/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestUsecase(t *testing.T) PomodoroUsecase {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Session{}))
	return NewPomodoroUsecase(repository.NewGormSessionRepository(db))
}

func TestStartCreatesSession(t *testing.T) {
	u := newTestUsecase(t)

	session, err := u.Start("u1", 1500)
	require.NoError(t, err)
	require.Equal(t, domain.SessionStarted, session.Status)
	require.Equal(t, 1500, session.Duration)
	require.NotEmpty(t, session.ID)
}

func TestStartRejectsNonPositiveDuration(t *testing.T) {
	u := newTestUsecase(t)

	_, err := u.Start("u1", 0)
	require.Error(t, err)

	_, err = u.Start("u1", -60)
	require.Error(t, err)
}

func TestStartRefusesSecondActiveSession(t *testing.T) {
	u := newTestUsecase(t)

	_, err := u.Start("u1", 1500)
	require.NoError(t, err)

	_, err = u.Start("u1", 1500)
	require.EqualError(t, err, "a session is already running")

	// A paused session still counts as active.
	_, err = u.Pause("u1")
	require.NoError(t, err)
	_, err = u.Start("u1", 1500)
	require.EqualError(t, err, "a session is already running")
}

func TestStartIsolatedPerUser(t *testing.T) {
	u := newTestUsecase(t)

	_, err := u.Start("u1", 1500)
	require.NoError(t, err)

	_, err = u.Start("u2", 1500)
	require.NoError(t, err)
}

func TestPauseAndResume(t *testing.T) {
	u := newTestUsecase(t)

	started, err := u.Start("u1", 1500)
	require.NoError(t, err)

	paused, err := u.Pause("u1")
	require.NoError(t, err)
	require.Equal(t, started.ID, paused.ID)
	require.Equal(t, domain.SessionPaused, paused.Status)
	require.NotNil(t, paused.EndTime)

	// Pausing twice is an error.
	_, err = u.Pause("u1")
	require.Error(t, err)

	resumed, err := u.Resume("u1")
	require.NoError(t, err)
	require.Equal(t, domain.SessionStarted, resumed.Status)
	require.Nil(t, resumed.EndTime)

	// Resuming a running session is an error.
	_, err = u.Resume("u1")
	require.Error(t, err)
}

func TestPauseWithoutSession(t *testing.T) {
	u := newTestUsecase(t)

	_, err := u.Pause("u1")
	require.EqualError(t, err, "no active session to pause")
}

func TestResetDiscardsActiveSession(t *testing.T) {
	u := newTestUsecase(t)

	_, err := u.Start("u1", 1500)
	require.NoError(t, err)

	require.NoError(t, u.Reset("u1"))

	status, err := u.Status("u1")
	require.NoError(t, err)
	require.Nil(t, status)

	// After a reset, a new session can start immediately.
	_, err = u.Start("u1", 300)
	require.NoError(t, err)
}

func TestResetWithoutSession(t *testing.T) {
	u := newTestUsecase(t)

	require.EqualError(t, u.Reset("u1"), "no active session to reset")
}

func TestStatusReturnsNilWhenIdle(t *testing.T) {
	u := newTestUsecase(t)

	status, err := u.Status("u1")
	require.NoError(t, err)
	require.Nil(t, status)
}

func TestHistoryListsTodaysSessions(t *testing.T) {
	u := newTestUsecase(t)

	first, err := u.Start("u1", 1500)
	require.NoError(t, err)
	require.NoError(t, u.Reset("u1"))

	second, err := u.Start("u1", 300)
	require.NoError(t, err)

	// Another user's sessions stay out of the history.
	_, err = u.Start("u2", 600)
	require.NoError(t, err)

	sessions, err := u.History("u1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, second.ID, sessions[0].ID)
	require.NotEqual(t, first.ID, sessions[0].ID)
}
