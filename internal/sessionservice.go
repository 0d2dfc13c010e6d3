package internal

import (
	"net/http"
	"strings"

	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// SessionService provides functions for interacting with a DJ's session
type SessionService interface {
	// Login tries to log-in the DJ with the given credentials and returns the info about the created session if login
	// was successful
	Login(ctx context.Context, email string, password string) (*SessionInfo, error)
	// Logout logs out a currently active session
	Logout(ctx context.Context, sessionID string) error
	// WhoAmI returns information about the current session
	WhoAmI(ctx context.Context, sessionID string) (*SessionInfo, error)
	// GetContents returns the session and DJ data associated with the given session ID
	// This service function will be used internally and does not have an endpoint
	GetContents(ctx context.Context, sessionID string, extendExpiry bool) (*models.Session, *models.DJ, error)
}

// -- Session service implementation -----------------------------------------------------------------------------------

// SessionInfo is a session information object that is returned upon login. It contains both, the session ID and
// information about the DJ that is logged in
type SessionInfo struct {
	SessionID string `json:"sessionId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

type sessionService struct {
	logger   *logrus.Entry
	sessions repos.SessionRepo
	djs      repos.DJRepo
}

// NewSessionService creates a new session service instance with the provided repositories
func NewSessionService(sr repos.SessionRepo, djs repos.DJRepo, logger *logrus.Entry) SessionService {
	return &sessionService{
		logger:   logger,
		sessions: sr,
		djs:      djs,
	}
}

// makeSessionInfo creates a session info object from the given session and DJ data
func makeSessionInfo(sess *models.Session, dj *models.DJ) *SessionInfo {
	return &SessionInfo{
		SessionID: sess.ID,
		Email:     dj.Email,
		Name:      dj.Name,
	}
}

// Login tries to log-in the DJ with the given credentials and returns the info about the created session if login
// was successful
func (s *sessionService) Login(ctx context.Context, email string, password string) (*SessionInfo, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	dj, err := s.djs.GetByEmail(email)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			// Same answer as for a wrong password - no account probing
			return nil, MakeError(
				http.StatusForbidden,
				ErrCodeLoginFailed,
				"Login failed",
			)
		}
		s.logger.WithError(err).Error("Failed to load DJ data for auth")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to authenticate",
		)
	}
	if err := dj.CheckPassword(password); err != nil {
		return nil, MakeError(
			http.StatusForbidden,
			ErrCodeLoginFailed,
			"Login failed",
		)
	}
	sess, err := s.sessions.CreateFor(dj.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create session")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to create session",
		)
	}
	return makeSessionInfo(sess, dj), nil
}

// Logout logs out a currently active session
func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.Delete(sessionID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete session")
		return MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to logout. Error in the data store",
		)
	}
	return nil
}

// WhoAmI returns information about the current session
func (s *sessionService) WhoAmI(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, dj, err := s.GetContents(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, MakeError(http.StatusUnauthorized, ErrCodeNotLoggedIn, "Not logged in")
	}
	return makeSessionInfo(sess, dj), nil
}

// GetContents returns the session and DJ data associated with the given session ID
// This service function will be used internally and does not have an endpoint
func (s *sessionService) GetContents(ctx context.Context, sessionID string, extendExpiry bool) (*models.Session, *models.DJ, error) {
	sess, err := s.sessions.GetByID(sessionID, extendExpiry)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, nil, nil
		}
		s.logger.WithError(err).Error("Failed to retrieve session from repo")
		return nil, nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to retrieve session information from storage",
		)
	}
	dj, err := s.djs.GetByID(sess.DJID)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, nil, nil
		}
		s.logger.WithError(err).Error("Failed to retrieve DJ data from repo")
		return nil, nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Failed to retrieve account information from storage",
		)
	}
	return sess, dj, nil
}
