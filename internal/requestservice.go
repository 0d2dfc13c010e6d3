package internal

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/turntable/internal/ctxhelper"
	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/match"
	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
)

// msgSongBlocked is shown for blocked songs. It deliberately does not reveal which pattern matched
const msgSongBlocked = "This song isn't available for requests at this event."

// SubmitRequest carries the fields an attendee provides when requesting a song
type SubmitRequest struct {
	SongName      string `json:"songName" validate:"required,max=256"`
	Artist        string `json:"artist" validate:"required,max=256"`
	RequesterName string `json:"requesterName" validate:"max=128"`
}

// SubmitOutcome is the answer to a submission. Merged tells the client that the submission was
// folded into an existing request as an upvote instead of creating a new entry
type SubmitOutcome struct {
	models.SongRequest
	Merged bool `json:"merged"`
}

// RequestService provides service functions for working with song requests
type RequestService interface {
	// Submit handles an attendee submission for the event with the given slug. A submission that
	// duplicates an open request is merged into it as an upvote instead of creating a new entry
	Submit(ctx context.Context, eventSlug string, sub *SubmitRequest, identity string) (*SubmitOutcome, error)
	// Upvote registers an upvote on an open request by the given identity
	Upvote(ctx context.Context, eventSlug string, requestID string, identity string) (*models.SongRequest, error)
	// Queue returns the open requests of an event in play order
	Queue(ctx context.Context, eventSlug string) ([]models.SongRequest, error)
	// ListForEvent returns all requests of an event regardless of status - DJ only
	ListForEvent(ctx context.Context, eventSlug string) ([]models.SongRequest, error)
	// SetStatus moves a request along the status machine - DJ only
	SetStatus(ctx context.Context, eventSlug string, requestID string, status string) (*models.SongRequest, error)
}

// -- RequestService implementation ------------------------------------------------------------------------------------

type requestService struct {
	events      repos.EventRepo
	requests    repos.RequestRepo
	blocklist   repos.BlocklistRepo
	broadcaster Broadcaster
	logger      *logrus.Entry
	// Rejection message used when an event does not configure its own
	defaultRateLimitMessage string
	now                     func() time.Time
}

// NewRequestService creates a new request service instance
func NewRequestService(
	events repos.EventRepo,
	requests repos.RequestRepo,
	blocklist repos.BlocklistRepo,
	broadcaster Broadcaster,
	defaultRateLimitMessage string,
	logger *logrus.Entry,
) RequestService {
	return &requestService{
		events:                  events,
		requests:                requests,
		blocklist:               blocklist,
		broadcaster:             broadcaster,
		logger:                  logger,
		defaultRateLimitMessage: defaultRateLimitMessage,
		now:                     time.Now,
	}
}

// Submit runs an attendee submission through the restriction pipeline and stores it.
// The order matters: lifecycle check, rate limit, block list, duplicate merge
func (s *requestService) Submit(
	ctx context.Context, eventSlug string, sub *SubmitRequest, identity string,
) (*SubmitOutcome, error) {
	sub.SongName = strings.TrimSpace(sub.SongName)
	sub.Artist = strings.TrimSpace(sub.Artist)
	sub.RequesterName = strings.TrimSpace(sub.RequesterName)
	if err := validate.Struct(sub); err != nil {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue,
			"Song name and artist are required", err.Error())
	}
	if sub.RequesterName == "" {
		sub.RequesterName = "Anonymous"
	}
	ev, err := s.loadEvent(eventSlug)
	if err != nil {
		return nil, err
	}
	if !ev.Active() {
		return nil, MakeError(http.StatusGone, ErrCodeEventEnded,
			"This event has ended and is not accepting requests anymore")
	}
	if !ev.Visible {
		// Recurring events get switched off between sessions instead of ending
		return nil, MakeError(http.StatusGone, ErrCodeEventInactive,
			"This event is currently not accepting requests")
	}
	if err := s.checkRateLimit(ev, identity); err != nil {
		return nil, err
	}
	if err := s.checkBlocklist(ev, sub.SongName); err != nil {
		return nil, err
	}
	open, err := s.requests.ListOpen(ev.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the request queue", err.Error())
	}
	for i := range open {
		if match.SongsEqual(sub.SongName, sub.Artist, open[i].SongName, open[i].Artist) {
			merged, err := s.merge(eventSlug, &open[i], identity)
			if err != nil {
				return nil, err
			}
			return &SubmitOutcome{SongRequest: *merged, Merged: true}, nil
		}
	}
	req := &models.SongRequest{
		ID:                uuid.New().String(),
		EventID:           ev.ID,
		SongName:          sub.SongName,
		Artist:            sub.Artist,
		RequesterName:     sub.RequesterName,
		Upvotes:           1,
		RequesterIdentity: identity,
		Status:            models.RequestStatusQueued,
	}
	if err := s.requests.Create(req); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while storing the request", err.Error())
	}
	s.logger.WithFields(logrus.Fields{
		log.FldEvent:   eventSlug,
		log.FldRequest: req.ID,
	}).Info("New song request")
	s.broadcaster.BroadcastNewRequest(eventSlug, req)
	return &SubmitOutcome{SongRequest: *req}, nil
}

// merge folds a duplicate submission into the existing open request as an upvote
func (s *requestService) merge(
	eventSlug string, existing *models.SongRequest, identity string,
) (*models.SongRequest, error) {
	req, err := s.requests.AddUpvote(existing.ID, identity)
	if err != nil {
		if err == repos.ErrAlreadyUpvoted {
			return nil, MakeError(http.StatusConflict, ErrCodeAlreadyUpvoted,
				"You've already requested this song")
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while merging the request", err.Error())
	}
	s.broadcaster.BroadcastNewRequest(eventSlug, req)
	return req, nil
}

// Upvote registers an upvote on an open request
func (s *requestService) Upvote(
	ctx context.Context, eventSlug string, requestID string, identity string,
) (*models.SongRequest, error) {
	ev, err := s.loadEvent(eventSlug)
	if err != nil {
		return nil, err
	}
	existing, err := s.loadRequest(ev, requestID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.RequestStatusQueued && existing.Status != models.RequestStatusPinned {
		return nil, MakeError(http.StatusBadRequest, ErrCodeIllegalValue,
			"This request is no longer open for upvotes")
	}
	req, err := s.requests.AddUpvote(requestID, identity)
	if err != nil {
		if err == repos.ErrAlreadyUpvoted {
			return nil, MakeError(http.StatusConflict, ErrCodeAlreadyUpvoted,
				"You've already upvoted this request")
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while storing the upvote", err.Error())
	}
	s.broadcaster.BroadcastQueueUpdate(eventSlug)
	return req, nil
}

// Queue returns the open requests of an event ordered for playing: pinned requests first, then by
// upvotes, ties broken by submission time
func (s *requestService) Queue(ctx context.Context, eventSlug string) ([]models.SongRequest, error) {
	ev, err := s.loadEvent(eventSlug)
	if err != nil {
		return nil, err
	}
	if !ev.QueueVisible {
		// The owning DJ can always see the queue
		dj := ctxhelper.DJ(ctx)
		if dj == nil || dj.ID != ev.DJID {
			return nil, MakeError(http.StatusForbidden, ErrCodeNotAuthorized,
				"The queue of this event is not public")
		}
	}
	open, err := s.requests.ListOpen(ev.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the request queue", err.Error())
	}
	SortQueue(open)
	return open, nil
}

// ListForEvent returns all requests of an event including played and skipped ones
func (s *requestService) ListForEvent(ctx context.Context, eventSlug string) ([]models.SongRequest, error) {
	ev, err := s.loadOwnedEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	all, err := s.requests.ListByEvent(ev.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the requests", err.Error())
	}
	return all, nil
}

// SetStatus moves a request along the status machine. Played requests get their playedAt stamped
func (s *requestService) SetStatus(
	ctx context.Context, eventSlug string, requestID string, status string,
) (*models.SongRequest, error) {
	ev, err := s.loadOwnedEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	if !models.ValidRequestStatus(status) {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue,
			fmt.Sprintf("'%s' is not a valid request status", status),
			map[string]string{"field": "status"})
	}
	req, err := s.loadRequest(ev, requestID)
	if err != nil {
		return nil, err
	}
	if !models.ValidStatusTransition(req.Status, status) {
		return nil, MakeError(http.StatusBadRequest, ErrCodeIllegalTransition,
			fmt.Sprintf("A request cannot move from '%s' to '%s'", req.Status, status))
	}
	var playedAt *time.Time
	if status == models.RequestStatusPlayed {
		t := s.now()
		playedAt = &t
	}
	if err := s.requests.SetStatus(requestID, status, playedAt); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while updating the request status", err.Error())
	}
	req.Status = status
	if playedAt != nil {
		req.PlayedAt = playedAt
	}
	if status == models.RequestStatusPlayed {
		s.broadcaster.BroadcastRequestPlayed(eventSlug, req)
	} else {
		s.broadcaster.BroadcastQueueUpdate(eventSlug)
	}
	return req, nil
}

// checkRateLimit rejects a submission when the identity has exhausted the event's hourly budget
func (s *requestService) checkRateLimit(ev *models.Event, identity string) error {
	if ev.RequestsPerHour == 0 {
		return nil
	}
	since := s.now().Add(-time.Hour)
	num, err := s.requests.CountRecentByIdentity(ev.ID, identity, since)
	if err != nil {
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while checking the rate limit", err.Error())
	}
	if num >= ev.RequestsPerHour {
		msg := ev.RateLimitMessage
		if msg == "" {
			msg = s.defaultRateLimitMessage
		}
		return MakeError(http.StatusTooManyRequests, ErrCodeTooManyRequests, msg)
	}
	return nil
}

// checkBlocklist rejects a submission when the song name matches one of the DJ's block patterns
func (s *requestService) checkBlocklist(ev *models.Event, songName string) error {
	patterns, err := s.blocklist.ListPatterns(ev.DJID)
	if err != nil {
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while checking the block list", err.Error())
	}
	for _, pattern := range patterns {
		if match.MatchesBlockPattern(songName, pattern) {
			return MakeError(http.StatusForbidden, ErrCodeSongBlocked, msgSongBlocked)
		}
	}
	return nil
}

func (s *requestService) loadEvent(eventSlug string) (*models.Event, error) {
	ev, err := s.events.GetBySlug(eventSlug)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event '%s' does not exist", eventSlug))
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving event '%s'", eventSlug), err.Error())
	}
	return ev, nil
}

func (s *requestService) loadOwnedEvent(ctx context.Context, eventSlug string) (*models.Event, error) {
	ev, err := s.loadEvent(eventSlug)
	if err != nil {
		return nil, err
	}
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	if ev.DJID != dj.ID {
		return nil, MakeError(http.StatusForbidden, ErrCodeNotAuthorized,
			"This event belongs to another DJ")
	}
	return ev, nil
}

// loadRequest loads a request and verifies that it belongs to the given event
func (s *requestService) loadRequest(ev *models.Event, requestID string) (*models.SongRequest, error) {
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeRequestNotFound,
				fmt.Sprintf("Request '%s' does not exist", requestID))
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving request '%s'", requestID), err.Error())
	}
	if req.EventID != ev.ID {
		return nil, MakeError(http.StatusNotFound, ErrCodeRequestNotFound,
			fmt.Sprintf("Request '%s' does not exist", requestID))
	}
	return req, nil
}

// SortQueue sorts open requests into play order: pinned requests first, then by upvote count,
// ties broken by submission time (oldest first). The sort is stable
func SortQueue(requests []models.SongRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		a, b := &requests[i], &requests[j]
		aPinned := a.Status == models.RequestStatusPinned
		bPinned := b.Status == models.RequestStatusPinned
		if aPinned != bPinned {
			return aPinned
		}
		if a.Upvotes != b.Upvotes {
			return a.Upvotes > b.Upvotes
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
