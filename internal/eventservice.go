package internal

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
	"github.com/derWhity/turntable/internal/slug"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// EventDraft carries the fields a DJ provides when creating a new event
type EventDraft struct {
	Name             string           `json:"name" validate:"required,max=128"`
	Date             string           `json:"date"`
	IsRecurring      bool             `json:"isRecurring"`
	QueueVisible     *bool            `json:"queueVisible"`
	RequestsPerHour  uint             `json:"requestsPerHour"`
	RateLimitMessage string           `json:"rateLimitMessage" validate:"max=1024"`
	GenreTags        models.GenreTags `json:"genreTags"`
	VenmoHandle      string           `json:"venmoHandle" validate:"max=64"`
	CoverImageURL    string           `json:"coverImageUrl" validate:"max=1024"`
	InstagramHandle  string           `json:"instagramHandle" validate:"max=64"`
	WebsiteURL       string           `json:"websiteUrl" validate:"max=1024"`
}

// EventService provides service functions for working with events
type EventService interface {
	// Create creates a new event for the logged-in DJ
	Create(ctx context.Context, draft *EventDraft) (*models.Event, error)
	// Get returns the event with the given slug - this is the public attendee-facing lookup
	Get(ctx context.Context, slug string) (*models.Event, error)
	// List returns all events of the logged-in DJ
	List(ctx context.Context) ([]models.Event, error)
	// Patch partially updates an event of the logged-in DJ
	Patch(ctx context.Context, slug string, patch *models.EventPatch) (*models.Event, error)
	// End transitions an event of the logged-in DJ into the terminal ended state
	End(ctx context.Context, slug string) (*models.Event, error)
	// Delete removes an event of the logged-in DJ including all of its requests
	Delete(ctx context.Context, slug string) error
}

// -- EventService implementation --------------------------------------------------------------------------------------

type eventService struct {
	repo        repos.EventRepo
	broadcaster Broadcaster
	logger      *logrus.Entry
	now         func() time.Time
}

// NewEventService creates a new event service instance
func NewEventService(repo repos.EventRepo, broadcaster Broadcaster, logger *logrus.Entry) EventService {
	return &eventService{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// Create creates a new event owned by the logged-in DJ
func (s *eventService) Create(ctx context.Context, draft *EventDraft) (*models.Event, error) {
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	draft.Name = strings.TrimSpace(draft.Name)
	if err := validate.Struct(draft); err != nil {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue, "Invalid event data", err.Error())
	}
	date := strings.TrimSpace(draft.Date)
	if draft.IsRecurring {
		// Recurring events carry a placeholder date - clients check the isRecurring flag instead
		date = models.RecurringDateSentinel
	} else {
		if date == "" {
			return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeRequiredFieldMissing,
				"Event date missing", map[string]string{"field": "date"})
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue,
				"Event date must have the format YYYY-MM-DD", map[string]string{"field": "date"})
		}
	}
	queueVisible := true
	if draft.QueueVisible != nil {
		queueVisible = *draft.QueueVisible
	}
	tags := draft.GenreTags
	if tags == nil {
		tags = models.GenreTags{}
	}
	ev := &models.Event{
		DJID:             dj.ID,
		Slug:             slug.ForEvent(draft.Name),
		Name:             draft.Name,
		Date:             date,
		IsRecurring:      draft.IsRecurring,
		Status:           models.EventStatusActive,
		QueueVisible:     queueVisible,
		Visible:          true,
		RequestsPerHour:  draft.RequestsPerHour,
		RateLimitMessage: strings.TrimSpace(draft.RateLimitMessage),
		GenreTags:        tags,
		VenmoHandle:      strings.TrimSpace(draft.VenmoHandle),
		CoverImageURL:    strings.TrimSpace(draft.CoverImageURL),
		InstagramHandle:  strings.TrimSpace(draft.InstagramHandle),
		WebsiteURL:       strings.TrimSpace(draft.WebsiteURL),
	}
	if err := s.repo.Create(ev); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while creating the event", err.Error())
	}
	return ev, nil
}

// Get returns the event with the given slug
func (s *eventService) Get(ctx context.Context, eventSlug string) (*models.Event, error) {
	ev, err := s.repo.GetBySlug(eventSlug)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event '%s' does not exist", eventSlug),
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving event '%s'", eventSlug), err.Error(),
		)
	}
	return ev, nil
}

// List returns all events of the logged-in DJ - newest first
func (s *eventService) List(ctx context.Context) ([]models.Event, error) {
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.ListByDJ(dj.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while listing events", err.Error())
	}
	return events, nil
}

// Patch partially updates an event - only the non-nil fields of the patch are applied
func (s *eventService) Patch(ctx context.Context, eventSlug string, patch *models.EventPatch) (*models.Event, error) {
	ev, err := s.getOwned(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "No fields to update")
	}
	if patch.Date != nil {
		if _, err := time.Parse("2006-01-02", *patch.Date); err != nil {
			return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue,
				"Event date must have the format YYYY-MM-DD", map[string]string{"field": "date"})
		}
	}
	if err := s.repo.UpdatePartial(eventSlug, patch); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while updating event '%s'", eventSlug), err.Error())
	}
	updated, err := s.Get(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	// Toggling the queue visibility is pushed out immediately so attendee pages can react
	if patch.QueueVisible != nil && *patch.QueueVisible != ev.QueueVisible {
		s.broadcaster.BroadcastVisibilityToggle(eventSlug, *patch.QueueVisible)
	}
	return updated, nil
}

// End transitions the event into the terminal "ended" state. The transition is one-way
func (s *eventService) End(ctx context.Context, eventSlug string) (*models.Event, error) {
	ev, err := s.getOwned(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	if !ev.Active() {
		return nil, MakeError(http.StatusBadRequest, ErrCodeEventEnded,
			fmt.Sprintf("Event '%s' has already ended", eventSlug))
	}
	endedAt := s.now()
	if err := s.repo.MarkEnded(eventSlug, endedAt); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while ending event '%s'", eventSlug), err.Error())
	}
	ev.Status = models.EventStatusEnded
	ev.EndedAt = &endedAt
	return ev, nil
}

// Delete removes an event together with all of its song requests
func (s *eventService) Delete(ctx context.Context, eventSlug string) error {
	if _, err := s.getOwned(ctx, eventSlug); err != nil {
		return err
	}
	if err := s.repo.Delete(eventSlug); err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event '%s' does not exist", eventSlug))
		}
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while deleting event '%s'", eventSlug), err.Error())
	}
	return nil
}

// getOwned loads an event and verifies that it belongs to the logged-in DJ
func (s *eventService) getOwned(ctx context.Context, eventSlug string) (*models.Event, error) {
	ev, err := s.Get(ctx, eventSlug)
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
