package internal

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/turntable/internal/models"
)

type eventFixture struct {
	svc    EventService
	events *fakeEventRepo
	bc     *fakeBroadcaster
	clock  time.Time
}

func newEventFixture() *eventFixture {
	f := &eventFixture{
		events: &fakeEventRepo{events: map[string]*models.Event{}},
		bc:     &fakeBroadcaster{},
		clock:  time.Date(2026, 5, 1, 23, 45, 0, 0, time.UTC),
	}
	svc := NewEventService(f.events, f.bc, testLogger())
	svc.(*eventService).now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func TestCreateEvent(t *testing.T) {
	f := newEventFixture()

	ev, err := f.svc.Create(djContext(1), &EventDraft{
		Name:            "Friday Night Fever",
		Date:            "2026-05-01",
		RequestsPerHour: 5,
		GenreTags:       models.GenreTags{"house", "disco"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), ev.DJID)
	assert.Regexp(t, regexp.MustCompile(`^friday-night-fever-[a-z0-9]{6}$`), ev.Slug)
	assert.Equal(t, models.EventStatusActive, ev.Status)
	assert.True(t, ev.QueueVisible)
	assert.True(t, ev.Visible)
	assert.Equal(t, "2026-05-01", ev.Date)
}

func TestCreateEventNameRequired(t *testing.T) {
	f := newEventFixture()

	_, err := f.svc.Create(djContext(1), &EventDraft{Name: "  ", Date: "2026-05-01"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*HTTPError).Status())
}

func TestCreateEventDateRequired(t *testing.T) {
	f := newEventFixture()

	_, err := f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeRequiredFieldMissing, err.(*HTTPError).ErrorCode())

	_, err = f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night", Date: "05/01/2026"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeIllegalValue, err.(*HTTPError).ErrorCode())
}

func TestCreateRecurringEventGetsSentinelDate(t *testing.T) {
	f := newEventFixture()

	ev, err := f.svc.Create(djContext(1), &EventDraft{Name: "Taco Tuesday", IsRecurring: true})
	require.NoError(t, err)
	assert.Equal(t, models.RecurringDateSentinel, ev.Date)
	assert.True(t, ev.IsRecurring)
}

func TestPatchEventBroadcastsVisibilityToggle(t *testing.T) {
	f := newEventFixture()
	ev, err := f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night", Date: "2026-05-01"})
	require.NoError(t, err)

	hidden := false
	_, err = f.svc.Patch(djContext(1), ev.Slug, &models.EventPatch{QueueVisible: &hidden})
	require.NoError(t, err)
	assert.Equal(t, []string{"visibility:toggle"}, f.bc.kinds)

	// Patching other fields does not fire the toggle
	name := "Friday Night II"
	_, err = f.svc.Patch(djContext(1), ev.Slug, &models.EventPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []string{"visibility:toggle"}, f.bc.kinds)
}

func TestPatchEventRejectsEmptyPatch(t *testing.T) {
	f := newEventFixture()
	ev, err := f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night", Date: "2026-05-01"})
	require.NoError(t, err)

	_, err = f.svc.Patch(djContext(1), ev.Slug, &models.EventPatch{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*HTTPError).Status())
}

func TestPatchEventChecksOwnership(t *testing.T) {
	f := newEventFixture()
	ev, err := f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night", Date: "2026-05-01"})
	require.NoError(t, err)

	name := "Hijacked"
	_, err = f.svc.Patch(djContext(2), ev.Slug, &models.EventPatch{Name: &name})
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotAuthorized, err.(*HTTPError).ErrorCode())
}

func TestEndEventIsOneWay(t *testing.T) {
	f := newEventFixture()
	ev, err := f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night", Date: "2026-05-01"})
	require.NoError(t, err)

	ended, err := f.svc.End(djContext(1), ev.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, f.clock, *ended.EndedAt)

	_, err = f.svc.End(djContext(1), ev.Slug)
	require.Error(t, err)
	assert.Equal(t, ErrCodeEventEnded, err.(*HTTPError).ErrorCode())
}

func TestDeleteEvent(t *testing.T) {
	f := newEventFixture()
	ev, err := f.svc.Create(djContext(1), &EventDraft{Name: "Friday Night", Date: "2026-05-01"})
	require.NoError(t, err)

	require.Error(t, f.svc.Delete(djContext(2), ev.Slug))
	require.NoError(t, f.svc.Delete(djContext(1), ev.Slug))

	_, err = f.svc.Get(djContext(1), ev.Slug)
	require.Error(t, err)
	assert.Equal(t, ErrCodeEventNotFound, err.(*HTTPError).ErrorCode())
}
