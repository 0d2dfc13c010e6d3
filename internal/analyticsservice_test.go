package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/derWhity/turntable/internal/models"
)

type analyticsFixture struct {
	svc      AnalyticsService
	events   *fakeEventRepo
	requests *fakeRequestRepo
}

func newAnalyticsFixture() *analyticsFixture {
	f := &analyticsFixture{
		events:   &fakeEventRepo{events: map[string]*models.Event{}},
		requests: &fakeRequestRepo{},
	}
	f.events.events["friday-night-abc123"] = &models.Event{
		ID:   1,
		DJID: 1,
		Slug: "friday-night-abc123",
		Date: "2026-05-01",
	}
	f.svc = NewAnalyticsService(f.events, f.requests, testLogger())
	return f
}

func TestForEvent(t *testing.T) {
	f := newAnalyticsFixture()
	base := time.Date(2026, 5, 1, 21, 10, 0, 0, time.UTC)
	f.requests.requests = []*models.SongRequest{
		{ID: "a", EventID: 1, SongName: "Blinding Lights", Artist: "The Weeknd", Upvotes: 4,
			RequesterIdentity: "ip1", Upvoters: []string{"ip1", "ip2", "ip3", "ip4"},
			Status: models.RequestStatusPlayed, CreatedAt: base},
		{ID: "b", EventID: 1, SongName: "Levitating", Artist: "Dua Lipa", Upvotes: 2,
			RequesterIdentity: "ip2", Upvoters: []string{"ip2", "ip5"},
			Status: models.RequestStatusSkipped, CreatedAt: base.Add(20 * time.Minute)},
		{ID: "c", EventID: 1, SongName: "One More Time", Artist: "Daft Punk", Upvotes: 1,
			RequesterIdentity: "ip1", Upvoters: []string{"ip1"},
			Status: models.RequestStatusQueued, CreatedAt: base.Add(70 * time.Minute)},
	}

	report, err := f.svc.ForEvent(djContext(1), "friday-night-abc123")
	require.NoError(t, err)

	assert.Equal(t, uint(3), report.TotalRequests)
	// ip1..ip5 across submitters and upvoters
	assert.Equal(t, uint(5), report.UniqueRequesters)
	assert.Equal(t, uint(1), report.PlayedCount)
	assert.Equal(t, uint(1), report.SkippedCount)
	assert.Equal(t, 33.3, report.PlayedPct)
	assert.Equal(t, 33.3, report.SkippedPct)
	assert.Equal(t, 2.33, report.AvgUpvotes)

	require.Len(t, report.TopRequests, 3)
	assert.Equal(t, "a", report.TopRequests[0].ID)
	assert.Equal(t, "b", report.TopRequests[1].ID)

	// 21:10 and 21:30 share a bucket, 22:20 gets its own
	assert.Equal(t, []TimelineBucket{
		{Hour: "2026-05-01T21", Count: 2},
		{Hour: "2026-05-01T22", Count: 1},
	}, report.HourlyTimeline)
}

func TestForEventEmpty(t *testing.T) {
	f := newAnalyticsFixture()

	report, err := f.svc.ForEvent(djContext(1), "friday-night-abc123")
	require.NoError(t, err)
	assert.Equal(t, uint(0), report.TotalRequests)
	assert.Equal(t, 0.0, report.PlayedPct)
	assert.Equal(t, 0.0, report.AvgUpvotes)
	assert.Empty(t, report.TopRequests)
	assert.Empty(t, report.HourlyTimeline)
}

func TestForEventChecksOwnership(t *testing.T) {
	f := newAnalyticsFixture()

	_, err := f.svc.ForEvent(djContext(2), "friday-night-abc123")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotAuthorized, err.(*HTTPError).ErrorCode())
}

func TestSongRankingsGroupBySpelling(t *testing.T) {
	f := newAnalyticsFixture()
	f.requests.requests = []*models.SongRequest{
		{ID: "a", EventID: 1, SongName: "Blinding Lights", Artist: "The Weeknd", Upvotes: 2},
		{ID: "b", EventID: 1, SongName: "  blinding  LIGHTS ", Artist: "the weeknd", Upvotes: 3},
		{ID: "c", EventID: 1, SongName: "Levitating", Artist: "Dua Lipa", Upvotes: 4},
	}

	rankings, err := f.svc.SongRankings(djContext(1), "friday-night-abc123")
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	// Both spellings count towards the same entry, which wins on total upvotes
	assert.Equal(t, "Blinding Lights", rankings[0].SongName)
	assert.Equal(t, uint(2), rankings[0].RequestCount)
	assert.Equal(t, uint(5), rankings[0].TotalUpvotes)
	assert.Equal(t, uint(3), rankings[0].MaxUpvotes)
	assert.Equal(t, "Levitating", rankings[1].SongName)
}

func TestHotSongs(t *testing.T) {
	f := newAnalyticsFixture()
	f.requests.requests = []*models.SongRequest{
		// Hot by upvotes
		{ID: "a", EventID: 1, SongName: "Blinding Lights", Artist: "The Weeknd", Upvotes: 3},
		// Hot by being requested twice even with few upvotes
		{ID: "b", EventID: 1, SongName: "Levitating", Artist: "Dua Lipa", Upvotes: 1},
		{ID: "c", EventID: 1, SongName: "levitating", Artist: "dua lipa", Upvotes: 1},
		// Not hot
		{ID: "d", EventID: 1, SongName: "One More Time", Artist: "Daft Punk", Upvotes: 1},
	}

	hot, err := f.svc.HotSongs(djContext(1), 0)
	require.NoError(t, err)
	require.Len(t, hot, 2)
	assert.Equal(t, "Blinding Lights", hot[0].SongName)
	assert.Equal(t, "Levitating", hot[1].SongName)

	// A higher threshold drops the single-request song
	hot, err = f.svc.HotSongs(djContext(1), 4)
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, "Levitating", hot[0].SongName)
}

func TestAllTimeRankings(t *testing.T) {
	f := newAnalyticsFixture()
	f.events.events["saturday-social-xyz789"] = &models.Event{
		ID:   2,
		DJID: 1,
		Slug: "saturday-social-xyz789",
		Date: "2026-05-02",
	}
	f.requests.requests = []*models.SongRequest{
		{ID: "a", EventID: 1, SongName: "Blinding Lights", Artist: "The Weeknd", Upvotes: 2},
		{ID: "b", EventID: 2, SongName: "Blinding Lights", Artist: "The Weeknd", Upvotes: 5},
		{ID: "c", EventID: 2, SongName: "Levitating", Artist: "Dua Lipa", Upvotes: 1},
	}

	rankings, err := f.svc.AllTimeRankings(djContext(1))
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "Blinding Lights", rankings[0].SongName)
	assert.Equal(t, uint(7), rankings[0].TotalUpvotes)
	assert.Equal(t, []string{"2026-05-01", "2026-05-02"}, rankings[0].EventsRequestedAt)
	assert.Equal(t, []string{"2026-05-02"}, rankings[1].EventsRequestedAt)
}

func TestAnalyticsNeedLogin(t *testing.T) {
	f := newAnalyticsFixture()

	_, err := f.svc.AllTimeRankings(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotLoggedIn, err.(*HTTPError).ErrorCode())
}
