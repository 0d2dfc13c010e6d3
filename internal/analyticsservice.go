package internal

import (
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/turntable/internal/match"
	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
)

const (
	// How many entries the per-event ranking returns at most
	rankingLimit = 100
	// How many entries the all-time ranking returns at most
	allTimeRankingLimit = 200
	// Minimum upvote count for a song to be considered "hot" when the caller does not override it
	defaultHotSongMinUpvotes = 3
	// Number of entries in the top list of the event report
	topRequestCount = 10
)

// TimelineBucket is one hour of submission activity
type TimelineBucket struct {
	// The hour in the format YYYY-MM-DDTHH (UTC)
	Hour string `json:"hour"`
	// Number of submissions within that hour - merged duplicates count at their original submission
	Count uint `json:"count"`
}

// EventAnalytics is the post-event report for a single event
type EventAnalytics struct {
	TotalRequests    uint                 `json:"totalRequests"`
	UniqueRequesters uint                 `json:"uniqueRequesters"`
	PlayedCount      uint                 `json:"playedCount"`
	SkippedCount     uint                 `json:"skippedCount"`
	PlayedPct        float64              `json:"playedPct"`
	SkippedPct       float64              `json:"skippedPct"`
	AvgUpvotes       float64              `json:"avgUpvotes"`
	TopRequests      []models.SongRequest `json:"topRequests"`
	HourlyTimeline   []TimelineBucket     `json:"hourlyTimeline"`
}

// SongRanking aggregates all requests for the same song
type SongRanking struct {
	SongName     string `json:"songName"`
	Artist       string `json:"artist"`
	RequestCount uint   `json:"requestCount"`
	TotalUpvotes uint   `json:"totalUpvotes"`
	// The highest upvote count a single request of this song has reached
	MaxUpvotes uint `json:"maxUpvotes"`
	// When was this song requested last?
	LastRequested time.Time `json:"lastRequested"`
	// The dates of the events the song was requested at - only populated in the all-time ranking
	EventsRequestedAt []string `json:"eventsRequestedAt,omitempty"`
}

// AnalyticsService computes reports over the collected song requests
type AnalyticsService interface {
	// ForEvent builds the post-event report for one event of the logged-in DJ
	ForEvent(ctx context.Context, eventSlug string) (*EventAnalytics, error)
	// SongRankings returns the most requested songs of a single event
	SongRankings(ctx context.Context, eventSlug string) ([]SongRanking, error)
	// HotSongs returns the songs that stand out across all events of the logged-in DJ. A song is
	// hot when it collected at least minUpvotes upvotes or was requested more than once
	HotSongs(ctx context.Context, minUpvotes uint) ([]SongRanking, error)
	// AllTimeRankings returns the most requested songs across all events of the logged-in DJ
	AllTimeRankings(ctx context.Context) ([]SongRanking, error)
}

// -- AnalyticsService implementation ----------------------------------------------------------------------------------

type analyticsService struct {
	events   repos.EventRepo
	requests repos.RequestRepo
	logger   *logrus.Entry
}

// NewAnalyticsService creates a new analytics service instance
func NewAnalyticsService(events repos.EventRepo, requests repos.RequestRepo, logger *logrus.Entry) AnalyticsService {
	return &analyticsService{
		events:   events,
		requests: requests,
		logger:   logger,
	}
}

// ForEvent builds the post-event report for one event of the logged-in DJ
func (s *analyticsService) ForEvent(ctx context.Context, eventSlug string) (*EventAnalytics, error) {
	ev, err := s.ownedEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	all, err := s.requests.ListByEvent(ev.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the requests", err.Error())
	}
	report := &EventAnalytics{
		TotalRequests: uint(len(all)),
		TopRequests:   []models.SongRequest{},
	}
	identities := map[string]struct{}{}
	var totalUpvotes uint
	buckets := map[string]uint{}
	for _, req := range all {
		identities[req.RequesterIdentity] = struct{}{}
		for _, upvoter := range req.Upvoters {
			identities[upvoter] = struct{}{}
		}
		totalUpvotes += req.Upvotes
		switch req.Status {
		case models.RequestStatusPlayed:
			report.PlayedCount++
		case models.RequestStatusSkipped:
			report.SkippedCount++
		}
		buckets[req.CreatedAt.UTC().Format("2006-01-02T15")]++
	}
	report.UniqueRequesters = uint(len(identities))
	if report.TotalRequests > 0 {
		total := float64(report.TotalRequests)
		report.PlayedPct = round1(float64(report.PlayedCount) / total * 100)
		report.SkippedPct = round1(float64(report.SkippedCount) / total * 100)
		report.AvgUpvotes = round2(float64(totalUpvotes) / total)
	}
	top := make([]models.SongRequest, len(all))
	copy(top, all)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Upvotes > top[j].Upvotes
	})
	if len(top) > topRequestCount {
		top = top[:topRequestCount]
	}
	report.TopRequests = top
	report.HourlyTimeline = sortedTimeline(buckets)
	return report, nil
}

// SongRankings returns the most requested songs of a single event, most upvoted first
func (s *analyticsService) SongRankings(ctx context.Context, eventSlug string) ([]SongRanking, error) {
	ev, err := s.ownedEvent(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	all, err := s.requests.ListByEvent(ev.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the requests", err.Error())
	}
	rankings := aggregate(all, nil)
	if len(rankings) > rankingLimit {
		rankings = rankings[:rankingLimit]
	}
	return rankings, nil
}

// HotSongs returns the songs that stand out across all events of the logged-in DJ
func (s *analyticsService) HotSongs(ctx context.Context, minUpvotes uint) ([]SongRanking, error) {
	if minUpvotes == 0 {
		minUpvotes = defaultHotSongMinUpvotes
	}
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.requests.ListByDJ(dj.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the requests", err.Error())
	}
	hot := []SongRanking{}
	for _, ranking := range aggregate(all, nil) {
		if ranking.TotalUpvotes >= minUpvotes || ranking.RequestCount >= 2 {
			hot = append(hot, ranking)
		}
	}
	return hot, nil
}

// AllTimeRankings returns the most requested songs across all events of the logged-in DJ
func (s *analyticsService) AllTimeRankings(ctx context.Context) ([]SongRanking, error) {
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.requests.ListByDJ(dj.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the requests", err.Error())
	}
	events, err := s.events.ListByDJ(dj.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the events", err.Error())
	}
	dates := make(map[uint]string, len(events))
	for _, ev := range events {
		dates[ev.ID] = ev.Date
	}
	rankings := aggregate(all, dates)
	if len(rankings) > allTimeRankingLimit {
		rankings = rankings[:allTimeRankingLimit]
	}
	return rankings, nil
}

// aggregate groups requests by their normalized song key and sorts the result by total upvotes.
// When eventDates is given, the distinct dates of the events a song was requested at are collected
func aggregate(requests []models.SongRequest, eventDates map[uint]string) []SongRanking {
	byKey := map[string]*SongRanking{}
	seenDates := map[string]map[string]struct{}{}
	var order []string
	for _, req := range requests {
		key := match.SongKey(req.SongName, req.Artist)
		ranking, ok := byKey[key]
		if !ok {
			ranking = &SongRanking{
				SongName: req.SongName,
				Artist:   req.Artist,
			}
			byKey[key] = ranking
			order = append(order, key)
		}
		ranking.RequestCount++
		ranking.TotalUpvotes += req.Upvotes
		if req.Upvotes > ranking.MaxUpvotes {
			ranking.MaxUpvotes = req.Upvotes
		}
		if req.CreatedAt.After(ranking.LastRequested) {
			ranking.LastRequested = req.CreatedAt
		}
		if eventDates != nil {
			date, ok := eventDates[req.EventID]
			if !ok {
				continue
			}
			if seenDates[key] == nil {
				seenDates[key] = map[string]struct{}{}
			}
			if _, seen := seenDates[key][date]; !seen {
				seenDates[key][date] = struct{}{}
				ranking.EventsRequestedAt = append(ranking.EventsRequestedAt, date)
			}
		}
	}
	ret := make([]SongRanking, 0, len(order))
	for _, key := range order {
		ret = append(ret, *byKey[key])
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].TotalUpvotes != ret[j].TotalUpvotes {
			return ret[i].TotalUpvotes > ret[j].TotalUpvotes
		}
		return ret[i].RequestCount > ret[j].RequestCount
	})
	return ret
}

// ownedEvent loads an event and verifies that it belongs to the logged-in DJ
func (s *analyticsService) ownedEvent(ctx context.Context, eventSlug string) (*models.Event, error) {
	ev, err := s.events.GetBySlug(eventSlug)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				"Event '"+eventSlug+"' does not exist")
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while retrieving event '"+eventSlug+"'", err.Error())
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

// sortedTimeline turns the hour buckets into a chronologically sorted slice
func sortedTimeline(buckets map[string]uint) []TimelineBucket {
	hours := make([]string, 0, len(buckets))
	for hour := range buckets {
		hours = append(hours, hour)
	}
	sort.Strings(hours)
	ret := make([]TimelineBucket, 0, len(hours))
	for _, hour := range hours {
		ret = append(ret, TimelineBucket{Hour: hour, Count: buckets[hour]})
	}
	return ret
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
