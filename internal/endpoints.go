package internal

import (
	"fmt"
	"net/http"

	"github.com/derWhity/turntable/internal/models"
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	Create endpoint.Endpoint
	Get    endpoint.Endpoint
	List   endpoint.Endpoint
	Patch  endpoint.Endpoint
	End    endpoint.Endpoint
	Delete endpoint.Endpoint
}

// RequestEndpoints is a collection of endpoints for working with the request service
type RequestEndpoints struct {
	Submit    endpoint.Endpoint
	Upvote    endpoint.Endpoint
	Queue     endpoint.Endpoint
	List      endpoint.Endpoint
	SetStatus endpoint.Endpoint
}

// BlocklistEndpoints is a collection of endpoints for working with the block list service
type BlocklistEndpoints struct {
	Create endpoint.Endpoint
	List   endpoint.Endpoint
	Delete endpoint.Endpoint
}

// AnalyticsEndpoints is a collection of endpoints for working with the analytics service
type AnalyticsEndpoints struct {
	ForEvent        endpoint.Endpoint
	SongRankings    endpoint.Endpoint
	HotSongs        endpoint.Endpoint
	AllTimeRankings endpoint.Endpoint
}

// SessionEndpoints is a collection of endpoints for working with the session service
type SessionEndpoints struct {
	Login  endpoint.Endpoint
	Logout endpoint.Endpoint
	WhoAmI endpoint.Endpoint
}

// The base for all responses which always contains an "ok" property to show if the call was successful and a
// data element containing the result of the request
type basicResponse struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

// createdResponse is a basicResponse that answers with 201 instead of 200
type createdResponse struct {
	basicResponse
}

// StatusCode implements the statusCoder interface checked by the response encoder
func (createdResponse) StatusCode() int {
	return http.StatusCreated
}

// A request working on a single event
type eventSlugRequest struct {
	Slug string
}

// A request applying a partial update to an event
type eventPatchRequest struct {
	Slug  string
	Patch models.EventPatch
}

// An attendee submission together with the resolved client identity
type submitSongRequest struct {
	Slug     string
	Sub      SubmitRequest
	Identity string
}

// An upvote on an existing request
type upvoteSongRequest struct {
	Slug      string
	RequestID string
	Identity  string
}

// A status change requested by the DJ
type setStatusRequest struct {
	Slug      string
	RequestID string
	Status    string
}

// A request for the hot song listing
type hotSongsRequest struct {
	MinUpvotes uint
}

// A request made when logging in
type loginRequest struct {
	Email string `json:"email"`
	Pass  string `json:"password"`
}

// -- Events -----------------------------------------------------------------------------------------------------------

// MakeEventEndpoints builds the endpoints needed to communicate with the event service
func MakeEventEndpoints(s EventService) EventEndpoints {
	return EventEndpoints{
		Create: EnsureDJLoggedIn(makeCreateEventEndpoint(s)),
		Get:    makeGetEventEndpoint(s),
		List:   EnsureDJLoggedIn(makeListEventsEndpoint(s)),
		Patch:  EnsureDJLoggedIn(makePatchEventEndpoint(s)),
		End:    EnsureDJLoggedIn(makeEndEventEndpoint(s)),
		Delete: EnsureDJLoggedIn(makeDeleteEventEndpoint(s)),
	}
}

func makeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		draft, ok := request.(EventDraft)
		if !ok {
			return nil, fmt.Errorf("illegal event parameter")
		}
		ev, err := s.Create(ctx, &draft)
		if err != nil {
			return nil, err
		}
		return createdResponse{basicResponse{true, ev}}, nil
	}
}

func makeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		ev, err := s.Get(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makePatchEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventPatchRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event patch")
		}
		ev, err := s.Patch(ctx, req.Slug, &req.Patch)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeEndEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		ev, err := s.End(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeDeleteEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		if err := s.Delete(ctx, req.Slug); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

// -- Song requests ----------------------------------------------------------------------------------------------------

// MakeRequestEndpoints builds the endpoints needed to communicate with the request service
func MakeRequestEndpoints(s RequestService) RequestEndpoints {
	return RequestEndpoints{
		Submit:    makeSubmitEndpoint(s),
		Upvote:    makeUpvoteEndpoint(s),
		Queue:     makeQueueEndpoint(s),
		List:      EnsureDJLoggedIn(makeListRequestsEndpoint(s)),
		SetStatus: EnsureDJLoggedIn(makeSetStatusEndpoint(s)),
	}
}

func makeSubmitEndpoint(s RequestService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(submitSongRequest)
		if !ok {
			return nil, fmt.Errorf("illegal submission")
		}
		res, err := s.Submit(ctx, req.Slug, &req.Sub, req.Identity)
		if err != nil {
			return nil, err
		}
		return createdResponse{basicResponse{true, res}}, nil
	}
}

func makeUpvoteEndpoint(s RequestService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(upvoteSongRequest)
		if !ok {
			return nil, fmt.Errorf("illegal upvote request")
		}
		res, err := s.Upvote(ctx, req.Slug, req.RequestID, req.Identity)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, res}, nil
	}
}

func makeQueueEndpoint(s RequestService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		queue, err := s.Queue(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, queue}, nil
	}
}

func makeListRequestsEndpoint(s RequestService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		list, err := s.ListForEvent(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makeSetStatusEndpoint(s RequestService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(setStatusRequest)
		if !ok {
			return nil, fmt.Errorf("illegal status request")
		}
		res, err := s.SetStatus(ctx, req.Slug, req.RequestID, req.Status)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, res}, nil
	}
}

// -- Block list -------------------------------------------------------------------------------------------------------

// MakeBlocklistEndpoints builds the endpoints needed to communicate with the block list service
func MakeBlocklistEndpoints(s BlocklistService) BlocklistEndpoints {
	return BlocklistEndpoints{
		Create: EnsureDJLoggedIn(makeCreateBlocklistEntryEndpoint(s)),
		List:   EnsureDJLoggedIn(makeListBlocklistEndpoint(s)),
		Delete: EnsureDJLoggedIn(makeDeleteBlocklistEntryEndpoint(s)),
	}
}

func makeCreateBlocklistEntryEndpoint(s BlocklistService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		pattern, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal block pattern")
		}
		entry, err := s.Create(ctx, pattern)
		if err != nil {
			return nil, err
		}
		return createdResponse{basicResponse{true, entry}}, nil
	}
}

func makeListBlocklistEndpoint(s BlocklistService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makeDeleteBlocklistEntryEndpoint(s BlocklistService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal entry ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

// -- Analytics --------------------------------------------------------------------------------------------------------

// MakeAnalyticsEndpoints builds the endpoints needed to communicate with the analytics service
func MakeAnalyticsEndpoints(s AnalyticsService) AnalyticsEndpoints {
	return AnalyticsEndpoints{
		ForEvent:        EnsureDJLoggedIn(makeEventAnalyticsEndpoint(s)),
		SongRankings:    EnsureDJLoggedIn(makeSongRankingsEndpoint(s)),
		HotSongs:        EnsureDJLoggedIn(makeHotSongsEndpoint(s)),
		AllTimeRankings: EnsureDJLoggedIn(makeAllTimeRankingsEndpoint(s)),
	}
}

func makeEventAnalyticsEndpoint(s AnalyticsService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		report, err := s.ForEvent(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, report}, nil
	}
}

func makeSongRankingsEndpoint(s AnalyticsService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventSlugRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event slug")
		}
		rankings, err := s.SongRankings(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, rankings}, nil
	}
}

func makeHotSongsEndpoint(s AnalyticsService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(hotSongsRequest)
		if !ok {
			return nil, fmt.Errorf("illegal hot song request")
		}
		hot, err := s.HotSongs(ctx, req.MinUpvotes)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, hot}, nil
	}
}

func makeAllTimeRankingsEndpoint(s AnalyticsService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		rankings, err := s.AllTimeRankings(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, rankings}, nil
	}
}

// -- Sessions ---------------------------------------------------------------------------------------------------------

// MakeSessionEndpoints builds the endpoints needed to communicate with the session service
func MakeSessionEndpoints(s SessionService) SessionEndpoints {
	return SessionEndpoints{
		Login:  makeLoginEndpoint(s),
		Logout: makeLogoutEndpoint(s),
		WhoAmI: makeWhoAmIEndpoint(s),
	}
}

func makeLoginEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		se, ok := request.(loginRequest)
		if !ok {
			return nil, fmt.Errorf("illegal login request")
		}
		si, err := s.Login(ctx, se.Email, se.Pass)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeLogoutEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal session token")
		}
		if err := s.Logout(ctx, id); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeWhoAmIEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal session token")
		}
		si, err := s.WhoAmI(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}
