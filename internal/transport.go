package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/derWhity/turntable/internal/ctxhelper"
	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/models"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/kardianos/osext"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	apiBasePath = "/api"
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

// Defines a response that overrides the default 200 status
type statusCoder interface {
	StatusCode() int
}

type errorResponse struct {
	basicResponse
	// The error code
	Error   string      `json:"error"`
	Message string      `json:"errorMessage"`
	Details interface{} `json:"errorDetails,omitempty"`
}

// MakeHTTPHandler creates the main HTTP handler for the Turntable service
func MakeHTTPHandler(
	es EventService,
	rs RequestService,
	bs BlocklistService,
	as AnalyticsService,
	sServ SessionService,
	ws http.Handler,
	logger *logrus.Entry,
) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
		httptransport.ServerBefore(makeSessionDecoder(sServ)),
	}

	// -- Event Service --------------------------------
	{
		evEp := MakeEventEndpoints(es)

		// Create
		r.Methods(http.MethodPost).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			evEp.Create,
			decodeEventDraft,
			encodeJSONResponse,
			options...,
		))

		// List (own events)
		r.Methods(http.MethodGet).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			evEp.List,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Get (public, by slug)
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{slug}").Handler(httptransport.NewServer(
			evEp.Get,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))

		// Patch
		r.Methods(http.MethodPatch).Path(apiBasePath + "/events/{slug}").Handler(httptransport.NewServer(
			evEp.Patch,
			decodeEventPatch,
			encodeJSONResponse,
			options...,
		))

		// End
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{slug}/end").Handler(httptransport.NewServer(
			evEp.End,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path(apiBasePath + "/events/{slug}").Handler(httptransport.NewServer(
			evEp.Delete,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Request Service ------------------------------
	{
		rqEp := MakeRequestEndpoints(rs)

		// Submit (public)
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{slug}/requests").Handler(httptransport.NewServer(
			rqEp.Submit,
			decodeSubmission,
			encodeJSONResponse,
			options...,
		))

		// Upvote (public)
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{slug}/requests/{id}/upvote").Handler(httptransport.NewServer(
			rqEp.Upvote,
			decodeUpvote,
			encodeJSONResponse,
			options...,
		))

		// Queue (public while the event has a visible queue)
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{slug}/queue").Handler(httptransport.NewServer(
			rqEp.Queue,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))

		// Full request list for the DJ
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{slug}/requests").Handler(httptransport.NewServer(
			rqEp.List,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))

		// SetStatus
		r.Methods(http.MethodPatch).Path(apiBasePath + "/events/{slug}/requests/{id}").Handler(httptransport.NewServer(
			rqEp.SetStatus,
			decodeSetStatus,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Block list Service ---------------------------
	{
		blEp := MakeBlocklistEndpoints(bs)

		// Create
		r.Methods(http.MethodPost).Path(apiBasePath + "/blocklist").Handler(httptransport.NewServer(
			blEp.Create,
			decodeBlockPattern,
			encodeJSONResponse,
			options...,
		))

		// List
		r.Methods(http.MethodGet).Path(apiBasePath + "/blocklist").Handler(httptransport.NewServer(
			blEp.List,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path(apiBasePath + "/blocklist/{id}").Handler(httptransport.NewServer(
			blEp.Delete,
			decodeStringIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Analytics Service ----------------------------
	{
		anEp := MakeAnalyticsEndpoints(as)

		// Post-event report
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{slug}/analytics").Handler(httptransport.NewServer(
			anEp.ForEvent,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))

		// Per-event song rankings
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{slug}/analytics/rankings").Handler(httptransport.NewServer(
			anEp.SongRankings,
			decodeEventSlug,
			encodeJSONResponse,
			options...,
		))

		// Hot songs across all events
		r.Methods(http.MethodGet).Path(apiBasePath + "/analytics/hot-songs").Handler(httptransport.NewServer(
			anEp.HotSongs,
			decodeHotSongsRequest,
			encodeJSONResponse,
			options...,
		))

		// All-time rankings
		r.Methods(http.MethodGet).Path(apiBasePath + "/analytics/all-time").Handler(httptransport.NewServer(
			anEp.AllTimeRankings,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Session Service ------------------------------
	{
		sEp := MakeSessionEndpoints(sServ)

		// Login
		r.Methods(http.MethodPost).Path(apiBasePath + "/login").Handler(httptransport.NewServer(
			sEp.Login,
			decodeLoginRequest,
			encodeJSONResponse,
			options...,
		))

		// Logout
		r.Methods(http.MethodPost).Path(apiBasePath + "/logout").Handler(httptransport.NewServer(
			sEp.Logout,
			decodeToken,
			encodeJSONResponse,
			options...,
		))

		// WhoAmI
		r.Methods(http.MethodGet).Path(apiBasePath + "/whoami").Handler(httptransport.NewServer(
			sEp.WhoAmI,
			decodeToken,
			encodeJSONResponse,
			options...,
		))
	}

	// Realtime updates
	r.Path("/ws").Handler(ws)

	// Simple alive answer for checking if HTTP can be reached
	r.Methods(http.MethodGet).Path("/alive").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		data := map[string]bool{"ok": true}
		json.NewEncoder(w).Encode(data)
	})

	// Plain file service for the UI serving everything from the "ui" folder right beside the application executable
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}
	uiDir := filepath.Join(execDir, "ui")
	r.Methods(http.MethodGet).PathPrefix("/").Handler(http.FileServer(http.Dir(uiDir)))

	return r
}

// decodeNilRequest just does nothing with the request. It is used for endpoints that don't need anything to be passed
func decodeNilRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	return nil, nil
}

// decodeEventSlug reads the event slug from the path
func decodeEventSlug(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	slug, ok := vars["slug"]
	if !ok || slug == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing event slug")
	}
	return eventSlugRequest{Slug: slug}, nil
}

// decodeStringIDFromPath reads the "id" path variable as-is
func decodeStringIDFromPath(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	id, ok := vars["id"]
	if !ok || id == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "No ID provided")
	}
	return id, nil
}

// decodeEventDraft reads a new event from the request's JSON body
func decodeEventDraft(_ context.Context, r *http.Request) (interface{}, error) {
	var draft EventDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return draft, nil
}

// decodeEventPatch reads a partial event update from the JSON body and the slug from the path
func decodeEventPatch(ctx context.Context, r *http.Request) (interface{}, error) {
	slugReq, err := decodeEventSlug(ctx, r)
	if err != nil {
		return nil, err
	}
	var patch models.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return eventPatchRequest{
		Slug:  slugReq.(eventSlugRequest).Slug,
		Patch: patch,
	}, nil
}

// decodeSubmission reads an attendee submission from the JSON body and resolves the client identity
// from the request headers
func decodeSubmission(ctx context.Context, r *http.Request) (interface{}, error) {
	slugReq, err := decodeEventSlug(ctx, r)
	if err != nil {
		return nil, err
	}
	var sub SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return submitSongRequest{
		Slug:     slugReq.(eventSlugRequest).Slug,
		Sub:      sub,
		Identity: ResolveIdentity(r.Header, r.RemoteAddr),
	}, nil
}

// decodeUpvote reads the event slug and request ID from the path and resolves the client identity
func decodeUpvote(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	slug, ok := vars["slug"]
	if !ok || slug == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing event slug")
	}
	id, ok := vars["id"]
	if !ok || id == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing request ID")
	}
	return upvoteSongRequest{
		Slug:      slug,
		RequestID: id,
		Identity:  ResolveIdentity(r.Header, r.RemoteAddr),
	}, nil
}

// decodeSetStatus reads the target status from the JSON body and the IDs from the path
func decodeSetStatus(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	slug, ok := vars["slug"]
	if !ok || slug == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing event slug")
	}
	id, ok := vars["id"]
	if !ok || id == "" {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing request ID")
	}
	data := map[string]string{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	status, ok := data["status"]
	if !ok {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing status field")
	}
	return setStatusRequest{
		Slug:      slug,
		RequestID: id,
		Status:    status,
	}, nil
}

// decodeBlockPattern reads a block pattern from the provided JSON body
func decodeBlockPattern(_ context.Context, r *http.Request) (interface{}, error) {
	data := map[string]string{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	pattern, ok := data["pattern"]
	if !ok {
		return nil, MakeError(http.StatusBadRequest, ErrCodeRequiredFieldMissing, "Missing pattern field")
	}
	return pattern, nil
}

// decodeHotSongsRequest reads the optional minUpvotes threshold from the query variables
func decodeHotSongsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	req := hotSongsRequest{}
	if i, err := strconv.ParseUint(r.URL.Query().Get("minUpvotes"), 10, 32); err == nil {
		req.MinUpvotes = uint(i)
	}
	return req, nil
}

// decodeLoginRequest decodes a login request from the JSON body
func decodeLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req loginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return req, nil
}

// decodeToken gets the token from the call's context
func decodeToken(ctx context.Context, r *http.Request) (request interface{}, err error) {
	session := ctxhelper.Session(ctx)
	if session == nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeNotLoggedIn,
			"You need an active session for this operation",
		)
	}
	return session.ID, nil
}

// Encodes a typical JSON response
func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if sc, ok := response.(statusCoder); ok {
		w.WriteHeader(sc.StatusCode())
	}
	return json.NewEncoder(w).Encode(response)
}

// Builds an error response based on the incoming error
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if st, ok := err.(httpStatuser); ok {
		w.WriteHeader(st.Status())
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	ret := errorResponse{
		basicResponse: basicResponse{false, nil},
		Message:       err.Error(),
		Error:         ErrCodeUnknown,
	}
	if cd, ok := err.(errorCoder); ok {
		ret.Error = cd.ErrorCode()
	}
	if db, ok := err.(dataBearer); ok {
		if data := db.Data(); data != nil {
			if err, ok := data.(error); ok {
				ret.Details = err.Error()
			} else {
				ret.Details = data
			}
		}
	}
	json.NewEncoder(w).Encode(&ret)
}

// makeSessionDecoder returns a function that is used in every HTTP call to decode the session used, if a session
// token is sent by the client
func makeSessionDecoder(s SessionService) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		token := strings.TrimSpace(r.Header.Get("token"))
		logger := ctxhelper.Logger(ctx)
		if token != "" {
			// Try to load the session's data
			sess, dj, err := s.GetContents(ctx, token, true)
			if err != nil {
				logger.WithError(err).WithField(log.FldSession, token).Error("Failed to retrieve session information")
				return ctx
			}
			if sess == nil || dj == nil {
				// Nobody logged in
				return ctx
			}
			ctx = context.WithValue(ctx, ctxhelper.KeySession, *sess)
			ctx = context.WithValue(ctx, ctxhelper.KeyDJ, *dj)
			ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger.WithFields(logrus.Fields{
				log.FldSession: sess.ID,
				log.FldDJ:      dj.ID,
			}))
		}
		return ctx
	}
}

func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		return context.WithValue(ctx, ctxhelper.KeyLogger, logger)
	}
}
