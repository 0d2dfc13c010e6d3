package internal

import (
	"net/http"

	"github.com/derWhity/turntable/internal/ctxhelper"
	"github.com/derWhity/turntable/internal/models"
	validator "github.com/go-playground/validator"
	"golang.org/x/net/context"
)

// validate is the shared validator instance used for incoming request payloads
var validate = validator.New()

// Broadcaster pushes realtime notifications to the clients subscribed to an event.
// It decouples the service layer from the websocket hub
type Broadcaster interface {
	// BroadcastQueueUpdate notifies subscribers that the queue contents of an event have changed
	BroadcastQueueUpdate(eventSlug string)
	// BroadcastNewRequest notifies subscribers about a new or merged song request
	BroadcastNewRequest(eventSlug string, req *models.SongRequest)
	// BroadcastVisibilityToggle notifies subscribers that the DJ toggled the queue visibility
	BroadcastVisibilityToggle(eventSlug string, visible bool)
	// BroadcastRequestPlayed notifies subscribers that a request left the queue
	BroadcastRequestPlayed(eventSlug string, req *models.SongRequest)
}

// loggedInDJ returns the DJ attached to the current context by the auth middleware
func loggedInDJ(ctx context.Context) (*models.DJ, error) {
	dj := ctxhelper.DJ(ctx)
	if dj == nil {
		return nil, MakeError(http.StatusUnauthorized, ErrCodeNotLoggedIn, "You need to be logged in to do this")
	}
	return dj, nil
}
