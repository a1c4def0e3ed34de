package handlers

import (
	"net/http"

	"github.com/streamtube/backend/internal/logging"
)

// SubscriptionHandler implements the subscribe toggle and the two
// subscription listings.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}. Subscribing to
// your own channel is rejected before the store is touched; the store's own
// constraint backs the same rule against racing requests.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == subscriberID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		respondRepoError(ctx, w, err, "channel not found", "cannot subscribe to your own channel")
		return
	}

	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	respondData(ctx, w, http.StatusOK, toggleSubscriptionResponse{Subscribed: subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := currentUser(ctx, w); !ok {
		return
	}

	subscribers, err := h.Subscriptions.ListSubscribers(ctx, r.PathValue("channelId"))
	if err != nil {
		logging.FromContext(ctx).Error("list subscribers", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, subscribers, "subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := currentUser(ctx, w); !ok {
		return
	}

	channels, err := h.Subscriptions.ListSubscribedChannels(ctx, r.PathValue("subscriberId"))
	if err != nil {
		logging.FromContext(ctx).Error("list subscribed channels", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}

type toggleSubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}
