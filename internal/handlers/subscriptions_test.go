package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

type inMemorySubscriptionStore struct {
	pairs map[string]bool
	users map[string]models.OwnerSummary
}

func newInMemorySubscriptionStore() *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{
		pairs: make(map[string]bool),
		users: make(map[string]models.OwnerSummary),
	}
}

func (s *inMemorySubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, repositories.ErrConflict
	}
	key := subscriberID + "->" + channelID
	if s.pairs[key] {
		delete(s.pairs, key)
		return false, nil
	}
	s.pairs[key] = true
	return true, nil
}

func (s *inMemorySubscriptionStore) ListSubscribers(_ context.Context, channelID string) ([]models.OwnerSummary, error) {
	out := []models.OwnerSummary{}
	for key := range s.pairs {
		for id, user := range s.users {
			if key == id+"->"+channelID {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

func (s *inMemorySubscriptionStore) ListSubscribedChannels(_ context.Context, subscriberID string) ([]models.OwnerSummary, error) {
	out := []models.OwnerSummary{}
	for key := range s.pairs {
		for id, user := range s.users {
			if key == subscriberID+"->"+id {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

func toggleSubscription(t *testing.T, handler SubscriptionHandler, subscriberID, channelID string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/c/"+channelID, nil, models.User{ID: subscriberID})
	req.SetPathValue("channelId", channelID)
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusOK {
		return rec, false
	}

	var resp toggleSubscriptionResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	return rec, resp.Subscribed
}

func TestSubscriptionHandlerToggle(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: newInMemorySubscriptionStore()}

	rec, subscribed := toggleSubscription(t, handler, "user-1", "user-2")
	expectStatus(t, rec, http.StatusOK)
	if !subscribed {
		t.Fatal("expected first toggle to subscribe")
	}

	rec, subscribed = toggleSubscription(t, handler, "user-1", "user-2")
	expectStatus(t, rec, http.StatusOK)
	if subscribed {
		t.Fatal("expected second toggle to unsubscribe")
	}
}

func TestSubscriptionHandlerSelfSubscribe(t *testing.T) {
	store := newInMemorySubscriptionStore()
	handler := SubscriptionHandler{Subscriptions: store}

	rec, _ := toggleSubscription(t, handler, "user-1", "user-1")
	expectStatus(t, rec, http.StatusBadRequest)

	if len(store.pairs) != 0 {
		t.Fatal("expected no subscription to be stored")
	}
}

func TestSubscriptionHandlerListings(t *testing.T) {
	store := newInMemorySubscriptionStore()
	store.users["user-1"] = models.OwnerSummary{ID: "user-1", Username: "alice"}
	store.users["user-2"] = models.OwnerSummary{ID: "user-2", Username: "bob"}
	store.pairs["user-1->user-2"] = true

	handler := SubscriptionHandler{Subscriptions: store}

	req := authedRequest(http.MethodGet, "/api/v1/subscriptions/c/user-2", nil, models.User{ID: "user-3"})
	req.SetPathValue("channelId", "user-2")
	rec := httptest.NewRecorder()
	handler.Subscribers(rec, req)
	expectStatus(t, rec, http.StatusOK)

	var subscribers []models.OwnerSummary
	decodeData(t, decodeEnvelope(t, rec), &subscribers)
	if len(subscribers) != 1 || subscribers[0].Username != "alice" {
		t.Fatalf("expected alice as subscriber got %v", subscribers)
	}

	req = authedRequest(http.MethodGet, "/api/v1/subscriptions/u/user-1", nil, models.User{ID: "user-3"})
	req.SetPathValue("subscriberId", "user-1")
	rec = httptest.NewRecorder()
	handler.SubscribedChannels(rec, req)
	expectStatus(t, rec, http.StatusOK)

	var channels []models.OwnerSummary
	decodeData(t, decodeEnvelope(t, rec), &channels)
	if len(channels) != 1 || channels[0].Username != "bob" {
		t.Fatalf("expected bob as subscribed channel got %v", channels)
	}
}

func TestSubscriptionHandlerListingsEmpty(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: newInMemorySubscriptionStore()}

	req := authedRequest(http.MethodGet, "/api/v1/subscriptions/c/user-9", nil, models.User{ID: "user-1"})
	req.SetPathValue("channelId", "user-9")
	rec := httptest.NewRecorder()
	handler.Subscribers(rec, req)

	expectStatus(t, rec, http.StatusOK)

	var subscribers []models.OwnerSummary
	decodeData(t, decodeEnvelope(t, rec), &subscribers)
	if subscribers == nil || len(subscribers) != 0 {
		t.Fatalf("expected empty list got %v", subscribers)
	}
}
