package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

type inMemoryTweetStore struct {
	tweets map[string]models.Tweet
}

func newInMemoryTweetStore() *inMemoryTweetStore {
	return &inMemoryTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *inMemoryTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *inMemoryTweetStore) ListForUser(_ context.Context, userID string) ([]models.Tweet, error) {
	out := []models.Tweet{}
	for _, tweet := range s.tweets {
		if tweet.OwnerID == userID {
			out = append(out, tweet)
		}
	}
	return out, nil
}

func (s *inMemoryTweetStore) Update(_ context.Context, id, ownerID, content string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok || tweet.OwnerID != ownerID {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *inMemoryTweetStore) Delete(_ context.Context, id, ownerID string) error {
	tweet, ok := s.tweets[id]
	if !ok || tweet.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

func TestTweetHandlerCreate(t *testing.T) {
	store := newInMemoryTweetStore()
	now := time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC)
	handler := TweetHandler{Tweets: store, NowFunc: func() time.Time { return now }}

	req := authedRequest(http.MethodPost, "/api/v1/tweets",
		strings.NewReader(`{"content":"Hello world"}`), models.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	expectStatus(t, rec, http.StatusCreated)

	var created models.Tweet
	decodeData(t, decodeEnvelope(t, rec), &created)
	if created.OwnerID != "user-1" || created.Content != "Hello world" {
		t.Fatalf("unexpected tweet: %+v", created)
	}
	if _, ok := store.tweets[created.ID]; !ok {
		t.Fatal("expected tweet to be stored")
	}
}

func TestTweetHandlerCreateEmpty(t *testing.T) {
	handler := TweetHandler{Tweets: newInMemoryTweetStore()}

	req := authedRequest(http.MethodPost, "/api/v1/tweets",
		strings.NewReader(`{"content":""}`), models.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	expectStatus(t, rec, http.StatusBadRequest)
}

func TestTweetHandlerListForUser(t *testing.T) {
	store := newInMemoryTweetStore()
	store.tweets["t1"] = models.Tweet{ID: "t1", OwnerID: "user-2"}
	store.tweets["t2"] = models.Tweet{ID: "t2", OwnerID: "user-3"}

	handler := TweetHandler{Tweets: store}

	req := authedRequest(http.MethodGet, "/api/v1/tweets/user/user-2", nil, models.User{ID: "user-1"})
	req.SetPathValue("userId", "user-2")
	rec := httptest.NewRecorder()

	handler.ListForUser(rec, req)

	expectStatus(t, rec, http.StatusOK)

	var tweets []models.Tweet
	decodeData(t, decodeEnvelope(t, rec), &tweets)
	if len(tweets) != 1 || tweets[0].ID != "t1" {
		t.Fatalf("expected only user-2 tweets got %v", tweets)
	}
}

func TestTweetHandlerUpdateNotOwned(t *testing.T) {
	store := newInMemoryTweetStore()
	store.tweets["t1"] = models.Tweet{ID: "t1", OwnerID: "user-2", Content: "Original"}

	handler := TweetHandler{Tweets: store}

	req := authedRequest(http.MethodPatch, "/api/v1/tweets/t1",
		strings.NewReader(`{"content":"Edited"}`), models.User{ID: "user-1"})
	req.SetPathValue("tweetId", "t1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	expectStatus(t, rec, http.StatusNotFound)
}

func TestTweetHandlerDelete(t *testing.T) {
	store := newInMemoryTweetStore()
	store.tweets["t1"] = models.Tweet{ID: "t1", OwnerID: "user-1"}

	handler := TweetHandler{Tweets: store}

	req := authedRequest(http.MethodDelete, "/api/v1/tweets/t1", nil, models.User{ID: "user-1"})
	req.SetPathValue("tweetId", "t1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	expectStatus(t, rec, http.StatusOK)
	if _, ok := store.tweets["t1"]; ok {
		t.Fatal("expected tweet to be deleted")
	}
}
