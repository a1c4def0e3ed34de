package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

const maxUploadBytes = 512 << 20

// UserHandler implements registration, the session lifecycle, account
// updates, and the user-centric read models.
type UserHandler struct {
	Users    UserStore
	Channels ChannelReader
	Sessions SessionManager
	History  HistoryStore
	Media    MediaStorage
	Stager   FileStager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/users/register. The body is multipart so the
// avatar and cover image can travel with the account fields.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil {
		logger.Error("user store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "registration unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(password) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	avatarURL, err := h.uploadFormImage(r, "avatar", "avatars")
	if err != nil {
		logger.Error("avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}
	coverURL, err := h.uploadFormImage(r, "coverImage", "covers")
	if err != nil {
		logger.Error("cover image upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		Password:      string(hashed),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email already registered")
			return
		}
		logger.Error("create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondData(ctx, w, http.StatusCreated, user.Public(), "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	user, err := h.Users.FindByLogin(ctx, login)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondError(ctx, w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	pair, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, sessionResponse{User: user.Public(), Tokens: pair}, "logged in successfully")
}

// Logout handles POST /api/v1/users/logout. The stored refresh token is
// cleared so the pair already issued can no longer be refreshed.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Sessions.Revoke(ctx, userID); err != nil {
		logging.FromContext(ctx).Error("revoke session", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, nil, "logged out successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refresh token
// is read from the cookie, with the JSON body as fallback.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication unavailable")
		return
	}

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	pair, user, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenMismatch) {
			respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		logger.Error("refresh session", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, sessionResponse{User: user.Public(), Tokens: pair}, "session refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password. The old
// password must verify before the new one is accepted.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		respondError(ctx, w, http.StatusBadRequest, "old password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		logger.Error("update password", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "password changed successfully")
}

// Current handles GET /api/v1/users/current.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := h.Users.UpdateAccount(ctx, userID, req.FullName, req.Email)
	if err != nil {
		respondRepoError(ctx, w, err, "user not found", "email already in use")
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "account updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", func(userID string, url string, r *http.Request) (models.User, error) {
		return h.Users.UpdateAvatar(r.Context(), userID, url)
	})
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", func(userID string, url string, r *http.Request) (models.User, error) {
		return h.Users.UpdateCoverImage(r.Context(), userID, url)
	})
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix string, apply func(userID, url string, r *http.Request) (models.User, error)) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	url, err := h.uploadFormImage(r, field, prefix)
	if err != nil {
		logger.Error("image upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}
	if url == "" {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("%s file is required", field))
		return
	}

	user, err := apply(userID, url, r)
	if err != nil {
		respondRepoError(ctx, w, err, "user not found", "conflicting update")
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "image updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Channels.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		respondRepoError(ctx, w, err, "channel not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile fetched successfully")
}

// WatchHistory handles GET /api/v1/users/watch-history. An empty history is
// a successful empty list.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	entries, err := h.History.ListForUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list watch history", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, entries, "watch history fetched successfully")
}

// uploadFormImage stages an optional multipart image and uploads it to the
// object store, returning its public URL. A missing file yields "".
func (h UserHandler) uploadFormImage(r *http.Request, field, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	if h.Media == nil || h.Stager == nil {
		return "", errors.New("media storage not configured")
	}

	return stageAndUpload(r, h.Stager, h.Media, file, header, prefix)
}

// stageAndUpload copies the upload to local temporary storage with a
// generated filename, then streams it to the object store.
func stageAndUpload(r *http.Request, stager FileStager, media MediaStorage, file multipart.File, header *multipart.FileHeader, prefix string) (string, error) {
	path, err := stager.Stage(file, header)
	if err != nil {
		return "", err
	}
	defer stager.Discard(path)

	staged, err := openStaged(path)
	if err != nil {
		return "", err
	}
	defer staged.Close()

	key := fmt.Sprintf("%s/%s", prefix, filepath.Base(path))
	return media.Save(r.Context(), key, header.Header.Get("Content-Type"), staged)
}

func openStaged(path string) (*os.File, error) {
	return os.Open(path)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	User   models.PublicUser `json:"user"`
	Tokens models.TokenPair  `json:"tokens"`
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
