package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/arangam-server/internal/store"
)

// presenceReader answers live presence queries. *core.Hub satisfies it.
type presenceReader interface {
	IsOnline(userID int64) bool
}

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	store store.UserStore
	hub   presenceReader
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, hub presenceReader, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// UserResponse represents a user in API responses. Credentials are never included.
type UserResponse struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	ProfilePhoto string     `json:"profilePhoto"`
	IsOnline     bool       `json:"isOnline"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// userResponse renders u. A live connection in the hub marks the user online
// even if the stored flag lags behind.
func userResponse(u *store.User, hub presenceReader) UserResponse {
	online := u.IsOnline
	if hub != nil && hub.IsOnline(u.ID) {
		online = true
	}
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		ProfilePhoto: u.ProfilePhoto,
		IsOnline:     online,
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
	}
}

// ListUsers returns every user except the caller.
// GET /api/users
func (h *UserHandlers) ListUsers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.store.ListUsersExcept(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userResponse(u, h.hub))
	}
	c.JSON(http.StatusOK, response)
}

// GetUser returns a single user.
// GET /api/users/:id
func (h *UserHandlers) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	u, err := h.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		h.log.Error().Err(err).Int64("target_id", id).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, userResponse(u, h.hub))
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// UserIDRequest names the target of a block or favourite change.
type UserIDRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// Blocked lists the users the caller has blocked.
// GET /api/users/blocked
func (h *UserHandlers) Blocked(c *gin.Context) {
	h.listLinks(c, "blocked users", h.store.ListBlockedUsers)
}

// Block adds a user to the caller's block list.
// POST /api/users/block
func (h *UserHandlers) Block(c *gin.Context) {
	h.changeLink(c, "block user", true, h.store.BlockUser, "User blocked successfully")
}

// Unblock removes a user from the caller's block list.
// POST /api/users/unblock
func (h *UserHandlers) Unblock(c *gin.Context) {
	h.changeLink(c, "unblock user", false, h.store.UnblockUser, "User unblocked successfully")
}

// Favourites lists the caller's favourite users.
// GET /api/users/favourites
func (h *UserHandlers) Favourites(c *gin.Context) {
	h.listLinks(c, "favourites", h.store.ListFavourites)
}

// AddFavourite adds a user to the caller's favourites.
// POST /api/users/favourites/add
func (h *UserHandlers) AddFavourite(c *gin.Context) {
	h.changeLink(c, "add favourite", true, h.store.AddFavourite, "Added to favourites")
}

// RemoveFavourite removes a user from the caller's favourites.
// POST /api/users/favourites/remove
func (h *UserHandlers) RemoveFavourite(c *gin.Context) {
	h.changeLink(c, "remove favourite", false, h.store.RemoveFavourite, "Removed from favourites")
}

func (h *UserHandlers) listLinks(c *gin.Context, what string, list func(context.Context, int64) ([]*store.User, error)) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := list(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msgf("failed to list %s", what)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userResponse(u, h.hub))
	}
	c.JSON(http.StatusOK, response)
}

// changeLink applies a block or favourite change. Adding requires the target
// to exist and differ from the caller; removing an absent link succeeds.
func (h *UserHandlers) changeLink(c *gin.Context, what string, adding bool, apply func(context.Context, int64, int64) error, done string) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
		return
	}

	ctx := c.Request.Context()
	if adding {
		if req.UserID == user.ID {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cannot target yourself"})
			return
		}
		if _, err := h.store.GetUserByID(ctx, req.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
				return
			}
			h.log.Error().Err(err).Int64("target_id", req.UserID).Msg("failed to load user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	}

	if err := apply(ctx, user.ID, req.UserID); err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Int64("target_id", req.UserID).Msgf("failed to %s", what)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	h.log.Debug().Int64("user_id", user.ID).Int64("target_id", req.UserID).Msg(what)
	c.JSON(http.StatusOK, gin.H{"message": done})
}
