package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/peerlingo/peerlingo/internal/application"
	"github.com/peerlingo/peerlingo/pkg/response"
)

type UserHandler struct {
	Auth    *application.AuthService
	Friends *application.FriendService
	Logger  *logrus.Logger
}

func NewUserHandler(auth *application.AuthService, friends *application.FriendService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Auth: auth, Friends: friends, Logger: logger}
}

// Recommend handles GET /users: onboarded accounts the caller could befriend.
func (h *UserHandler) Recommend(c *gin.Context) {
	uid := c.GetString("userID")
	users, err := h.Friends.Recommend(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "recommended users", nil)
}

func (h *UserHandler) ListFriends(c *gin.Context) {
	uid := c.GetString("userID")
	friends, err := h.Friends.Friends(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, friends, "friends", nil)
}

func (h *UserHandler) SendFriendRequest(c *gin.Context) {
	uid := c.GetString("userID")
	fr, err := h.Friends.Send(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, fr, "friend request sent", nil)
}

func (h *UserHandler) AcceptFriendRequest(c *gin.Context) {
	uid := c.GetString("userID")
	fr, err := h.Friends.Accept(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, fr, "friend request accepted", nil)
}

func (h *UserHandler) IncomingRequests(c *gin.Context) {
	uid := c.GetString("userID")
	reqs, err := h.Friends.Incoming(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reqs, "incoming friend requests", nil)
}

func (h *UserHandler) OutgoingRequests(c *gin.Context) {
	uid := c.GetString("userID")
	reqs, err := h.Friends.Outgoing(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reqs, "outgoing friend requests", nil)
}

// Search queries the Elasticsearch profile index.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query parameter q", nil)
		return
	}
	size := 10
	if s := c.Query("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 50 {
			size = n
		}
	}
	hits, err := h.Auth.SearchProfiles(c.Request.Context(), q, size)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	contentType := fh.Header.Get("Content-Type")
	u, err := h.Auth.UploadAvatar(c.Request.Context(), uid, f, filepath.Base(fh.Filename), contentType)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatarUrl": u.AvatarURL}, "avatar updated", nil)
}
