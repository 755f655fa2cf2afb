package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"incall-control/internal/audit"
	"incall-control/internal/auth"

	"github.com/gin-gonic/gin"
)

// CommandService is the dispatch boundary the HTTP layer forwards into.
// Implemented by command.Dispatcher; the indirection keeps handlers testable
// without wiring real collaborators.
type CommandService interface {
	AnswerCall(ctx context.Context, callID int)
	RejectCall(ctx context.Context, callID int, withMessage bool, message *string)
	DisconnectCall(ctx context.Context, callID int)
	Hold(ctx context.Context, callID int, wantHold bool)
	Merge(ctx context.Context)
	AddCall(ctx context.Context)
	Swap(ctx context.Context)
	Mute(ctx context.Context, on bool)
	Speaker(ctx context.Context, on bool)
	PlayDtmfTone(ctx context.Context, digit rune, timedShortTone bool)
	StopDtmfTone(ctx context.Context)
	SetAudioMode(ctx context.Context, mode int)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, forward to the dispatcher, return 202.
//
// Command endpoints are fire-and-forget by contract: once the request parses,
// the response is always 202 regardless of what happens past the boundary.
// The UI observes actual outcomes on the call-state channel, never here.

type Handlers struct {
	Commands CommandService
	Auth     *auth.Manager
	Audit    audit.Reader
}

func (h Handlers) accepted(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h Handlers) callID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("call_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id must be an integer"})
		return 0, false
	}
	return id, true
}

// --- call commands ---

func (h Handlers) AnswerCall(c *gin.Context) {
	id, ok := h.callID(c)
	if !ok {
		return
	}
	h.Commands.AnswerCall(c.Request.Context(), id)
	h.accepted(c)
}

type rejectCallRequest struct {
	RejectWithMessage bool    `json:"reject_with_message"`
	Message           *string `json:"message"`
}

func (h Handlers) RejectCall(c *gin.Context) {
	id, ok := h.callID(c)
	if !ok {
		return
	}
	var req rejectCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.Commands.RejectCall(c.Request.Context(), id, req.RejectWithMessage, req.Message)
	h.accepted(c)
}

func (h Handlers) DisconnectCall(c *gin.Context) {
	id, ok := h.callID(c)
	if !ok {
		return
	}
	h.Commands.DisconnectCall(c.Request.Context(), id)
	h.accepted(c)
}

type holdRequest struct {
	Hold *bool `json:"hold"`
}

func (h Handlers) Hold(c *gin.Context) {
	id, ok := h.callID(c)
	if !ok {
		return
	}
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Hold == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "hold is required"})
		return
	}
	h.Commands.Hold(c.Request.Context(), id, *req.Hold)
	h.accepted(c)
}

func (h Handlers) Merge(c *gin.Context) {
	h.Commands.Merge(c.Request.Context())
	h.accepted(c)
}

func (h Handlers) AddCall(c *gin.Context) {
	h.Commands.AddCall(c.Request.Context())
	h.accepted(c)
}

func (h Handlers) Swap(c *gin.Context) {
	h.Commands.Swap(c.Request.Context())
	h.accepted(c)
}

// --- audio ---

type toggleRequest struct {
	On *bool `json:"on"`
}

func (h Handlers) Mute(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.On == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "on is required"})
		return
	}
	h.Commands.Mute(c.Request.Context(), *req.On)
	h.accepted(c)
}

func (h Handlers) Speaker(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.On == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "on is required"})
		return
	}
	h.Commands.Speaker(c.Request.Context(), *req.On)
	h.accepted(c)
}

type audioModeRequest struct {
	Mode *int `json:"mode"`
}

func (h Handlers) SetAudioMode(c *gin.Context) {
	var req audioModeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Mode == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}
	h.Commands.SetAudioMode(c.Request.Context(), *req.Mode)
	h.accepted(c)
}

// --- dtmf ---

type playDtmfRequest struct {
	Digit          string `json:"digit"`
	TimedShortTone bool   `json:"timed_short_tone"`
}

func (h Handlers) PlayDtmfTone(c *gin.Context) {
	var req playDtmfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	digits := []rune(req.Digit)
	if len(digits) != 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "digit must be a single character"})
		return
	}
	h.Commands.PlayDtmfTone(c.Request.Context(), digits[0], req.TimedShortTone)
	h.accepted(c)
}

func (h Handlers) StopDtmfTone(c *gin.Context) {
	h.Commands.StopDtmfTone(c.Request.Context())
	h.accepted(c)
}

// --- auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Role     string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.DeviceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, device_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.DeviceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- audit ---

// ListAuditEvents returns recent command events for the caller's device.
// Diagnostics-only; the in-call UI never sees this.
func (h Handlers) ListAuditEvents(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	deviceID, err := auth.DeviceID(c.Request.Context())
	if err != nil || deviceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "device_id required"})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	evs, err := h.Audit.Recent(c.Request.Context(), deviceID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}
