// Package engine provides the REST API surface of the reward engine. It
// translates engine rejections into HTTP responses; every rejection reason
// maps to exactly one user-facing message and no internal store error text
// ever leaks.
package engine

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/geo"
	"github.com/panscim/desideri-club-engine/internal/models"
	"github.com/panscim/desideri-club-engine/internal/service/missions"
	"github.com/panscim/desideri-club-engine/internal/service/quests"
	"github.com/panscim/desideri-club-engine/internal/service/redemption"
	"github.com/panscim/desideri-club-engine/internal/service/unlock"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

// UnlockService interface for unlock operations.
type UnlockService interface {
	UnlockNearby(ctx context.Context, userID uint, slug string, coord *geo.Coord) (*models.UnlockRecord, error)
}

// RedemptionService interface for redemption operations.
type RedemptionService interface {
	Redeem(ctx context.Context, userID uint, code string, now time.Time) (*redemption.Receipt, error)
}

// MissionService interface for mission operations.
type MissionService interface {
	Claim(ctx context.Context, userID uint, missionCode string, now time.Time) (*missions.ClaimResult, error)
	Submit(ctx context.Context, userID uint, missionCode, note string, now time.Time) (*models.MissionSubmission, error)
	Review(ctx context.Context, submissionID uint, approve bool) (*models.MissionSubmission, error)
	History(ctx context.Context, userID uint) ([]models.MissionSubmission, error)
	Pending(ctx context.Context) ([]models.MissionSubmission, error)
	EvaluateStreak(ctx context.Context, userID uint, streakCode string, now time.Time) (*missions.ClaimResult, error)
}

// QuestService interface for quest operations.
type QuestService interface {
	GetProgress(ctx context.Context, userID uint, questSlug string) (*quests.Progress, error)
	CompleteStep(ctx context.Context, userID, stepID uint) (*models.QuestStepCompletion, error)
}

// UserService interface for balance reads.
type UserService interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// TransactionService interface for redemption history reads.
type TransactionService interface {
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.TransactionLog, error)
}

// CollectibleService interface for catalog reads.
type CollectibleService interface {
	ListActive(ctx context.Context) ([]models.Collectible, error)
}

// HealthChecker reports store health.
type HealthChecker interface {
	Health() error
}

// Handler handles engine API requests.
type Handler struct {
	unlocks      UnlockService
	redemptions  RedemptionService
	missions     MissionService
	quests       QuestService
	users        UserService
	transactions TransactionService
	collectibles CollectibleService
	health       HealthChecker
	log          *logger.Logger
}

// NewHandler creates a new engine handler.
func NewHandler(unlocks UnlockService, redemptions RedemptionService, missionSvc MissionService, questSvc QuestService, users UserService, transactions TransactionService, collectibles CollectibleService, health HealthChecker, log *logger.Logger) *Handler {
	return &Handler{
		unlocks:      unlocks,
		redemptions:  redemptions,
		missions:     missionSvc,
		quests:       questSvc,
		users:        users,
		transactions: transactions,
		collectibles: collectibles,
		health:       health,
		log:          log,
	}
}

// RegisterRoutes mounts the engine routes on a router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Healthz)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/unlocks", h.CreateUnlock)
		v1.POST("/redemptions", h.CreateRedemption)
		v1.POST("/missions/:code/claims", h.ClaimMission)
		v1.POST("/missions/:code/submissions", h.SubmitMission)
		v1.POST("/missions/:code/streak", h.EvaluateStreak)
		v1.GET("/submissions/pending", h.ListPendingSubmissions)
		v1.POST("/submissions/:id/review", h.ReviewSubmission)
		v1.POST("/quests/steps/:id/completions", h.CompleteQuestStep)
		v1.GET("/quests/:slug/progress", h.GetQuestProgress)
		v1.GET("/collectibles", h.ListCollectibles)
		v1.GET("/users/:id/balance", h.GetBalance)
		v1.GET("/users/:id/submissions", h.GetSubmissionHistory)
		v1.GET("/users/:id/transactions", h.GetTransactionHistory)
	}
}

type unlockRequest struct {
	UserID      uint     `json:"user_id" binding:"required"`
	Collectible string   `json:"collectible" binding:"required"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// CreateUnlock handles the passive discovery flow.
// POST /api/v1/unlocks.
func (h *Handler) CreateUnlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var coord *geo.Coord
	if req.Latitude != nil && req.Longitude != nil {
		coord = &geo.Coord{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	record, err := h.unlocks.UnlockNearby(c.Request.Context(), req.UserID, req.Collectible, coord)
	if err != nil {
		switch {
		case errors.Is(err, unlock.ErrCollectibleNotFound):
			h.errorResponse(c, http.StatusNotFound, "Collectible not found")
		case errors.Is(err, unlock.ErrNotLocationBound):
			h.errorResponse(c, http.StatusUnprocessableEntity, "This collectible cannot be unlocked by proximity")
		case errors.Is(err, unlock.ErrOutOfRange):
			h.errorResponse(c, http.StatusUnprocessableEntity, "You are too far away to unlock this")
		case errors.Is(err, unlock.ErrAlreadyUnlocked):
			c.JSON(http.StatusOK, gin.H{"status": "already_unlocked"})
		default:
			h.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "unlocked", "record": record})
}

type redemptionRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// CreateRedemption handles code redemption.
// POST /api/v1/redemptions.
func (h *Handler) CreateRedemption(c *gin.Context) {
	var req redemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := h.redemptions.Redeem(c.Request.Context(), req.UserID, req.Code, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, redemption.ErrCodeNotFound):
			h.errorResponse(c, http.StatusNotFound, "Code not recognized")
		case errors.Is(err, redemption.ErrMerchantInactive):
			h.errorResponse(c, http.StatusUnprocessableEntity, "This partner is not active")
		case errors.Is(err, redemption.ErrInsufficientBalance):
			h.errorResponse(c, http.StatusConflict, "This partner has no points left")
		case errors.Is(err, redemption.ErrCooldownActive):
			h.errorResponse(c, http.StatusConflict, "You already redeemed here recently")
		case errors.Is(err, redemption.ErrUserNotFound):
			h.errorResponse(c, http.StatusNotFound, "User not found")
		default:
			h.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

type missionRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Note   string `json:"note"`
}

// ClaimMission handles button-style mission claims.
// POST /api/v1/missions/:code/claims.
func (h *Handler) ClaimMission(c *gin.Context) {
	var req missionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.missions.Claim(c.Request.Context(), req.UserID, c.Param("code"), time.Now())
	if err != nil {
		h.missionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// SubmitMission files a moderated mission submission.
// POST /api/v1/missions/:code/submissions.
func (h *Handler) SubmitMission(c *gin.Context) {
	var req missionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	submission, err := h.missions.Submit(c.Request.Context(), req.UserID, c.Param("code"), req.Note, time.Now())
	if err != nil {
		h.missionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// EvaluateStreak checks and claims an aggregate streak mission.
// POST /api/v1/missions/:code/streak.
func (h *Handler) EvaluateStreak(c *gin.Context) {
	var req missionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.missions.EvaluateStreak(c.Request.Context(), req.UserID, c.Param("code"), time.Now())
	if err != nil {
		h.missionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) missionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, missions.ErrMissionNotFound):
		h.errorResponse(c, http.StatusNotFound, "Mission not found")
	case errors.Is(err, missions.ErrWrongVerificationType):
		h.errorResponse(c, http.StatusUnprocessableEntity, "This mission cannot be claimed this way")
	case errors.Is(err, missions.ErrAlreadyClaimedPeriod):
		h.errorResponse(c, http.StatusConflict, "Already claimed for this period")
	case errors.Is(err, missions.ErrAlreadyClaimedOnce):
		h.errorResponse(c, http.StatusConflict, "Already claimed")
	case errors.Is(err, missions.ErrStreakNotReached):
		h.errorResponse(c, http.StatusUnprocessableEntity, "Streak goal not reached yet")
	default:
		h.internalError(c, err)
	}
}

type reviewRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ReviewSubmission finalizes a pending moderated submission.
// POST /api/v1/submissions/:id/review.
func (h *Handler) ReviewSubmission(c *gin.Context) {
	submissionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid submission id")
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	submission, err := h.missions.Review(c.Request.Context(), uint(submissionID), *req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, missions.ErrMissionNotFound):
			h.errorResponse(c, http.StatusNotFound, "Submission not found")
		case errors.Is(err, missions.ErrSubmissionNotPending):
			h.errorResponse(c, http.StatusConflict, "Submission already reviewed")
		default:
			h.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListPendingSubmissions returns the review queue, oldest first.
// GET /api/v1/submissions/pending.
func (h *Handler) ListPendingSubmissions(c *gin.Context) {
	submissions, err := h.missions.Pending(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

type completeStepRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// CompleteQuestStep records a quest step completion.
// POST /api/v1/quests/steps/:id/completions.
func (h *Handler) CompleteQuestStep(c *gin.Context) {
	stepID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid step id")
		return
	}

	var req completeStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	completion, err := h.quests.CompleteStep(c.Request.Context(), req.UserID, uint(stepID))
	if err != nil {
		switch {
		case errors.Is(err, quests.ErrStepNotFound):
			h.errorResponse(c, http.StatusNotFound, "Quest step not found")
		case errors.Is(err, quests.ErrAlreadyCompleted):
			h.errorResponse(c, http.StatusConflict, "Step already completed")
		default:
			h.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, completion)
}

// GetQuestProgress returns derived step statuses for a user.
// GET /api/v1/quests/:slug/progress?user_id=.
func (h *Handler) GetQuestProgress(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user_id")
		return
	}

	progress, err := h.quests.GetProgress(c.Request.Context(), uint(userID), c.Param("slug"))
	if err != nil {
		if errors.Is(err, quests.ErrQuestNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Quest not found")
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetBalance returns a user's point balance.
// GET /api/v1/users/:id/balance.
func (h *Handler) GetBalance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    user.ID,
		"balance":    user.Balance,
		"multiplier": user.ActiveMultiplier(time.Now()),
	})
}

// GetSubmissionHistory returns a user's mission submissions, newest first.
// GET /api/v1/users/:id/submissions.
func (h *Handler) GetSubmissionHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	submissions, err := h.missions.History(c.Request.Context(), uint(id))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// GetTransactionHistory returns a user's redemption receipts, newest first.
// GET /api/v1/users/:id/transactions?limit=.
func (h *Handler) GetTransactionHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.transactions.ListByUser(c.Request.Context(), uint(id), limit)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// ListCollectibles returns the active collectible catalog.
// GET /api/v1/collectibles.
func (h *Handler) ListCollectibles(c *gin.Context) {
	collectibles, err := h.collectibles.ListActive(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collectibles": collectibles})
}

// Healthz reports liveness of the store.
// GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.health.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	h.errorResponse(c, http.StatusInternalServerError, "Internal error")
}
