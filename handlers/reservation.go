package handlers

import (
	"errors"
	"net/http"
	"time"

	"rentify/models"
	"rentify/services/payment"
	"rentify/services/reservation"
	"rentify/utils"
	"rentify/workers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SessionHeader carries the browsing-session namespace. The save endpoint
// mints one when the client has none yet.
const SessionHeader = "X-Session-ID"

// completedPurgeDelay is how long a completed session stays readable for the
// confirmation page before the out-of-band sweep removes it.
const completedPurgeDelay = 1 * time.Hour

// ReservationHandler exposes the session manager to the booking steps.
type ReservationHandler struct {
	Service     reservation.ReservationSessionService
	Submission  payment.SubmissionService
	PurgeClient *asynq.Client
	Logger      *zap.Logger
}

func NewReservationHandler(svc reservation.ReservationSessionService, submission payment.SubmissionService, purgeClient *asynq.Client, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		Service:     svc,
		Submission:  submission,
		PurgeClient: purgeClient,
		Logger:      logger,
	}
}

func (h *ReservationHandler) sessionID(c *gin.Context) string {
	return c.GetHeader(SessionHeader)
}

// respondError maps the service taxonomy onto HTTP statuses.
func (h *ReservationHandler) respondError(c *gin.Context, err error) {
	var verr *reservation.ValidationError
	if errors.As(err, &verr) {
		utils.JSONError(c, http.StatusBadRequest, "validation failed", verr.Error())
		return
	}
	if errors.Is(err, reservation.ErrNoActiveSession) {
		utils.JSONError(c, http.StatusConflict, "no active reservation session", "Please restart the booking flow.")
		return
	}
	if errors.Is(err, reservation.ErrSessionExpired) {
		utils.JSONError(c, http.StatusGone, "reservation session expired", "Please restart the booking flow.")
		return
	}
	var serr *reservation.SessionError
	if errors.As(err, &serr) {
		utils.JSONError(c, http.StatusConflict, serr.Code, serr.Message)
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
}

// SaveReservation creates or resets the session for a selected vehicle.
func (h *ReservationHandler) SaveReservation(c *gin.Context) {
	var base models.ReservationBase
	if err := c.ShouldBindJSON(&base); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	ns := h.sessionID(c)
	if ns == "" {
		ns = uuid.New().String()
	}

	if err := h.Service.SaveReservationData(c.Request.Context(), ns, base); err != nil {
		h.respondError(c, err)
		return
	}

	remaining, _ := h.Service.FormattedRemaining(c.Request.Context(), ns)
	c.JSON(http.StatusOK, gin.H{
		"sessionId":     ns,
		"remainingTime": remaining,
	})
}

// UpdateExtras persists the chosen extras and advances to the driver step.
func (h *ReservationHandler) UpdateExtras(c *gin.Context) {
	var input struct {
		Extras  []models.SelectedExtra   `json:"extras"`
		Pricing *models.PricingBreakdown `json:"pricing,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Service.UpdateExtras(c.Request.Context(), h.sessionID(c), input.Extras, input.Pricing); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpdateConductor is the strict driver write.
func (h *ReservationHandler) UpdateConductor(c *gin.Context) {
	var conductor models.Conductor
	if err := c.ShouldBindJSON(&conductor); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Service.UpdateConductorData(c.Request.Context(), h.sessionID(c), conductor); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpdateConductorIntermediate persists a partial driver snapshot. It always
// answers 200 with a saved flag so typing is never interrupted.
func (h *ReservationHandler) UpdateConductorIntermediate(c *gin.Context) {
	var partial models.Conductor
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusOK, gin.H{"saved": false})
		return
	}
	saved := h.Service.UpdateConductorDataIntermediate(c.Request.Context(), h.sessionID(c), partial)
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// GetReservation returns the consolidated read model. Legacy consumers get
// the aliased shape via ?legacy=1.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	view, err := h.Service.CompleteReservationData(c.Request.Context(), h.sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view == nil {
		utils.JSONError(c, http.StatusNotFound, "no reservation in progress", "")
		return
	}
	if c.Query("legacy") == "1" {
		c.JSON(http.StatusOK, models.ToLegacyView(*view))
		return
	}
	c.JSON(http.StatusOK, view)
}

// TimerStatus reports the countdown for the session.
func (h *ReservationHandler) TimerStatus(c *gin.Context) {
	ctx := c.Request.Context()
	ns := h.sessionID(c)
	remaining, err := h.Service.Remaining(ctx, ns)
	if err != nil {
		h.respondError(c, err)
		return
	}
	formatted, err := h.Service.FormattedRemaining(ctx, ns)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":           h.Service.HasActiveReservation(ctx, ns),
		"remainingSeconds": int(remaining.Seconds()),
		"remainingTime":    formatted,
	})
}

// ExtendTimer restarts the countdown at the full window.
func (h *ReservationHandler) ExtendTimer(c *gin.Context) {
	ctx := c.Request.Context()
	ns := h.sessionID(c)
	if err := h.Service.ExtendTimer(ctx, ns); err != nil {
		h.respondError(c, err)
		return
	}
	formatted, _ := h.Service.FormattedRemaining(ctx, ns)
	c.JSON(http.StatusOK, gin.H{"remainingTime": formatted})
}

// Revalidate is wired to the client's tab-foreground event.
func (h *ReservationHandler) Revalidate(c *gin.Context) {
	ctx := c.Request.Context()
	ns := h.sessionID(c)
	if err := h.Service.Revalidate(ctx, ns); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": h.Service.HasActiveReservation(ctx, ns)})
}

// Complete submits the consolidated reservation for payment and moves the
// session to its terminal stage.
func (h *ReservationHandler) Complete(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	ctx := c.Request.Context()
	ns := h.sessionID(c)

	view, err := h.Service.CompleteReservationData(ctx, ns)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view == nil {
		utils.JSONError(c, http.StatusConflict, "no active reservation session", "Please restart the booking flow.")
		return
	}

	receipt, err := h.Submission.SubmitReservation(ctx, *view, input.Email)
	if err != nil {
		utils.JSONError(c, http.StatusBadGateway, "payment submission failed", err.Error())
		return
	}

	if err := h.Service.MarkCompleted(ctx, ns); err != nil {
		h.respondError(c, err)
		return
	}

	if err := workers.EnqueuePurge(h.PurgeClient, ns, completedPurgeDelay); err != nil {
		h.Logger.Warn("failed to enqueue completion sweep",
			zap.String("namespace", ns), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt":     receipt,
		"reservation": view,
	})
}

// Cancel purges the session. Idempotent.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	if err := h.Service.CancelAll(c.Request.Context(), h.sessionID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
