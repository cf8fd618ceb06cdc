package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/service/reschedule"
)

type RescheduleHandler struct {
	service reschedule.RescheduleUseCase
}

type rescheduleRequest struct {
	NewStart time.Time `json:"new_start" binding:"required"`
	Cascade  bool      `json:"cascade"`
}

type windowResponse struct {
	BookingID int64     `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type shiftResponse struct {
	BookingID     int64     `json:"booking_id"`
	OriginalStart time.Time `json:"original_start"`
	OriginalEnd   time.Time `json:"original_end"`
	NewStart      time.Time `json:"new_start"`
	NewEnd        time.Time `json:"new_end"`
}

type conflictResponse struct {
	BookingID     int64  `json:"booking_id"`
	WithBookingID int64  `json:"with_booking_id,omitempty"`
	Reason        string `json:"reason"`
	Message       string `json:"message"`
}

type planResponse struct {
	BookingID          int64              `json:"booking_id"`
	ResourceID         int64              `json:"resource_id"`
	Cascade            bool               `json:"cascade"`
	State              string             `json:"state"`
	Valid              bool               `json:"valid"`
	DeltaMinutes       float64            `json:"delta_minutes"`
	Target             shiftResponse      `json:"target"`
	Dependents         []shiftResponse    `json:"dependents"`
	AffectedBookingIDs []int64            `json:"affected_booking_ids"`
	Conflicts          []conflictResponse `json:"conflicts"`
	Alternatives       []windowResponse   `json:"alternatives"`
}

type commitResponse struct {
	Success            bool               `json:"success"`
	AffectedBookingIDs []int64            `json:"affected_booking_ids"`
	Conflicts          []conflictResponse `json:"conflicts"`
	Plan               *planResponse      `json:"plan,omitempty"`
}

func NewRescheduleHandler(service reschedule.RescheduleUseCase) *RescheduleHandler {
	return &RescheduleHandler{service: service}
}

func (h *RescheduleHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/reschedule/preview", h.preview)
	router.POST("/:id/reschedule/commit", h.commit)
}

func (h *RescheduleHandler) preview(c *gin.Context) {
	req, ok := bindPlanRequest(c)
	if !ok {
		return
	}

	plan, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPlanResponse(plan))
}

func (h *RescheduleHandler) commit(c *gin.Context) {
	req, ok := bindPlanRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Commit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := commitResponse{
		Success:            result.Success,
		AffectedBookingIDs: result.AffectedBookingIDs,
		Conflicts:          toConflictResponses(result.Conflicts),
	}
	if result.Plan != nil {
		plan := toPlanResponse(result.Plan)
		resp.Plan = &plan
	}
	if resp.AffectedBookingIDs == nil {
		resp.AffectedBookingIDs = []int64{}
	}
	c.JSON(http.StatusOK, resp)
}

func bindPlanRequest(c *gin.Context) (domain.PlanRequest, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "booking id must be a positive integer")
		return domain.PlanRequest{}, false
	}

	var body rescheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return domain.PlanRequest{}, false
	}
	if body.NewStart.IsZero() {
		badRequest(c, "new_start is required")
		return domain.PlanRequest{}, false
	}

	return domain.PlanRequest{BookingID: id, NewStart: body.NewStart, Cascade: body.Cascade}, true
}

func toPlanResponse(p *domain.ReschedulePlan) planResponse {
	resp := planResponse{
		BookingID:    p.Booking.ID,
		ResourceID:   p.Booking.ResourceID,
		Cascade:      p.Request.Cascade,
		State:        string(p.State),
		Valid:        p.Valid,
		DeltaMinutes: p.Delta.Minutes(),
		Target: shiftResponse{
			BookingID:     p.Booking.ID,
			OriginalStart: p.Booking.Start,
			OriginalEnd:   p.Booking.End,
			NewStart:      p.NewStart,
			NewEnd:        p.NewEnd,
		},
		Dependents:         make([]shiftResponse, 0, len(p.Dependents)),
		AffectedBookingIDs: p.AffectedBookingIDs(),
		Conflicts:          toConflictResponses(p.Conflicts),
		Alternatives:       make([]windowResponse, 0, len(p.Alternatives)),
	}
	for _, d := range p.Dependents {
		resp.Dependents = append(resp.Dependents, shiftResponse{
			BookingID:     d.BookingID,
			OriginalStart: d.OriginalStart,
			OriginalEnd:   d.OriginalEnd,
			NewStart:      d.NewStart,
			NewEnd:        d.NewEnd,
		})
	}
	for _, w := range p.Alternatives {
		resp.Alternatives = append(resp.Alternatives, windowResponse{BookingID: w.BookingID, Start: w.Start, End: w.End})
	}
	return resp
}

func toConflictResponses(conflicts []domain.Conflict) []conflictResponse {
	out := make([]conflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictResponse{
			BookingID:     c.BookingID,
			WithBookingID: c.WithBookingID,
			Reason:        string(c.Reason),
			Message:       c.Message,
		})
	}
	return out
}
