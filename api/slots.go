package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/barberbooking/internal/domain"
	"github.com/Domenick1991/barberbooking/internal/service/availability"
)

type SlotHandler struct {
	service availability.SlotUseCase
}

type slotResponse struct {
	ResourceRef     string    `json:"resource_ref"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

type resourceResponse struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name"`
}

type earliestSlotResponse struct {
	Outcome  string            `json:"outcome"`
	Slot     *slotResponse     `json:"slot"`
	Resource *resourceResponse `json:"resource"`
}

func NewSlotHandler(service availability.SlotUseCase) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) Register(router *gin.RouterGroup) {
	router.GET("/earliest", h.earliest)
}

func (h *SlotHandler) earliest(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Query("service_id"), 10, 64)
	if err != nil {
		badRequest(c, "service_id must be an integer")
		return
	}
	resourceIDs, err := parseIDs(c.Query("resource_ids"))
	if err != nil {
		badRequest(c, "resource_ids must be a comma separated list of integers")
		return
	}

	res, err := h.service.FindEarliestSlot(c.Request.Context(), serviceID, resourceIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEarliestSlotResponse(res))
}

func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toEarliestSlotResponse(res *domain.EarliestSlotResult) earliestSlotResponse {
	out := earliestSlotResponse{Outcome: string(res.Outcome)}
	if res.Slot != nil {
		out.Slot = &slotResponse{
			ResourceRef:     res.Slot.ResourceRef,
			Start:           res.Slot.Start,
			End:             res.Slot.End(),
			DurationMinutes: int(res.Slot.Duration / time.Minute),
		}
	}
	if res.Resource != nil {
		out.Resource = &resourceResponse{
			ID:         res.Resource.ID,
			ExternalID: res.Resource.ExternalID,
			Name:       res.Resource.Name,
		}
	}
	return out
}
