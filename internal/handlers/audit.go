package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/errors"
	"github.com/charlesng35/userprofile/pkg/response"
)

// AuditHandler lists the audit trail of profile and account changes.
type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

type auditQuery struct {
	Page     int        `form:"page"`
	PerPage  int        `form:"per_page"`
	UserID   string     `form:"user_id"`
	Action   string     `form:"action"`
	Result   string     `form:"result"`
	Resource string     `form:"resource"`
	Since    *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Until    *time.Time `form:"until" time_format:"2006-01-02T15:04:05Z07:00"`
}

// List handles GET /api/audit. since and until take RFC 3339 timestamps.
func (h *AuditHandler) List(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, errors.NewBadRequest("invalid audit filter: "+err.Error()))
		return
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 50
	}

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{
		Page:     q.Page,
		PageSize: q.PerPage,
		Filters: services.AuditFilters{
			UserID:   q.UserID,
			Action:   q.Action,
			Result:   q.Result,
			Resource: q.Resource,
			Since:    q.Since,
			Until:    q.Until,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Paginated(c, logs, q.Page, q.PerPage, total)
}
