package handler

import (
	"net/http"
	"time"

	applicationledger "github.com/erp/ledgercore/internal/application/ledger"
	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JournalHandler exposes journal entry posting and lookup endpoints
type JournalHandler struct {
	BaseHandler
	service *applicationledger.PostingService
}

// NewJournalHandler creates a journal entry handler
func NewJournalHandler(service *applicationledger.PostingService) *JournalHandler {
	return &JournalHandler{service: service}
}

// RegisterRoutes registers journal entry routes on the given group
func (h *JournalHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/journal-entries", h.Post)
	r.GET("/journal-entries", h.List)
	r.GET("/journal-entries/:id", h.Get)
	r.POST("/journal-entries/:id/reverse", h.Reverse)
}

// Post validates and records a balanced journal entry
func (h *JournalHandler) Post(c *gin.Context) {
	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entryDate, err := time.Parse(dto.DateFormat, req.EntryDate)
	if err != nil {
		h.BadRequest(c, "entry_date must be in YYYY-MM-DD format")
		return
	}

	tenant, ok := tenancy.FromContext(c.Request.Context())
	if !ok || !tenant.IsSet() {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Tenant identity is required")
		return
	}

	branchID := tenant.BranchID()
	if req.BranchID != "" {
		id, err := uuid.Parse(req.BranchID)
		if err != nil {
			h.BadRequest(c, "branch_id must be a valid UUID")
			return
		}
		branchID = &id
	}

	entry, err := ledger.NewJournalEntry(tenant.CompanyID(), branchID, entryDate, req.Memo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			h.BadRequest(c, "id must be a valid UUID")
			return
		}
		entry.ID = id
	}

	for _, line := range req.Lines {
		accountID, err := uuid.Parse(line.AccountID)
		if err != nil {
			h.BadRequest(c, "account_id must be a valid UUID")
			return
		}
		if err := entry.AddLine(accountID, ledger.LineDirection(line.Direction), line.Amount, line.Memo); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	posted, err := h.service.ValidateAndPost(c.Request.Context(), entry)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToJournalEntryResponse(posted))
}

// Reverse posts a reversing entry for a posted journal entry
func (h *JournalHandler) Reverse(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entryDate, err := time.Parse(dto.DateFormat, req.EntryDate)
	if err != nil {
		h.BadRequest(c, "entry_date must be in YYYY-MM-DD format")
		return
	}

	reversal, err := h.service.Reverse(c.Request.Context(), uuid.MustParse(idReq.ID), entryDate, req.Memo)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToJournalEntryResponse(reversal))
}

// Get returns a journal entry with its lines
func (h *JournalHandler) Get(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), uuid.MustParse(idReq.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToJournalEntryResponse(entry))
}

// List returns journal entries for the current tenant
func (h *JournalHandler) List(c *gin.Context) {
	var req dto.ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := h.buildFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entries, err := h.service.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.ToJournalEntryResponses(entries),
		filter.Page, filter.Limit(), len(entries))
}

func (h *JournalHandler) buildFilter(req dto.ListEntriesRequest) (ledger.EntryFilter, error) {
	filter := ledger.EntryFilter{}
	filter.Page = req.Page
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize = req.PageSize

	if req.Status != "" {
		status := ledger.EntryStatus(req.Status)
		filter.Status = &status
	}
	if req.AccountID != "" {
		id, err := uuid.Parse(req.AccountID)
		if err != nil {
			return filter, err
		}
		filter.AccountID = &id
	}
	if req.FromDate != "" {
		from, err := time.Parse(dto.DateFormat, req.FromDate)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &from
	}
	if req.ToDate != "" {
		to, err := time.Parse(dto.DateFormat, req.ToDate)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &to
	}
	return filter, nil
}
