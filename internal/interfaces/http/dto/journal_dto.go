package dto

import (
	"time"

	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// DateFormat is the wire format for entry dates
const DateFormat = "2006-01-02"

// PostLineRequest is one debit or credit line of a posting request
type PostLineRequest struct {
	AccountID string          `json:"account_id" binding:"required,uuid"`
	Direction string          `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Memo      string          `json:"memo" binding:"max=500"`
}

// PostEntryRequest asks for a balanced journal entry to be posted.
// The entry ID may be supplied by the client for idempotent retries;
// when omitted a new one is assigned.
type PostEntryRequest struct {
	ID        string            `json:"id" binding:"omitempty,uuid"`
	BranchID  string            `json:"branch_id" binding:"omitempty,uuid"`
	EntryDate string            `json:"entry_date" binding:"required"`
	Memo      string            `json:"memo" binding:"max=500"`
	Lines     []PostLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReverseEntryRequest asks for a posted entry to be reversed
type ReverseEntryRequest struct {
	EntryDate string `json:"entry_date" binding:"required"`
	Memo      string `json:"memo" binding:"max=500"`
}

// ListEntriesRequest carries journal entry list filters
type ListEntriesRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=DRAFT POSTED REVERSED"`
	AccountID string `form:"account_id" binding:"omitempty,uuid"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
}

// JournalLineResponse is one line of a journal entry
type JournalLineResponse struct {
	LineNo    int             `json:"line_no"`
	AccountID string          `json:"account_id"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo,omitempty"`
}

// JournalEntryResponse is the API representation of a journal entry
type JournalEntryResponse struct {
	ID          string                `json:"id"`
	CompanyID   string                `json:"company_id"`
	BranchID    string                `json:"branch_id,omitempty"`
	EntryNumber int64                 `json:"entry_number"`
	EntryDate   string                `json:"entry_date"`
	Memo        string                `json:"memo,omitempty"`
	Status      string                `json:"status"`
	PostedAt    *time.Time            `json:"posted_at,omitempty"`
	ReversalOf  string                `json:"reversal_of,omitempty"`
	ReversedBy  string                `json:"reversed_by,omitempty"`
	Lines       []JournalLineResponse `json:"lines"`
}

// ToJournalEntryResponse converts a domain entry to its API representation
func ToJournalEntryResponse(entry *ledger.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:          entry.ID.String(),
		CompanyID:   entry.CompanyID.String(),
		EntryNumber: entry.EntryNumber,
		EntryDate:   entry.EntryDate.Format(DateFormat),
		Memo:        entry.Memo,
		Status:      entry.Status.String(),
		PostedAt:    entry.PostedAt,
		Lines:       make([]JournalLineResponse, 0, len(entry.Lines)),
	}
	if entry.BranchID != nil {
		resp.BranchID = entry.BranchID.String()
	}
	if entry.ReversalOf != nil {
		resp.ReversalOf = entry.ReversalOf.String()
	}
	if entry.ReversedBy != nil {
		resp.ReversedBy = entry.ReversedBy.String()
	}
	for i := range entry.Lines {
		line := &entry.Lines[i]
		resp.Lines = append(resp.Lines, JournalLineResponse{
			LineNo:    line.LineNo,
			AccountID: line.AccountID.String(),
			Direction: line.Direction.String(),
			Amount:    line.Amount,
			Memo:      line.Memo,
		})
	}
	return resp
}

// ToJournalEntryResponses converts a slice of domain entries
func ToJournalEntryResponses(entries []ledger.JournalEntry) []JournalEntryResponse {
	out := make([]JournalEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, ToJournalEntryResponse(&entries[i]))
	}
	return out
}
