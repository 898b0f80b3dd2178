package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftEntry(t *testing.T) *JournalEntry {
	t.Helper()
	entry, err := NewJournalEntry(uuid.New(), nil, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "test entry")
	require.NoError(t, err)
	return entry
}

func TestNewJournalEntry(t *testing.T) {
	t.Run("creates draft entry", func(t *testing.T) {
		companyID := uuid.New()
		branchID := uuid.New()

		entry, err := NewJournalEntry(companyID, &branchID, time.Now(), "opening balances")

		require.NoError(t, err)
		assert.Equal(t, EntryStatusDraft, entry.Status)
		assert.Equal(t, companyID, entry.CompanyID)
		require.NotNil(t, entry.BranchID)
		assert.Equal(t, branchID, *entry.BranchID)
		assert.Zero(t, entry.EntryNumber)
		assert.Empty(t, entry.Lines)
	})

	t.Run("rejects empty company", func(t *testing.T) {
		_, err := NewJournalEntry(uuid.Nil, nil, time.Now(), "")
		assert.Error(t, err)
	})

	t.Run("rejects zero entry date", func(t *testing.T) {
		_, err := NewJournalEntry(uuid.New(), nil, time.Time{}, "")
		assert.Error(t, err)
	})
}

func TestJournalEntry_AddLine(t *testing.T) {
	t.Run("appends ordered lines", func(t *testing.T) {
		entry := newDraftEntry(t)
		cash := uuid.New()
		revenue := uuid.New()

		require.NoError(t, entry.AddLine(cash, Debit, decimal.NewFromInt(100), "cash in"))
		require.NoError(t, entry.AddLine(revenue, Credit, decimal.NewFromInt(100), "sale"))

		require.Len(t, entry.Lines, 2)
		assert.Equal(t, 1, entry.Lines[0].LineNo)
		assert.Equal(t, 2, entry.Lines[1].LineNo)
		assert.Equal(t, cash, entry.Lines[0].AccountID)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		entry := newDraftEntry(t)

		assert.Error(t, entry.AddLine(uuid.New(), Debit, decimal.Zero, ""))
		assert.Error(t, entry.AddLine(uuid.New(), Debit, decimal.NewFromInt(-5), ""))
	})

	t.Run("rejects sub-minor-unit precision", func(t *testing.T) {
		entry := newDraftEntry(t)

		err := entry.AddLine(uuid.New(), Debit, decimal.RequireFromString("10.001"), "")

		assert.Error(t, err)
	})

	t.Run("accepts exact minor-unit amounts", func(t *testing.T) {
		entry := newDraftEntry(t)

		assert.NoError(t, entry.AddLine(uuid.New(), Debit, decimal.RequireFromString("10.01"), ""))
	})

	t.Run("rejects invalid direction", func(t *testing.T) {
		entry := newDraftEntry(t)

		assert.Error(t, entry.AddLine(uuid.New(), LineDirection("BOTH"), decimal.NewFromInt(1), ""))
	})

	t.Run("rejects lines on posted entries", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.MarkPosted(1))

		assert.Error(t, entry.AddLine(uuid.New(), Debit, decimal.NewFromInt(1), ""))
	})
}

func TestJournalEntry_Balance(t *testing.T) {
	t.Run("balanced entry has zero imbalance", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.AddLine(uuid.New(), Debit, decimal.NewFromInt(100), ""))
		require.NoError(t, entry.AddLine(uuid.New(), Credit, decimal.NewFromInt(100), ""))

		assert.True(t, entry.IsBalanced())
		assert.True(t, entry.Imbalance().IsZero())
		assert.True(t, entry.TotalDebits().Equal(decimal.NewFromInt(100)))
		assert.True(t, entry.TotalCredits().Equal(decimal.NewFromInt(100)))
	})

	t.Run("imbalance is debits minus credits", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.AddLine(uuid.New(), Debit, decimal.NewFromInt(100), ""))
		require.NoError(t, entry.AddLine(uuid.New(), Credit, decimal.NewFromInt(99), ""))

		assert.False(t, entry.IsBalanced())
		assert.True(t, entry.Imbalance().Equal(decimal.NewFromInt(1)))
	})

	t.Run("balance is evaluated across the whole entry", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.AddLine(uuid.New(), Debit, decimal.RequireFromString("70.50"), ""))
		require.NoError(t, entry.AddLine(uuid.New(), Debit, decimal.RequireFromString("29.50"), ""))
		require.NoError(t, entry.AddLine(uuid.New(), Credit, decimal.NewFromInt(100), ""))

		assert.True(t, entry.IsBalanced())
	})
}

func TestJournalEntry_MarkPosted(t *testing.T) {
	t.Run("assigns entry number and freezes", func(t *testing.T) {
		entry := newDraftEntry(t)

		require.NoError(t, entry.MarkPosted(42))

		assert.Equal(t, int64(42), entry.EntryNumber)
		assert.Equal(t, EntryStatusPosted, entry.Status)
		assert.NotNil(t, entry.PostedAt)
		assert.True(t, entry.IsPosted())
	})

	t.Run("rejects double posting", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.MarkPosted(1))

		assert.ErrorIs(t, entry.MarkPosted(2), ErrAlreadyPosted)
		assert.Equal(t, int64(1), entry.EntryNumber)
	})

	t.Run("rejects non-positive entry numbers", func(t *testing.T) {
		entry := newDraftEntry(t)

		assert.Error(t, entry.MarkPosted(0))
	})
}

func TestNewReversingEntry(t *testing.T) {
	t.Run("flips every line direction", func(t *testing.T) {
		original := newDraftEntry(t)
		cash := uuid.New()
		revenue := uuid.New()
		require.NoError(t, original.AddLine(cash, Debit, decimal.NewFromInt(250), "cash"))
		require.NoError(t, original.AddLine(revenue, Credit, decimal.NewFromInt(250), "sale"))
		require.NoError(t, original.MarkPosted(7))

		reversal, err := NewReversingEntry(original, time.Now(), "correction")

		require.NoError(t, err)
		require.Len(t, reversal.Lines, 2)
		assert.Equal(t, Credit, reversal.Lines[0].Direction)
		assert.Equal(t, cash, reversal.Lines[0].AccountID)
		assert.Equal(t, Debit, reversal.Lines[1].Direction)
		assert.True(t, reversal.IsBalanced())
		require.NotNil(t, reversal.ReversalOf)
		assert.Equal(t, original.ID, *reversal.ReversalOf)
		assert.Equal(t, original.CompanyID, reversal.CompanyID)
		assert.Equal(t, EntryStatusDraft, reversal.Status)
	})

	t.Run("rejects reversing a draft", func(t *testing.T) {
		original := newDraftEntry(t)

		_, err := NewReversingEntry(original, time.Now(), "")

		assert.Error(t, err)
	})
}

func TestJournalEntry_MarkReversed(t *testing.T) {
	t.Run("links original to reversing entry", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.MarkPosted(1))
		reversingID := uuid.New()

		require.NoError(t, entry.MarkReversed(reversingID))

		assert.Equal(t, EntryStatusReversed, entry.Status)
		require.NotNil(t, entry.ReversedBy)
		assert.Equal(t, reversingID, *entry.ReversedBy)
	})

	t.Run("rejects reversing twice", func(t *testing.T) {
		entry := newDraftEntry(t)
		require.NoError(t, entry.MarkPosted(1))
		require.NoError(t, entry.MarkReversed(uuid.New()))

		assert.Error(t, entry.MarkReversed(uuid.New()))
	})
}

func TestJournalLine_SignedAmount(t *testing.T) {
	line := JournalLine{Direction: Debit, Amount: decimal.NewFromInt(50)}
	assert.True(t, line.SignedAmount().Equal(decimal.NewFromInt(50)))

	line.Direction = Credit
	assert.True(t, line.SignedAmount().Equal(decimal.NewFromInt(-50)))
}

func TestJournalEntry_TenantColumns(t *testing.T) {
	assert.Equal(t, []string{"company_id", "branch_id"}, JournalEntry{}.TenantColumns())
}
