package api

import "github.com/mmynk/fistein/internal/money"

type Expense struct {
	ID          string      `json:"id"`
	GroupID     string      `json:"group_id"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	PaidBy      string      `json:"paid_by"`
	CreatedBy   string      `json:"created_by"`
	SplitType   string      `json:"split_type"`
	Notes       string      `json:"notes,omitempty"`
	ExpenseDate int64       `json:"expense_date"`
	CreatedAt   int64       `json:"created_at"`
	Shares      []*Share    `json:"shares"`
	// MyShare is the caller's share, when the caller participates.
	MyShare *Share `json:"my_share,omitempty"`
}

type Share struct {
	ID         string         `json:"id"`
	ExpenseID  string         `json:"expense_id"`
	UserID     string         `json:"user_id"`
	Amount     money.Money    `json:"amount"`
	Percentage *money.Percent `json:"percentage,omitempty"`
	Status     string         `json:"status"`
	SettledAt  int64          `json:"settled_at,omitempty"`
}

// ShareInput carries per-member data for EXACT (Amount) and PERCENTAGE
// (Percentage) splits.
type ShareInput struct {
	UserID     string         `json:"user_id"`
	Amount     *money.Money   `json:"amount,omitempty"`
	Percentage *money.Percent `json:"percentage,omitempty"`
}

type CreateExpenseRequest struct {
	GroupID     string      `json:"group_id"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	// PaidBy defaults to the caller.
	PaidBy    string `json:"paid_by,omitempty"`
	SplitType string `json:"split_type"`
	// ParticipantIDs selects who shares an EQUAL split; empty means every
	// active member.
	ParticipantIDs []string      `json:"participant_ids,omitempty"`
	Shares         []*ShareInput `json:"shares,omitempty"`
	ExpenseDate    int64         `json:"expense_date,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID   string `json:"group_id"`
	PageSize  int    `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListExpensesResponse struct {
	Expenses      []*Expense `json:"expenses"`
	NextPageToken string     `json:"next_page_token,omitempty"`
	TotalCount    int        `json:"total_count"`
}

// UpdateExpenseRequest changes only the fields that are set. Changing the
// amount, split type, participants or shares regenerates every share.
type UpdateExpenseRequest struct {
	ExpenseID      string        `json:"expense_id"`
	Description    *string       `json:"description,omitempty"`
	Amount         *money.Money  `json:"amount,omitempty"`
	PaidBy         *string       `json:"paid_by,omitempty"`
	SplitType      *string       `json:"split_type,omitempty"`
	ParticipantIDs []string      `json:"participant_ids,omitempty"`
	Shares         []*ShareInput `json:"shares,omitempty"`
	ExpenseDate    *int64        `json:"expense_date,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type GetExpenseSharesRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseSharesResponse struct {
	Shares []*Share `json:"shares"`
}

// SettleSharesRequest marks shares as paid. ExpenseID is optional and, when
// set, every share must belong to that expense.
type SettleSharesRequest struct {
	GroupID   string   `json:"group_id"`
	ExpenseID string   `json:"expense_id,omitempty"`
	ShareIDs  []string `json:"share_ids"`
}

type SettleSharesResponse struct {
	// SettledShareIDs lists the shares this call changed; shares that were
	// already settled are not repeated.
	SettledShareIDs []string `json:"settled_share_ids"`
}
