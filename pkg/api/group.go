package api

import "github.com/mmynk/fistein/internal/money"

type Group struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CreatedBy   string         `json:"created_by"`
	Active      bool           `json:"active"`
	Members     []*GroupMember `json:"members"`
	CreatedAt   int64          `json:"created_at"`
}

type GroupMember struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	Active      bool   `json:"active"`
	JoinedAt    int64  `json:"joined_at"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// MemberIDs are added alongside the caller, who becomes the admin.
	MemberIDs []string `json:"member_ids,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

// UpdateGroupRequest changes only the fields that are set.
type UpdateGroupRequest struct {
	GroupID     string  `json:"group_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

// MemberBalance is one member's position in a group. Net is positive when
// the group owes the member.
type MemberBalance struct {
	UserID        string      `json:"user_id"`
	DisplayName   string      `json:"display_name,omitempty"`
	TotalPaid     money.Money `json:"total_paid"`
	TotalOwed     money.Money `json:"total_owed"`
	TotalReceived money.Money `json:"total_received"`
	Net           money.Money `json:"net"`
}

// Transfer is one suggested payment that moves balances toward zero.
type Transfer struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount money.Money `json:"amount"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	Balances  []*MemberBalance `json:"balances"`
	Transfers []*Transfer      `json:"transfers"`
}

type GetUserBalanceRequest struct {
	GroupID string `json:"group_id"`
}

// Counterparty sums unsettled shares between the caller and one other
// member.
type Counterparty struct {
	UserID       string      `json:"user_id"`
	Amount       money.Money `json:"amount"`
	ExpenseCount int         `json:"expense_count"`
}

type GetUserBalanceResponse struct {
	Balance *MemberBalance `json:"balance"`
	// Debts are what the caller owes each payer.
	Debts []*Counterparty `json:"debts"`
	// Credits are what each member owes the caller.
	Credits []*Counterparty `json:"credits"`
}
