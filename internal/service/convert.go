package service

import (
	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/pkg/api"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func groupToAPI(g *models.Group) *api.Group {
	members := make([]*api.GroupMember, len(g.Members))
	for i, m := range g.Members {
		members[i] = &api.GroupMember{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			IsAdmin:     m.IsAdmin,
			Active:      m.Active,
			JoinedAt:    m.JoinedAt,
		}
	}
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Active:      g.Active,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}

// expenseToAPI converts an expense; viewer's share, if any, is repeated in
// MyShare.
func expenseToAPI(e *models.Expense, viewer string) *api.Expense {
	out := &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		CreatedBy:   e.CreatedBy,
		SplitType:   string(e.Policy),
		Notes:       e.Notes,
		ExpenseDate: e.ExpenseDate,
		CreatedAt:   e.CreatedAt,
		Shares:      sharesToAPI(e.Shares),
	}
	if s, ok := e.ShareFor(viewer); ok {
		out.MyShare = shareToAPI(s)
	}
	return out
}

func sharesToAPI(shares []models.Share) []*api.Share {
	out := make([]*api.Share, len(shares))
	for i, s := range shares {
		out[i] = shareToAPI(s)
	}
	return out
}

func shareToAPI(s models.Share) *api.Share {
	return &api.Share{
		ID:         s.ID,
		ExpenseID:  s.ExpenseID,
		UserID:     s.UserID,
		Amount:     s.Amount,
		Percentage: s.Percentage,
		Status:     string(s.Status),
		SettledAt:  s.SettledAt,
	}
}

func balanceToAPI(b ledger.MemberBalance, g *models.Group) *api.MemberBalance {
	out := &api.MemberBalance{
		UserID:        b.Member,
		TotalPaid:     b.TotalPaid,
		TotalOwed:     b.TotalOwed,
		TotalReceived: b.TotalReceived,
		Net:           b.Net,
	}
	if m, ok := g.Member(b.Member); ok {
		out.DisplayName = m.DisplayName
	}
	return out
}

func transfersToAPI(transfers []ledger.Transfer) []*api.Transfer {
	out := make([]*api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = &api.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}

func exposuresToAPI(exposures []ledger.Exposure) []*api.Counterparty {
	out := make([]*api.Counterparty, len(exposures))
	for i, e := range exposures {
		out[i] = &api.Counterparty{UserID: e.Counterparty, Amount: e.Amount, ExpenseCount: e.Expenses}
	}
	return out
}
