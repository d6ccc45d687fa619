package service

import (
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		Id:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]*api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = &api.Member{
			UserId:   m.UserID,
			Name:     m.Name,
			Email:    m.Email,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		}
	}
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]*api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.Split{MemberId: s.MemberID, Amount: s.Amount, Percentage: s.Percentage}
	}
	return &api.Expense{
		Id:          e.ID,
		GroupId:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		PayerId:     e.PayerID,
		SplitType:   string(e.SplitType),
		Splits:      splits,
		IsDeleted:   e.IsDeleted,
		DeletedAt:   e.DeletedAt,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		Id:          s.ID,
		GroupId:     s.GroupID,
		FromUserId:  s.FromUserID,
		ToUserId:    s.ToUserID,
		Amount:      s.Amount,
		PaymentMode: s.PaymentMode,
		Note:        s.Note,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
	}
}

func toAPISplits(splits []calculator.Split) []*api.Split {
	out := make([]*api.Split, len(splits))
	for i, s := range splits {
		out[i] = &api.Split{MemberId: s.MemberID, Amount: s.Amount, Percentage: s.Percentage}
	}
	return out
}

func toModelSplits(splits []calculator.Split) []models.Split {
	out := make([]models.Split, len(splits))
	for i, s := range splits {
		out[i] = models.Split{MemberID: s.MemberID, Amount: s.Amount, Percentage: s.Percentage}
	}
	return out
}

func toCalculatorSplits(splits []models.Split) []calculator.Split {
	out := make([]calculator.Split, len(splits))
	for i, s := range splits {
		out[i] = calculator.Split{MemberID: s.MemberID, Amount: s.Amount, Percentage: s.Percentage}
	}
	return out
}

func toSplitInput(participantIDs []string, shares []*api.SplitShare) calculator.SplitInput {
	in := calculator.SplitInput{ParticipantIDs: participantIDs}
	for _, s := range shares {
		if s == nil {
			continue
		}
		in.Shares = append(in.Shares, calculator.Share{
			MemberID:   s.MemberId,
			Amount:     s.Amount,
			Percentage: s.Percentage,
		})
	}
	return in
}
