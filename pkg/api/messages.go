// Package api defines the fintrack.v1 wire messages.
//
// Messages are plain Go structs encoded as JSON by Codec. Amounts are decimal
// numbers with two meaningful places; timestamps are Unix seconds.
package api

// User is the public view of an account.
type User struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type Member struct {
	UserId   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joined_at"`
}

type Group struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	Members   []*Member `json:"members"`
	CreatedAt int64     `json:"created_at"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	// MemberEmails are added as plain members; the caller becomes admin.
	MemberEmails []string `json:"member_emails,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupId string `json:"group_id"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupId string `json:"group_id"`
	UserId  string `json:"user_id"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupId string `json:"group_id"`
}

type DeleteGroupResponse struct{}

// Split is one member's portion of an expense.
// Percentage is meaningful only for percentage splits.
type Split struct {
	MemberId   string  `json:"member_id"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// SplitShare is caller input for custom (Amount) and percentage (Percentage) splits.
type SplitShare struct {
	MemberId   string  `json:"member_id"`
	Amount     float64 `json:"amount,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
}

type Expense struct {
	Id          string   `json:"id"`
	GroupId     string   `json:"group_id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	PayerId     string   `json:"payer_id"`
	SplitType   string   `json:"split_type"`
	Splits      []*Split `json:"splits"`
	IsDeleted   bool     `json:"is_deleted"`
	DeletedAt   int64    `json:"deleted_at,omitempty"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   int64    `json:"created_at"`
}

type PreviewSplitRequest struct {
	Amount         float64       `json:"amount"`
	SplitType      string        `json:"split_type"`
	ParticipantIds []string      `json:"participant_ids,omitempty"`
	Shares         []*SplitShare `json:"shares,omitempty"`
}

type PreviewSplitResponse struct {
	Splits []*Split `json:"splits"`
	// Drift is amount minus the sum of rounded split amounts.
	Drift float64 `json:"drift"`
}

type AddExpenseRequest struct {
	GroupId     string  `json:"group_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	// PayerId defaults to the caller.
	PayerId        string        `json:"payer_id,omitempty"`
	SplitType      string        `json:"split_type"`
	ParticipantIds []string      `json:"participant_ids,omitempty"`
	Shares         []*SplitShare `json:"shares,omitempty"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseId string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupId        string `json:"group_id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type Settlement struct {
	Id          string  `json:"id"`
	GroupId     string  `json:"group_id"`
	FromUserId  string  `json:"from_user_id"`
	ToUserId    string  `json:"to_user_id"`
	Amount      float64 `json:"amount"`
	PaymentMode string  `json:"payment_mode,omitempty"`
	Note        string  `json:"note,omitempty"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   int64   `json:"created_at"`
}

type RecordSettlementRequest struct {
	GroupId string `json:"group_id"`
	// FromUserId defaults to the caller.
	FromUserId  string  `json:"from_user_id,omitempty"`
	ToUserId    string  `json:"to_user_id"`
	Amount      float64 `json:"amount"`
	PaymentMode string  `json:"payment_mode,omitempty"`
	Note        string  `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupId string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type MemberBalance struct {
	MemberId   string  `json:"member_id"`
	MemberName string  `json:"member_name"`
	NetBalance float64 `json:"net_balance"`
	TotalPaid  float64 `json:"total_paid"`
	TotalOwed  float64 `json:"total_owed"`
	// Orphaned marks a former member who still appears in the history.
	Orphaned bool `json:"orphaned,omitempty"`
}

type Transfer struct {
	FromMemberId string  `json:"from_member_id"`
	FromName     string  `json:"from_name"`
	ToMemberId   string  `json:"to_member_id"`
	ToName       string  `json:"to_name"`
	Amount       float64 `json:"amount"`
}

type GetGroupBalancesRequest struct {
	GroupId string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	Balances   []*MemberBalance `json:"balances"`
	Transfers  []*Transfer      `json:"transfers"`
	TotalSpent float64          `json:"total_spent"`
}
