// Package types defines the core data structures for webforge
package types

import "time"

// User is an account holder and the owner of a credit balance
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar,omitempty"`
	Credits       int       `json:"credits"`
	Plan          Plan      `json:"plan"`
	APIKeyEnabled bool      `json:"api_key_enabled"`
	ReferralCode  string    `json:"referral_code"`
	ReferredBy    string    `json:"referred_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Plan is the billing plan of a user
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Project is a single-file web app under construction
type Project struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Type       ProjectType `json:"type"`
	Code       string      `json:"code"`
	Visibility Visibility  `json:"visibility"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ProjectType selects the starter stack of a project
type ProjectType string

const (
	TypeReactVite   ProjectType = "react-vite"
	TypeNextJS      ProjectType = "nextjs"
	TypeTailwind    ProjectType = "tailwind"
	TypeReactNative ProjectType = "react-native" // listed, not yet available
)

// Visibility controls who may view a project
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// FileNode is one entry of a project's file tree
type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"` // file, directory
	Children []FileNode `json:"children,omitempty"`
}

// Referral links a referrer to the user who signed up with their code
type Referral struct {
	ID         string         `json:"id"`
	ReferrerID string         `json:"referrer_id"`
	RefereeID  string         `json:"referee_id"`
	Status     ReferralStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ReferralStatus tracks whether a referral has paid out
type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
)

// ReferralStats summarizes a user's referrals
type ReferralStats struct {
	TotalReferrals      int `json:"total_referrals"`
	SuccessfulReferrals int `json:"successful_referrals"`
	TotalRewards        int `json:"total_rewards"`
}

// SupportTicket is a user request to the support team
type SupportTicket struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	Status    TicketStatus   `json:"status"`
	Priority  TicketPriority `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TicketStatus is the lifecycle state of a ticket
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
)

// TicketPriority orders tickets for the support queue
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

// CreditUsage is one ledger entry; negative amounts are debits
type CreditUsage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	Amount      int       `json:"amount"`
	Type        UsageType `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// UsageType categorizes ledger entries
type UsageType string

const (
	UsageAIGeneration  UsageType = "ai_generation"
	UsageProjectExport UsageType = "project_export"
	UsageReferralBonus UsageType = "referral_bonus"
	UsageSignupBonus   UsageType = "signup_bonus"
	UsageOther         UsageType = "other"
)

// IPBlock denies all requests from an address until it expires
type IPBlock struct {
	ID        string     `json:"id"`
	IP        string     `json:"ip"`
	UserID    string     `json:"user_id,omitempty"`
	Reason    string     `json:"reason"`
	BlockedAt time.Time  `json:"blocked_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in an editor chat
type ConversationTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SignUpRequest is the request payload for creating an account
type SignUpRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// UpdateProfileRequest changes the mutable profile fields; nil means unchanged
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// CreateProjectRequest is the request payload for creating a project
type CreateProjectRequest struct {
	Name       string      `json:"name"`
	Type       ProjectType `json:"type"`
	Template   string      `json:"template,omitempty"`
	Visibility Visibility  `json:"visibility,omitempty"`
}

// UpdateProjectRequest changes project metadata; nil means unchanged
type UpdateProjectRequest struct {
	Name       *string     `json:"name,omitempty"`
	Visibility *Visibility `json:"visibility,omitempty"`
}

// CreateTicketRequest is the request payload for opening a support ticket
type CreateTicketRequest struct {
	Subject  string         `json:"subject"`
	Message  string         `json:"message"`
	Priority TicketPriority `json:"priority,omitempty"`
}

// EditorSnapshot is the renderable state of an editor session
type EditorSnapshot struct {
	ProjectID string             `json:"project_id"`
	Code      string             `json:"code"`
	Turns     []ConversationTurn `json:"turns"`
	Busy      bool               `json:"busy"`
	Pending   bool               `json:"autosave_pending"`
}

// CreditsResponse reports a balance with recent ledger entries
type CreditsResponse struct {
	Balance int            `json:"balance"`
	Usage   []*CreditUsage `json:"usage"`
}
