package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Government ID verification states.
const (
	IDStatusPending  = "pending"
	IDStatusApproved = "approved"
	IDStatusRejected = "rejected"
)

// AuthUser is the identity returned by login and registration.
type AuthUser struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// Profile is the full account record of the signed-in user.
type Profile struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	IsAdmin            bool   `json:"is_admin"`
	Balance            Amount `json:"balance"`
	PendingEarnings    Amount `json:"pending_earnings"`
	TotalWithdrawn     Amount `json:"total_withdrawn"`
	TasksCompleted     int    `json:"tasks_completed"`
	SuccessRate        Amount `json:"success_rate"`
	AverageRating      Amount `json:"average_rating"`
	Country            string `json:"country,omitempty"`
	Bio                string `json:"bio,omitempty"`
	Timezone           string `json:"timezone,omitempty"`
	Language           string `json:"language,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`

	// GovernmentIDStatus is empty when the backend did not send the field.
	GovernmentIDStatus string `json:"government_id_status,omitempty"`
}

type profileWire struct {
	ID                 flexInt  `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	IsAdmin            flexBool `json:"is_admin"`
	IsAdminCamel       flexBool `json:"isAdmin"`
	Balance            Amount   `json:"balance"`
	PendingEarnings    Amount   `json:"pendingEarnings"`
	PendingEarningsSnk Amount   `json:"pending_earnings"`
	TotalWithdrawn     Amount   `json:"totalWithdrawn"`
	TotalWithdrawnSnk  Amount   `json:"total_withdrawn"`
	TasksCompleted     flexInt  `json:"tasksCompleted"`
	TasksCompletedSnk  flexInt  `json:"tasks_completed"`
	SuccessRate        Amount   `json:"successRate"`
	SuccessRateSnk     Amount   `json:"success_rate"`
	AverageRating      Amount   `json:"averageRating"`
	AverageRatingSnk   Amount   `json:"average_rating"`
	Country            string   `json:"country"`
	Bio                string   `json:"bio"`
	Timezone           string   `json:"timezone"`
	Language           string   `json:"language"`
	EmailNotifications flexBool `json:"emailNotifications"`
	EmailNotifSnk      flexBool `json:"email_notifications"`
	GovernmentIDStatus string   `json:"governmentIdStatus"`
	GovernmentIDSnk    string   `json:"government_id_status"`
}

// UnmarshalJSON normalizes the mixed-case profile payload.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var w profileWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding profile: %w", err)
	}

	*p = Profile{
		ID:                 w.ID.value,
		Name:               w.Name,
		Email:              w.Email,
		IsAdmin:            pickBool(w.IsAdmin, w.IsAdminCamel),
		Balance:            w.Balance,
		PendingEarnings:    pickAmount(w.PendingEarnings, w.PendingEarningsSnk),
		TotalWithdrawn:     pickAmount(w.TotalWithdrawn, w.TotalWithdrawnSnk),
		TasksCompleted:     int(pickInt(w.TasksCompleted, w.TasksCompletedSnk)),
		SuccessRate:        pickAmount(w.SuccessRate, w.SuccessRateSnk),
		AverageRating:      pickAmount(w.AverageRating, w.AverageRatingSnk),
		Country:            w.Country,
		Bio:                w.Bio,
		Timezone:           w.Timezone,
		Language:           w.Language,
		EmailNotifications: pickBool(w.EmailNotifications, w.EmailNotifSnk),
		GovernmentIDStatus: firstNonEmpty(w.GovernmentIDStatus, w.GovernmentIDSnk),
	}
	return nil
}

func pickAmount(values ...Amount) Amount {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return Amount{}
}

// ProfileUpdate holds the editable profile fields. Nil pointers are omitted.
type ProfileUpdate struct {
	Name               *string `json:"name,omitempty"`
	Country            *string `json:"country,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	Language           *string `json:"language,omitempty"`
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
	CurrentPassword    string  `json:"currentPassword,omitempty"`
	NewPassword        string  `json:"newPassword,omitempty"`
}

// LeaderboardEntry is one row of the public earnings leaderboard.
type LeaderboardEntry struct {
	Name           string `json:"name"`
	Balance        Amount `json:"balance"`
	TasksCompleted int    `json:"tasksCompleted"`
}

// ReferredUser is one account that signed up with the user's code.
type ReferredUser struct {
	Username       string `json:"username"`
	JoinedDate     string `json:"joined_date"`
	TasksCompleted int    `json:"tasks_completed"`
	TotalEarnings  Amount `json:"total_earnings"`
	CurrentBalance Amount `json:"current_balance"`
	TotalWithdrawn Amount `json:"total_withdrawn"`
}

// ReferralStats summarizes the user's referral program activity.
type ReferralStats struct {
	TotalReferralEarnings Amount         `json:"total_referral_earnings"`
	ReferralShare         Amount         `json:"referral_share"`
	ReferralCode          string         `json:"referral_code"`
	ReferralLink          string         `json:"referral_link"`
	TotalReferredUsers    int            `json:"total_referred_users"`
	ReferredUsers         []ReferredUser `json:"referred_users"`
}

// AdminUser is a user row as seen from the admin console.
type AdminUser struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	IsAdmin            bool      `json:"is_admin"`
	Country            string    `json:"country,omitempty"`
	GovernmentIDStatus string    `json:"government_id_status,omitempty"`
	GovernmentIDURL    string    `json:"government_id_url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// UnmarshalJSON tolerates the backend's timestamp and boolean spellings.
func (u *AdminUser) UnmarshalJSON(data []byte) error {
	type plain AdminUser
	var w struct {
		plain
		IsAdmin   flexBool `json:"is_admin"`
		CreatedAt string   `json:"created_at"`
	}
	if err := unmarshalWire(data, &w, "user"); err != nil {
		return err
	}
	createdAt := timestampField("user", w.ID, w.CreatedAt)
	*u = AdminUser(w.plain)
	u.IsAdmin = pickBool(w.IsAdmin)
	u.CreatedAt = createdAt
	return nil
}

// UnmarshalJSON accepts is_admin as a boolean or 0/1.
func (u *AuthUser) UnmarshalJSON(data []byte) error {
	type plain AuthUser
	var w struct {
		plain
		IsAdmin      flexBool `json:"is_admin"`
		IsAdminCamel flexBool `json:"isAdmin"`
	}
	if err := unmarshalWire(data, &w, "user"); err != nil {
		return err
	}
	*u = AuthUser(w.plain)
	u.IsAdmin = pickBool(w.IsAdmin, w.IsAdminCamel)
	return nil
}
