package model

// AdvertiserBalance is the prepaid budget available to an advertiser.
type AdvertiserBalance struct {
	Balance     Amount `json:"balance"`
	TotalSpent  Amount `json:"total_spent"`
	HoldBalance Amount `json:"advertiser_hold_balance"`
}

// Campaign is a task owned by an advertiser, with its budget and review state.
type Campaign struct {
	Task
	TotalBudget     Amount       `json:"total_budget"`
	RemainingBudget Amount       `json:"remaining_budget"`
	AdminStatus     ReviewStatus `json:"admin_status,omitempty"`
	AdminFeedback   string       `json:"admin_feedback,omitempty"`
}

// UnmarshalJSON decodes the embedded task and the campaign fields.
func (c *Campaign) UnmarshalJSON(data []byte) error {
	if err := c.Task.UnmarshalJSON(data); err != nil {
		return err
	}
	var w struct {
		TotalBudget     Amount       `json:"total_budget"`
		RemainingBudget Amount       `json:"remaining_budget"`
		AdminStatus     ReviewStatus `json:"admin_status"`
		AdminFeedback   string       `json:"admin_feedback"`
	}
	if err := unmarshalWire(data, &w, "campaign"); err != nil {
		return err
	}
	c.TotalBudget = w.TotalBudget
	c.RemainingBudget = w.RemainingBudget
	c.AdminStatus = w.AdminStatus
	c.AdminFeedback = w.AdminFeedback
	return nil
}

// DailyStat is one day of submission activity for a campaign.
type DailyStat struct {
	Date        string `json:"date"`
	Submissions int    `json:"submissions"`
	Approved    int    `json:"approved"`
	Rejected    int    `json:"rejected"`
}

// CampaignStats summarizes the performance of one campaign.
type CampaignStats struct {
	TotalSubmissions    int         `json:"total_submissions"`
	ApprovedSubmissions int         `json:"approved_submissions"`
	PendingSubmissions  int         `json:"pending_submissions"`
	RejectedSubmissions int         `json:"rejected_submissions"`
	RemainingBudget     Amount      `json:"remaining_budget"`
	SpentBudget         Amount      `json:"spent_budget"`
	DailyStats          []DailyStat `json:"daily_stats"`
}

// PaymentIntent carries the client secret for a card top-up.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}

// Category is a task category offered by the campaign form.
type Category struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	MinReward   Amount   `json:"min_reward"`
	ProofTypes  []string `json:"proof_types"`
	MinDuration int      `json:"min_duration"`
}

// Country is a targetable country with its reward floor.
type Country struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	MinReward Amount `json:"min_reward"`
}

// AdvertiserMetadata lists the values the campaign form offers.
type AdvertiserMetadata struct {
	Categories []Category `json:"categories"`
	Countries  struct {
		Tier1 []Country `json:"tier1"`
		Tier2 []Country `json:"tier2"`
		Tier3 []Country `json:"tier3"`
	} `json:"countries"`
}
