package advertiser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/taskflow/internal/model"
)

// campaignBindings holds the new-campaign form values on the heap.
type campaignBindings struct {
	title        string
	description  string
	category     string
	reward       string
	budget       string
	seconds      string
	steps        string
	difficulty   model.Difficulty
	approval     model.ApprovalType
	proofs       []model.ProofType
	hourlyLimit  string
	dailyLimit   string
	categoryOpts []string
}

func newCampaignBindings(categories []string) *campaignBindings {
	return &campaignBindings{
		difficulty:   model.DifficultyEasy,
		approval:     model.ApprovalManual,
		proofs:       []model.ProofType{model.ProofScreenshot},
		seconds:      "300",
		categoryOpts: categories,
	}
}

func (cb *campaignBindings) form(width int) *huh.Form {
	var category huh.Field = huh.NewInput().
		Title("Category").
		Value(&cb.category).
		Validate(required("Category"))
	if len(cb.categoryOpts) > 0 {
		cb.category = cb.categoryOpts[0]
		category = huh.NewSelect[string]().
			Title("Category").
			Options(huh.NewOptions(cb.categoryOpts...)...).
			Value(&cb.category)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&cb.title).Validate(required("Title")),
			huh.NewText().Title("Description").Value(&cb.description).Validate(required("Description")),
			category,
			huh.NewInput().Title("Reward per completion").Value(&cb.reward).Validate(positiveFloat("Reward")),
			huh.NewInput().Title("Total budget").Value(&cb.budget).Validate(positiveFloat("Budget")),
		),
		huh.NewGroup(
			huh.NewSelect[model.Difficulty]().
				Title("Difficulty").
				Options(
					huh.NewOption("Easy", model.DifficultyEasy),
					huh.NewOption("Medium", model.DifficultyMedium),
					huh.NewOption("Hard", model.DifficultyHard),
				).
				Value(&cb.difficulty),
			huh.NewSelect[model.ApprovalType]().
				Title("Approval").
				Options(
					huh.NewOption("Manual review", model.ApprovalManual),
					huh.NewOption("Automatic", model.ApprovalAutomatic),
				).
				Value(&cb.approval),
			huh.NewMultiSelect[model.ProofType]().
				Title("Proof required").
				Options(
					huh.NewOption("Screenshot", model.ProofScreenshot),
					huh.NewOption("Text", model.ProofText),
					huh.NewOption("Link", model.ProofURL),
				).
				Value(&cb.proofs),
			huh.NewInput().Title("Time limit (seconds)").Value(&cb.seconds).Validate(positiveInt("Time limit")),
			huh.NewText().Title("Steps").Description("One step per line").Value(&cb.steps).Validate(required("Steps")),
			huh.NewInput().Title("Hourly limit per user").Description("Blank for unlimited").Value(&cb.hourlyLimit).Validate(optionalInt),
			huh.NewInput().Title("Daily limit per user").Description("Blank for unlimited").Value(&cb.dailyLimit).Validate(optionalInt),
		),
	).WithWidth(min(max(width-4, 40), 100))
}

// input converts the form values into a campaign payload.
func (cb *campaignBindings) input() (model.TaskInput, error) {
	reward, err := strconv.ParseFloat(strings.TrimSpace(cb.reward), 64)
	if err != nil {
		return model.TaskInput{}, fmt.Errorf("parsing reward: %w", err)
	}
	budget, err := strconv.ParseFloat(strings.TrimSpace(cb.budget), 64)
	if err != nil {
		return model.TaskInput{}, fmt.Errorf("parsing budget: %w", err)
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(cb.seconds))
	if err != nil {
		return model.TaskInput{}, fmt.Errorf("parsing time limit: %w", err)
	}

	var steps []string
	for _, line := range strings.Split(cb.steps, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			steps = append(steps, s)
		}
	}

	proofs := make([]model.ProofRequirement, len(cb.proofs))
	for i, p := range cb.proofs {
		proofs[i] = model.ProofRequirement{Type: p, Description: proofDescription(p)}
	}

	hourly, _ := strconv.Atoi(strings.TrimSpace(cb.hourlyLimit))
	daily, _ := strconv.Atoi(strings.TrimSpace(cb.dailyLimit))

	return model.TaskInput{
		Title:             strings.TrimSpace(cb.title),
		Description:       strings.TrimSpace(cb.description),
		Reward:            reward,
		TotalBudget:       budget,
		Category:          cb.category,
		Difficulty:        cb.difficulty,
		ApprovalType:      cb.approval,
		TimeInSeconds:     seconds,
		TimeEstimate:      fmt.Sprintf("%d min", max(seconds/60, 1)),
		Steps:             steps,
		ProofRequirements: proofs,
		HourlyLimit:       hourly,
		DailyLimit:        daily,
		IsActive:          true,
	}, nil
}

func proofDescription(p model.ProofType) string {
	switch p {
	case model.ProofScreenshot:
		return "Upload a screenshot showing the completed task"
	case model.ProofURL:
		return "Paste the link to your completed work"
	default:
		return "Describe what you did"
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func positiveFloat(field string) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("%s must be a positive number", field)
		}
		return nil
	}
}

func positiveInt(field string) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || v <= 0 {
			return fmt.Errorf("%s must be a whole number above zero", field)
		}
		return nil
	}
}

func optionalInt(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err != nil || v < 0 {
		return fmt.Errorf("enter a whole number or leave blank")
	}
	return nil
}
