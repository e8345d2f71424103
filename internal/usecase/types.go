// Package usecase is the boundary to the use-case backend: typed requests
// with workflow and rating checks done before anything is sent, plus the
// detail and list views that keep themselves current.
package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/logan/usecasehub/internal/workflow"
)

// ErrInvalidRating is returned for a rating outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Stakeholder is one person affected by a use case.
type Stakeholder struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// UseCase is a backend use case.
type UseCase struct {
	ID                       int             `json:"id"`
	Title                    string          `json:"title"`
	Description              string          `json:"description"`
	Stakeholders             []Stakeholder   `json:"stakeholders,omitempty"`
	ExpectedBenefit          *string         `json:"expected_benefit,omitempty"`
	Status                   workflow.Status `json:"status"`
	CompanyID                int             `json:"company_id"`
	TranscriptID             *int            `json:"transcript_id,omitempty"`
	CreatedByID              *int            `json:"created_by_id,omitempty"`
	RatingEffort             *int            `json:"rating_effort,omitempty"`
	RatingBenefit            *int            `json:"rating_benefit,omitempty"`
	RatingFeasibility        *int            `json:"rating_feasibility,omitempty"`
	RatingDataAvailability   *int            `json:"rating_data_availability,omitempty"`
	RatingStrategicRelevance *int            `json:"rating_strategic_relevance,omitempty"`
	RatingAverage            *float64        `json:"rating_average,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// Rating names one rating dimension by its JSON field.
type Rating string

const (
	RatingEffort             Rating = "rating_effort"
	RatingBenefit            Rating = "rating_benefit"
	RatingFeasibility        Rating = "rating_feasibility"
	RatingDataAvailability   Rating = "rating_data_availability"
	RatingStrategicRelevance Rating = "rating_strategic_relevance"
)

func (u *UseCase) ratingField(r Rating) (**int, error) {
	switch r {
	case RatingEffort:
		return &u.RatingEffort, nil
	case RatingBenefit:
		return &u.RatingBenefit, nil
	case RatingFeasibility:
		return &u.RatingFeasibility, nil
	case RatingDataAvailability:
		return &u.RatingDataAvailability, nil
	case RatingStrategicRelevance:
		return &u.RatingStrategicRelevance, nil
	}
	return nil, fmt.Errorf("unknown rating %q", r)
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Status                   *workflow.Status `json:"status,omitempty"`
	Title                    *string          `json:"title,omitempty"`
	Description              *string          `json:"description,omitempty"`
	ExpectedBenefit          *string          `json:"expected_benefit,omitempty"`
	Stakeholders             []Stakeholder    `json:"stakeholders,omitempty"`
	RatingEffort             *int             `json:"rating_effort,omitempty"`
	RatingBenefit            *int             `json:"rating_benefit,omitempty"`
	RatingFeasibility        *int             `json:"rating_feasibility,omitempty"`
	RatingDataAvailability   *int             `json:"rating_data_availability,omitempty"`
	RatingStrategicRelevance *int             `json:"rating_strategic_relevance,omitempty"`
}

// SetRating sets one rating dimension on the patch.
func (p *Patch) SetRating(r Rating, value int) error {
	var dst **int
	switch r {
	case RatingEffort:
		dst = &p.RatingEffort
	case RatingBenefit:
		dst = &p.RatingBenefit
	case RatingFeasibility:
		dst = &p.RatingFeasibility
	case RatingDataAvailability:
		dst = &p.RatingDataAvailability
	case RatingStrategicRelevance:
		dst = &p.RatingStrategicRelevance
	default:
		return fmt.Errorf("unknown rating %q", r)
	}
	*dst = &value
	return nil
}

// Validate checks the patch against the use case's current status. A
// status change must be a workflow transition.
func (p Patch) Validate(current workflow.Status) error {
	for _, r := range []*int{
		p.RatingEffort, p.RatingBenefit, p.RatingFeasibility,
		p.RatingDataAvailability, p.RatingStrategicRelevance,
	} {
		if r != nil && (*r < 1 || *r > 5) {
			return fmt.Errorf("%w: got %d", ErrInvalidRating, *r)
		}
	}
	if p.Status != nil {
		if err := workflow.Validate(current, *p.Status); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Title == nil && p.Description == nil &&
		p.ExpectedBenefit == nil && p.Stakeholders == nil &&
		p.RatingEffort == nil && p.RatingBenefit == nil && p.RatingFeasibility == nil &&
		p.RatingDataAvailability == nil && p.RatingStrategicRelevance == nil
}

// Filter narrows a list request. Zero fields are not sent.
type Filter struct {
	CompanyID int
	Status    workflow.Status
	Search    string
	Page      int
	PerPage   int
}

// ListResponse is one page of use cases.
type ListResponse struct {
	Data    []UseCase `json:"data"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}
