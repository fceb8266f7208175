// Package persona classifies customers into behavioral archetypes from
// demographic and engagement signals. Classification is derived fresh on
// every call and is read-only over customer and case history.
package persona

import (
	"context"
	"strings"

	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// webmailDomains is the consumer webmail allow-list used as a tech-comfort
// signal.
var webmailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
	"icloud.com":  true,
}

// Classifier scores customers against the three fixed archetypes.
type Classifier struct {
	repo customer.Repository
}

// NewClassifier creates a classifier over the given customer repository.
func NewClassifier(repo customer.Repository) *Classifier {
	return &Classifier{repo: repo}
}

// Classify derives the dominant persona for a customer. Returns
// customer.ErrNotFound if the customer does not exist.
func (cl *Classifier) Classify(ctx context.Context, customerID string) (*domain.CustomerPersona, error) {
	c, err := cl.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	caseCount, err := cl.repo.CountCases(ctx, customerID)
	if err != nil {
		return nil, err
	}

	scores := cl.score(c, caseCount)

	// First maximal entry in fixed archetype order wins ties.
	winner := domain.PersonaInformedAdvocator
	best := -1
	for _, pt := range domain.PersonaTypes() {
		if scores[pt] > best {
			best = scores[pt]
			winner = pt
		}
	}

	confidence := float64(best) / 100
	if confidence > 1 {
		confidence = 1
	}

	p := &domain.CustomerPersona{
		Type:            winner,
		Confidence:      confidence,
		Characteristics: characteristics(winner, c, caseCount),
		Experience:      experienceFor(winner),
	}
	logger.Debug("persona classified",
		"customer_id", customerID, "persona", string(winner), "score", best)
	return p, nil
}

// score applies the independent scoring rules. Overlapping age bands may
// award points to more than one archetype.
func (cl *Classifier) score(c *domain.Customer, caseCount int) map[domain.PersonaType]int {
	scores := map[domain.PersonaType]int{
		domain.PersonaInformedAdvocator:  0,
		domain.PersonaCautiousResearcher: 0,
		domain.PersonaTechSavvyOptimizer: 0,
	}

	if c.Age >= 35 && c.Age <= 50 {
		scores[domain.PersonaInformedAdvocator] += 30
	}
	if c.Age >= 50 {
		scores[domain.PersonaCautiousResearcher] += 30
	}
	if c.Age >= 25 && c.Age <= 45 {
		scores[domain.PersonaTechSavvyOptimizer] += 25
	}

	if webmailDomains[emailDomain(c.Email)] {
		scores[domain.PersonaTechSavvyOptimizer] += 15
	}

	switch {
	case c.Preferences.Email && c.Preferences.SMS:
		scores[domain.PersonaInformedAdvocator] += 20
	case c.Preferences.Email:
		scores[domain.PersonaCautiousResearcher] += 15
	}

	switch {
	case caseCount > 2:
		scores[domain.PersonaInformedAdvocator] += 25
	case caseCount == 1:
		scores[domain.PersonaCautiousResearcher] += 20
	}

	if c.Phone != "" {
		scores[domain.PersonaCautiousResearcher] += 15
	} else {
		scores[domain.PersonaTechSavvyOptimizer] += 10
	}

	return scores
}

// baseCharacteristics is the fixed description list per archetype.
var baseCharacteristics = map[domain.PersonaType][]string{
	domain.PersonaInformedAdvocator: {
		"researches options before committing",
		"advocates for family members",
		"responds well to detailed case updates",
	},
	domain.PersonaCautiousResearcher: {
		"prefers reassurance over speed",
		"reads documentation thoroughly",
		"values human contact points",
	},
	domain.PersonaTechSavvyOptimizer: {
		"self-serves through the portal",
		"expects fast digital workflows",
		"comfortable with automated updates",
	},
}

func characteristics(pt domain.PersonaType, c *domain.Customer, caseCount int) []string {
	out := append([]string(nil), baseCharacteristics[pt]...)
	if caseCount > 1 {
		out = append(out, "repeat user with prior case history")
	}
	if c.Preferences.Email && c.Preferences.SMS {
		out = append(out, "reachable on multiple channels")
	}
	return out
}

func experienceFor(pt domain.PersonaType) domain.PersonaExperience {
	switch pt {
	case domain.PersonaCautiousResearcher:
		return domain.PersonaExperience{
			CommunicationStyle: "reassuring",
			SupportLevel:       "high_touch",
			InformationDepth:   "comprehensive",
			DecisionSpeed:      "deliberate",
			TrustFactors:       []string{"credentials", "testimonials", "phone_support"},
		}
	case domain.PersonaTechSavvyOptimizer:
		return domain.PersonaExperience{
			CommunicationStyle: "concise",
			SupportLevel:       "self_service",
			InformationDepth:   "summary",
			DecisionSpeed:      "fast",
			TrustFactors:       []string{"transparency", "instant_status", "reviews"},
		}
	default: // informed_advocator
		return domain.PersonaExperience{
			CommunicationStyle: "detailed",
			SupportLevel:       "standard",
			InformationDepth:   "detailed",
			DecisionSpeed:      "moderate",
			TrustFactors:       []string{"expertise", "case_outcomes", "clear_process"},
		}
	}
}

func emailDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}
