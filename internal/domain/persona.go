package domain

// PersonaType is one of three fixed behavioral archetypes.
type PersonaType string

const (
	PersonaInformedAdvocator  PersonaType = "informed_advocator"
	PersonaCautiousResearcher PersonaType = "cautious_researcher"
	PersonaTechSavvyOptimizer PersonaType = "tech_savvy_optimizer"
)

// PersonaTypes lists the archetypes in scoring-tiebreak order. The first
// maximal accumulator in this order wins classification.
func PersonaTypes() []PersonaType {
	return []PersonaType{
		PersonaInformedAdvocator,
		PersonaCautiousResearcher,
		PersonaTechSavvyOptimizer,
	}
}

// PersonaExperience is the interaction profile recommended for a persona.
type PersonaExperience struct {
	CommunicationStyle string   `json:"communication_style"`
	SupportLevel       string   `json:"support_level"`
	InformationDepth   string   `json:"information_depth"`
	DecisionSpeed      string   `json:"decision_speed"`
	TrustFactors       []string `json:"trust_factors"`
}

// CustomerPersona is the result of classifying a customer. Derived fresh on
// each analysis call and never persisted by the engine.
type CustomerPersona struct {
	Type            PersonaType       `json:"type"`
	Confidence      float64           `json:"confidence"`
	Characteristics []string          `json:"characteristics"`
	Experience      PersonaExperience `json:"experience"`
}
