package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/labdesk/labdesk_backend/models"
)

// Specificity weights of each constrained field
const (
	DoctorWeight      = 100
	TestWeight        = 50
	PackageWeight     = 50
	BookingTypeWeight = 20
	PaymentModeWeight = 10
)

var hundred = decimal.NewFromInt(100)

var (
	// ErrRuleConfiguration is wrapped by every RuleConfigurationError
	ErrRuleConfiguration = errors.New("commission rule misconfigured")
	// ErrValidation is wrapped by every ValidationError
	ErrValidation = errors.New("validation failed")
)

// RuleConfigurationError reports a stored rule that cannot be applied
type RuleConfigurationError struct {
	RuleID int64
	Reason string
}

func (e *RuleConfigurationError) Error() string {
	return fmt.Sprintf("commission rule %d: %s", e.RuleID, e.Reason)
}

func (e *RuleConfigurationError) Unwrap() error { return ErrRuleConfiguration }

// ValidationError reports bad input to the resolver or to rule creation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CommissionRuleRepository returns the active rules whose every constraint is
// either unset or equal to the booking's value.
type CommissionRuleRepository interface {
	FindCandidateRules(ctx context.Context, attrs models.BookingAttributes) ([]models.CommissionRule, error)
}

// Resolution is the outcome of resolving one booking against its candidate rules
type Resolution struct {
	Amount decimal.Decimal        `json:"amount"`
	Rule   *models.CommissionRule `json:"rule,omitempty"`
	Score  int                    `json:"score"`
	// Tied is set when more than one candidate shared the top score and the
	// lowest rule ID was taken.
	Tied bool `json:"tied"`
}

// RuleScore ranks a rule by how many and which fields it constrains.
func RuleScore(rule models.CommissionRule) int {
	score := 0
	if rule.DoctorID != nil {
		score += DoctorWeight
	}
	if rule.TestID != nil {
		score += TestWeight
	}
	if rule.PackageID != nil {
		score += PackageWeight
	}
	if rule.BookingType != nil {
		score += BookingTypeWeight
	}
	if rule.PaymentMode != nil {
		score += PaymentModeWeight
	}
	return score
}

// SelectRule picks the highest scoring candidate. Equal scores are broken by the
// lowest rule ID so the choice never depends on the order rules were loaded in.
func SelectRule(candidates []models.CommissionRule) (selected models.CommissionRule, tied bool, ok bool) {
	if len(candidates) == 0 {
		return models.CommissionRule{}, false, false
	}

	best := candidates[0]
	bestScore := RuleScore(best)
	for _, rule := range candidates[1:] {
		score := RuleScore(rule)
		switch {
		case score > bestScore:
			best, bestScore, tied = rule, score, false
		case score == bestScore:
			tied = true
			if rule.ID < best.ID {
				best = rule
			}
		}
	}
	return best, tied, true
}

// ResolveCommission selects the most specific rule among candidates and computes
// the payout for testAmount, rounded half away from zero to 2 places.
// An empty candidate set resolves to zero.
func ResolveCommission(candidates []models.CommissionRule, testAmount decimal.Decimal) (Resolution, error) {
	if !testAmount.IsPositive() {
		return Resolution{Amount: decimal.Zero}, &ValidationError{Field: "testAmount", Reason: "must be positive"}
	}

	rule, tied, ok := SelectRule(candidates)
	if !ok {
		return Resolution{Amount: decimal.Zero}, nil
	}

	amount, err := computePayout(rule, testAmount)
	if err != nil {
		return Resolution{Amount: decimal.Zero, Rule: &rule, Score: RuleScore(rule), Tied: tied}, err
	}

	return Resolution{Amount: amount, Rule: &rule, Score: RuleScore(rule), Tied: tied}, nil
}

func computePayout(rule models.CommissionRule, testAmount decimal.Decimal) (decimal.Decimal, error) {
	if rule.CommissionValue.IsNegative() {
		return decimal.Zero, &RuleConfigurationError{RuleID: rule.ID, Reason: "negative commission value"}
	}

	switch rule.CommissionType {
	case models.CommissionPercentage:
		return testAmount.Mul(rule.CommissionValue).Div(hundred).Round(2), nil
	case models.CommissionFlat:
		return rule.CommissionValue.Round(2), nil
	default:
		return decimal.Zero, &RuleConfigurationError{
			RuleID: rule.ID,
			Reason: fmt.Sprintf("unknown commission type %q", rule.CommissionType),
		}
	}
}

// ValidateRule checks a rule before it is stored as active
func ValidateRule(rule models.CommissionRule) error {
	if !rule.CommissionType.Valid() {
		return &ValidationError{Field: "commissionType", Reason: "must be PERCENTAGE or FLAT"}
	}
	if rule.CommissionValue.IsNegative() {
		return &ValidationError{Field: "commissionValue", Reason: "must not be negative"}
	}
	if rule.CommissionType == models.CommissionPercentage && rule.CommissionValue.GreaterThan(hundred) {
		return &ValidationError{Field: "commissionValue", Reason: "percentage must not exceed 100"}
	}
	if rule.TestID != nil && rule.PackageID != nil {
		return &ValidationError{Field: "packageId", Reason: "a rule targets a test or a package, not both"}
	}
	ids := []struct {
		field string
		value *int64
	}{{"doctorId", rule.DoctorID}, {"testId", rule.TestID}, {"packageId", rule.PackageID}}
	for _, id := range ids {
		if id.value != nil && *id.value <= 0 {
			return &ValidationError{Field: id.field, Reason: "must be a positive identifier"}
		}
	}
	if rule.BookingType != nil && *rule.BookingType != models.BookingTypeHome && *rule.BookingType != models.BookingTypeLab {
		return &ValidationError{Field: "bookingType", Reason: "must be HOME or LAB"}
	}
	if rule.PaymentMode != nil && *rule.PaymentMode != models.PaymentModeCash && *rule.PaymentMode != models.PaymentModeOnline {
		return &ValidationError{Field: "paymentMode", Reason: "must be CASH or ONLINE"}
	}
	return nil
}

// RankedRule is one row of a rule preview
type RankedRule struct {
	Rule  models.CommissionRule `json:"rule"`
	Score int                   `json:"score"`
}

// RankRules orders candidates the way SelectRule considers them: score
// descending, then rule ID ascending.
func RankRules(candidates []models.CommissionRule) []RankedRule {
	ranked := make([]RankedRule, 0, len(candidates))
	for _, rule := range candidates {
		ranked = append(ranked, RankedRule{Rule: rule, Score: RuleScore(rule)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Rule.ID < ranked[j].Rule.ID
	})
	return ranked
}

// CommissionService loads candidate rules for a booking and resolves them
type CommissionService struct {
	rules CommissionRuleRepository
}

// NewCommissionService creates a new commission service
func NewCommissionService(rules CommissionRuleRepository) *CommissionService {
	return &CommissionService{rules: rules}
}

// Calculate resolves the commission owed for a booking
func (s *CommissionService) Calculate(ctx context.Context, attrs models.BookingAttributes) (Resolution, error) {
	candidates, err := s.rules.FindCandidateRules(ctx, attrs)
	if err != nil {
		return Resolution{Amount: decimal.Zero}, fmt.Errorf("load candidate rules: %w", err)
	}
	return ResolveCommission(candidates, attrs.Amount)
}

// Preview is Calculate plus the full ranking, for admins checking rule overlap
func (s *CommissionService) Preview(ctx context.Context, attrs models.BookingAttributes) ([]RankedRule, Resolution, error) {
	candidates, err := s.rules.FindCandidateRules(ctx, attrs)
	if err != nil {
		return nil, Resolution{Amount: decimal.Zero}, fmt.Errorf("load candidate rules: %w", err)
	}
	res, err := ResolveCommission(candidates, attrs.Amount)
	return RankRules(candidates), res, err
}
