package learning

import (
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

const (
	defaultWordCount = 20
	maxWordCount     = 100

	defaultListLimit = 50
	maxListLimit     = 200
)

// LearningWordsInput holds the parameters for GetLearningWords.
type LearningWordsInput struct {
	// Count defaults to 20 when zero.
	Count int
}

// Validate checks all fields and collects all errors.
func (i LearningWordsInput) Validate() error {
	if i.Count < 0 || i.Count > maxWordCount {
		return domain.NewValidationError("count", "must be between 1 and 100")
	}
	return nil
}

func (i LearningWordsInput) count() int {
	if i.Count == 0 {
		return defaultWordCount
	}
	return i.Count
}

// PlanInput holds the parameters for GetSmartLearningPlan.
type PlanInput struct {
	// TotalCount defaults to 20 when zero.
	TotalCount int
	// NewRatio and ReviewRatio weight the mixed split. Both zero means 1:1.
	NewRatio    int
	ReviewRatio int
	// Type defaults to mixed.
	Type domain.PlanType
	// SourceTag restricts the plan to aggregates carrying the tag.
	SourceTag string
}

// Validate checks all fields and collects all errors.
func (i PlanInput) Validate() error {
	var errs []domain.FieldError

	if i.TotalCount < 0 || i.TotalCount > maxWordCount {
		errs = append(errs, domain.FieldError{Field: "totalCount", Message: "must be between 1 and 100"})
	}
	if i.NewRatio < 0 {
		errs = append(errs, domain.FieldError{Field: "newRatio", Message: "must be >= 0"})
	}
	if i.ReviewRatio < 0 {
		errs = append(errs, domain.FieldError{Field: "reviewRatio", Message: "must be >= 0"})
	}
	if i.Type != "" && !i.Type.IsValid() {
		errs = append(errs, domain.FieldError{Field: "type", Message: "must be mixed, new or review"})
	}
	if len(strings.TrimSpace(i.SourceTag)) > 100 {
		errs = append(errs, domain.FieldError{Field: "sourceTag", Message: "max 100 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// normalized returns the input with defaults applied.
func (i PlanInput) normalized() PlanInput {
	if i.TotalCount == 0 {
		i.TotalCount = defaultWordCount
	}
	if i.NewRatio == 0 && i.ReviewRatio == 0 {
		i.NewRatio, i.ReviewRatio = 1, 1
	}
	if i.Type == "" {
		i.Type = domain.PlanTypeMixed
	}
	i.SourceTag = strings.TrimSpace(i.SourceTag)
	return i
}

// ListInput holds the parameters for browsing an aggregate collection.
type ListInput struct {
	Mastery domain.MasteryFilter
	Tag     string
	// Limit defaults to 50 when zero.
	Limit  int
	Offset int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.Mastery != "" && !i.Mastery.IsValid() {
		errs = append(errs, domain.FieldError{Field: "mastery", Message: "must be all, mastered or unmastered"})
	}
	if i.Limit < 0 || i.Limit > maxListLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be between 1 and 200"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func (i ListInput) filter() domain.AggregateFilter {
	limit := i.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	return domain.AggregateFilter{
		Mastery: i.Mastery,
		Tag:     strings.TrimSpace(i.Tag),
		Limit:   limit,
		Offset:  i.Offset,
	}
}
