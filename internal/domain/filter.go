package domain

// AggregateFilter contains filtering/pagination parameters for aggregate listings.
type AggregateFilter struct {
	Mastery MasteryFilter
	// Tag restricts results to aggregates carrying the tag. Empty means no restriction.
	Tag    string
	Limit  int
	Offset int
}

// MasteryOrAll returns the filter's mastery partition, defaulting to MasteryAll.
func (f AggregateFilter) MasteryOrAll() MasteryFilter {
	if f.Mastery == "" {
		return MasteryAll
	}
	return f.Mastery
}

// MatchesOccurrences reports whether an occurrence count falls in the filter's mastery partition.
func (f AggregateFilter) MatchesOccurrences(total int) bool {
	switch f.MasteryOrAll() {
	case MasteryMastered:
		return total >= MasteryThreshold
	case MasteryUnmastered:
		return total < MasteryThreshold
	default:
		return true
	}
}
