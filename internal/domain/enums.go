package domain

// Category classifies a structure aggregate.
type Category string

const (
	CategorySentenceStructure Category = "sentence_structure"
	CategoryGrammarPoint      Category = "grammar_point"
	CategoryAnalysisPoint     Category = "analysis_point"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategorySentenceStructure, CategoryGrammarPoint, CategoryAnalysisPoint:
		return true
	}
	return false
}

// Difficulty is derived from the length of a structure label.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) String() string { return string(d) }

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Collection names one of the two aggregate collections.
type Collection string

const (
	CollectionVocabulary Collection = "vocabulary_integrated"
	CollectionStructures Collection = "sentence_structures_integrated"
)

func (c Collection) String() string { return string(c) }

func (c Collection) IsValid() bool {
	switch c {
	case CollectionVocabulary, CollectionStructures:
		return true
	}
	return false
}

// MasteryFilter selects a partition of an aggregate collection.
type MasteryFilter string

const (
	MasteryAll        MasteryFilter = "all"
	MasteryMastered   MasteryFilter = "mastered"
	MasteryUnmastered MasteryFilter = "unmastered"
)

func (m MasteryFilter) String() string { return string(m) }

func (m MasteryFilter) IsValid() bool {
	switch m {
	case MasteryAll, MasteryMastered, MasteryUnmastered:
		return true
	}
	return false
}

// PlanType selects which pools a smart learning plan draws from.
type PlanType string

const (
	PlanTypeMixed  PlanType = "mixed"
	PlanTypeNew    PlanType = "new"
	PlanTypeReview PlanType = "review"
)

func (p PlanType) String() string { return string(p) }

func (p PlanType) IsValid() bool {
	switch p {
	case PlanTypeMixed, PlanTypeNew, PlanTypeReview:
		return true
	}
	return false
}

// JobKind identifies a resumable maintenance job.
type JobKind string

const (
	JobKindRebuild JobKind = "rebuild"
	JobKindRepair  JobKind = "repair"
)

func (k JobKind) String() string { return string(k) }

// JobStatus is the lifecycle state of a maintenance job.
type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

func (s JobStatus) String() string { return string(s) }

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusRunning, JobStatusDone, JobStatusFailed:
		return true
	}
	return false
}
