package importer

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

// Validate checks a RecordFile the same way the records endpoint does, and
// additionally rejects vocabulary rows without a word.
func Validate(f RecordFile) error {
	if err := f.submitInput().Validate(); err != nil {
		return err
	}
	for i, s := range f.Sentences {
		for j, v := range s.Vocabulary {
			if strings.TrimSpace(v.Word) == "" {
				return domain.NewValidationError(
					fmt.Sprintf("sentences[%d].vocabulary[%d].word", i, j), "required")
			}
		}
	}
	return nil
}
