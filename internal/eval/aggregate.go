package eval

import (
	"github.com/samber/lo"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/store"
)

// Mean is the arithmetic mean of the per-case scores.
func Mean(results []EvalResult) (float64, error) {
	if len(results) == 0 {
		return 0, chatErrors.ErrEmptyResults
	}
	total := lo.Sum(lo.Map(results, func(r EvalResult, _ int) float64 { return r.Score }))
	return total / float64(len(results)), nil
}

// Save overwrites path with the results as an indented JSON array.
func Save(path string, results []EvalResult) error {
	if results == nil {
		results = []EvalResult{}
	}
	if err := store.WriteJSON(path, results); err != nil {
		return chatErrors.WrapWithCategory(err, "save results", chatErrors.ErrPersistence)
	}
	return nil
}

// LoadResults reads a results file written by Save.
func LoadResults(path string) ([]EvalResult, error) {
	var results []EvalResult
	found, err := store.ReadJSON(path, &results)
	if err != nil {
		return nil, chatErrors.WrapWithCategory(err, "load results", chatErrors.ErrInvalidInput)
	}
	if !found {
		return nil, chatErrors.NotFound("results file " + path)
	}
	return results, nil
}
