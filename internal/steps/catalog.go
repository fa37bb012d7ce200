package steps

import (
	"fmt"

	"github.com/lettora/rentals-service/internal/models"
)

// Step is one entry of the fixed wizard catalog: an order index plus
// nullable pointers to the adjacent step keys. The sequence is linear
// and fixed at compile time; it is never reordered at runtime.
type Step struct {
	ID          int
	Key         models.StepKey
	NextKey     *models.StepKey
	PreviousKey *models.StepKey
}

var ordered = []models.StepKey{
	models.StepPersonalKin,
	models.StepResidentialAddress,
	models.StepEmploymentDetails,
	models.StepAdditionalDetails,
	models.StepReferees,
	models.StepDocuments,
	models.StepGuarantor,
	models.StepDeclaration,
	models.StepChecklist,
}

var (
	catalog []Step
	byKey   map[models.StepKey]Step
)

func init() {
	catalog = make([]Step, len(ordered))
	byKey = make(map[models.StepKey]Step, len(ordered))
	for i, k := range ordered {
		s := Step{ID: i + 1, Key: k}
		if i > 0 {
			s.PreviousKey = &ordered[i-1]
		}
		if i < len(ordered)-1 {
			s.NextKey = &ordered[i+1]
		}
		catalog[i] = s
		byKey[k] = s
	}
}

// Catalog returns the full ordered catalog.
func Catalog() []Step {
	out := make([]Step, len(catalog))
	copy(out, catalog)
	return out
}

func First() Step { return catalog[0] }
func Last() Step  { return catalog[len(catalog)-1] }

// Count reports the number of steps in the catalog.
func Count() int { return len(catalog) }

// ByKey resolves a step by its stable key.
func ByKey(k models.StepKey) (Step, error) {
	s, ok := byKey[k]
	if !ok {
		return Step{}, fmt.Errorf("unknown step key %q", k)
	}
	return s, nil
}

// ByID resolves a step by its 1-based order index.
func ByID(id int) (Step, error) {
	if id < 1 || id > len(catalog) {
		return Step{}, fmt.Errorf("step id %d out of range", id)
	}
	return catalog[id-1], nil
}

// IsTerminal reports whether k is the last step of the catalog.
func IsTerminal(k models.StepKey) bool {
	return k == Last().Key
}

// ResolveInitialStep places a returning applicant: with no lastStep the
// wizard starts at the first step; otherwise at the step following the
// server-reported lastStep. A lastStep at the end of the catalog clamps
// to the terminal step rather than advancing past it.
func ResolveInitialStep(lastStep *models.StepKey) (int, error) {
	if lastStep == nil {
		return First().ID, nil
	}
	s, err := ByKey(*lastStep)
	if err != nil {
		return 0, err
	}
	if s.NextKey == nil {
		return s.ID, nil
	}
	next, err := ByKey(*s.NextKey)
	if err != nil {
		return 0, err
	}
	return next.ID, nil
}

// Advance returns the id of the step after currentID. ok is false at the
// terminal step, where completion (or payment) applies instead.
func Advance(currentID int) (next int, ok bool, err error) {
	s, err := ByID(currentID)
	if err != nil {
		return 0, false, err
	}
	if s.NextKey == nil {
		return 0, false, nil
	}
	n, err := ByKey(*s.NextKey)
	if err != nil {
		return 0, false, err
	}
	return n.ID, true, nil
}

// Retreat returns the id of the step before currentID, clamped to the
// first step (the wizard never navigates before step 1).
func Retreat(currentID int) (int, error) {
	s, err := ByID(currentID)
	if err != nil {
		return 0, err
	}
	if s.PreviousKey == nil {
		return First().ID, nil
	}
	p, err := ByKey(*s.PreviousKey)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}
