package migrate

import (
	"errors"
	"fmt"
	"log/slog"
)

// StepResult итог одного шага миграции.
type StepResult struct {
	Name    string
	Changed bool
}

// Report описывает, что сделала миграция.
type Report struct {
	Steps    []StepResult
	Legacy   bool
	Repaired bool
}

// Changed reports whether any step modified the document.
func (r *Report) Changed() bool {
	for _, s := range r.Steps {
		if s.Changed {
			return true
		}
	}
	return false
}

// Migrate runs every step on a copy of raw and returns the current shape.
// Steps are idempotent, so current data passes through unchanged.
func Migrate(raw Document) (Document, *Report, error) {
	doc := raw.Clone()
	report := &Report{Legacy: IsLegacy(raw)}

	if err := run(doc, report); err != nil {
		return nil, report, err
	}
	return doc, report, nil
}

func run(doc Document, report *Report) error {
	for _, step := range Steps() {
		changed, err := step.Run(doc)
		if err != nil {
			return fmt.Errorf("migration step %s: %w", step.Name, err)
		}
		report.Steps = append(report.Steps, StepResult{Name: step.Name, Changed: changed})
	}
	return nil
}

// MigrateAndValidate migrates raw and validates the result. A document that
// fails validation is repaired and migrated once more; if it still fails the
// *DataValidationFailedError is returned and nothing should be imported.
func MigrateAndValidate(raw Document, logger *slog.Logger) (Document, *Report, error) {
	doc, report, err := Migrate(raw)
	if err != nil {
		return nil, report, err
	}

	err = Validate(doc)
	if err == nil {
		return doc, report, nil
	}

	var vErr *DataValidationFailedError
	if !errors.As(err, &vErr) {
		return nil, report, err
	}

	logger.Warn("Imported data failed validation, repairing",
		"issues", len(vErr.Issues),
		"first_issue", vErr.Issues[0])

	repair(doc)
	report.Repaired = true
	if err := run(doc, report); err != nil {
		return nil, report, err
	}

	if err := Validate(doc); err != nil {
		return nil, report, err
	}
	return doc, report, nil
}
