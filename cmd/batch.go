package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

type batchFlags struct {
	branch   string
	year     int
	semester int
}

func (b *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.branch, "branch", "", "Batch branch, e.g. CS (defaults to the configured batch)")
	cmd.Flags().IntVar(&b.year, "year", 0, "Batch year")
	cmd.Flags().IntVar(&b.semester, "semester", 0, "Batch semester")
}

// resolve fills unset flags from def and validates the result
func (b *batchFlags) resolve(def models.Batch) (models.Batch, error) {
	batch := def
	if b.branch != "" {
		batch.Branch = b.branch
	}
	if b.year != 0 {
		batch.Year = b.year
	}
	if b.semester != 0 {
		batch.Semester = b.semester
	}
	return batch, batch.Validate()
}
