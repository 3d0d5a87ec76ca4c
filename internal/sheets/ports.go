package sheets

import (
	"context"

	"eglise/internal/core"
)

// Ports for outbound adapters.
type (
	// ArchiveWriter exports a closed year's summary and contribution rows
	// to an external archive.
	ArchiveWriter interface {
		WriteYearArchive(ctx context.Context, summary core.YearSummary, contributions []core.ContributionWithMember) (ref string, err error)
	}
)
