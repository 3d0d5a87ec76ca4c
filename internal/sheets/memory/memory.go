package memory

import (
	"context"
	"fmt"
	"sync"

	"eglise/internal/core"
	ports "eglise/internal/sheets"
)

// Store is an in-memory ArchiveWriter for development and tests.
type Store struct {
	mu       sync.Mutex
	archives map[int]Archive
}

// Archive is a captured export for one year.
type Archive struct {
	Summary       core.YearSummary
	Contributions []core.ContributionWithMember
}

var _ ports.ArchiveWriter = (*Store)(nil)

func New() *Store {
	return &Store{archives: map[int]Archive{}}
}

// WriteYearArchive stores the export and returns a synthetic reference.
// Re-exporting a year overwrites the previous capture.
func (s *Store) WriteYearArchive(_ context.Context, summary core.YearSummary, contributions []core.ContributionWithMember) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives[summary.Year] = Archive{
		Summary:       summary,
		Contributions: append([]core.ContributionWithMember(nil), contributions...),
	}
	return fmt.Sprintf("mem:%d", summary.Year), nil
}

// Archive returns the captured export for a year, if any.
func (s *Store) Archive(year int) (Archive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.archives[year]
	return a, ok
}
