package resource

import "fmt"

// Stats is a snapshot of resource usage.
type Stats struct {
	Buffers  int
	Textures int
	Programs int

	BufferBytes  uint64
	TextureBytes uint64
	// UsedBytes counts live buffers and textures, including those pending
	// destruction.
	UsedBytes uint64
	// BudgetBytes is zero when no budget is configured.
	BudgetBytes uint64

	// PendingDestroys is the number of destroyed resources waiting for
	// their frame to retire.
	PendingDestroys int
	// Reclaimed is the total number of resources reclaimed.
	Reclaimed uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	budget := "unlimited"
	if s.BudgetBytes > 0 {
		budget = fmt.Sprintf("%d KB", s.BudgetBytes/1024)
	}
	return fmt.Sprintf("Resources[%d buffers, %d textures, %d programs, %d KB used of %s, %d pending, %d reclaimed]",
		s.Buffers, s.Textures, s.Programs, s.UsedBytes/1024, budget, s.PendingDestroys, s.Reclaimed)
}
