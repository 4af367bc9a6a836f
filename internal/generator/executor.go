package generator

import (
	"context"
	"fmt"

	"github.com/petrelhq/petrel/internal/output"
)

// Execute validates every operation, then applies them in order. Validation
// runs up front so a plan that would fail halfway is rejected before the
// first write. Applied operations are reported through the verbose channel.
func Execute(ctx context.Context, ops []Operation) error {
	for _, op := range ops {
		if err := op.Validate(ctx); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	for _, op := range ops {
		if err := op.Execute(ctx); err != nil {
			return fmt.Errorf("%s: %w", op.Description(), err)
		}
		output.Verbose(op.Description())
	}

	return nil
}
