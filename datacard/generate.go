package datacard

import (
	"fmt"

	"github.com/c360studio/hggcard/analysis"
	"github.com/c360studio/hggcard/systematics"
	"github.com/c360studio/hggcard/yields"
)

// Generate builds the card for setup.
func Generate(setup *analysis.Setup, set *systematics.Set, src yields.Source, opts Options) (*Card, error) {
	card, err := NewBuilder(setup, set, src, opts).Build()
	if err != nil {
		return nil, fmt.Errorf("build datacard: %w", err)
	}
	return card, nil
}
