package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromString(t *testing.T) {
	t.Run("known categories map to themselves", func(t *testing.T) {
		for _, c := range Categories() {
			assert.Equal(t, c, CategoryFromString(string(c)))
		}
	})

	t.Run("unknown labels fall back to other", func(t *testing.T) {
		for _, raw := range []string{"", "warranty", "INDEMNITY", "liability cap"} {
			assert.Equal(t, CategoryOther, CategoryFromString(raw), "raw=%q", raw)
		}
	})
}

func TestUniqueCategories(t *testing.T) {
	passages := []*Passage{
		{Category: CategoryTermination},
		{Category: CategoryIndemnity},
		{Category: CategoryTermination},
		nil,
		{Category: CategoryOther},
	}
	got := UniqueCategories(passages)
	assert.Equal(t, []Category{CategoryIndemnity, CategoryTermination, CategoryOther}, got)
}
