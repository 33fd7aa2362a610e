package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"station-dashboard-backend/internal/model"
)

func TestDerive(t *testing.T) {
	t.Run("single id is primary with no link", func(t *testing.T) {
		got := Derive([]string{"Platform 5"})
		assert.Equal(t, model.Pairing{IsPrimary: true}, got["Platform 5"])
	})

	t.Run("two ids link to each other, first is primary", func(t *testing.T) {
		got := Derive([]string{"Platform 1", "Platform 3"})
		assert.Equal(t, model.Pairing{LinkedResourceID: "Platform 3", IsPrimary: true}, got["Platform 1"])
		assert.Equal(t, model.Pairing{LinkedResourceID: "Platform 1", IsPrimary: false}, got["Platform 3"])
	})

	t.Run("more than two ids each link to another id in the set", func(t *testing.T) {
		ids := []string{"Track 1", "Track 2", "Track 3"}
		got := Derive(ids)
		assert.True(t, got["Track 1"].IsPrimary)
		for _, id := range ids {
			p := got[id]
			assert.NotEqual(t, id, p.LinkedResourceID)
			assert.Contains(t, ids, p.LinkedResourceID)
			if id != "Track 1" {
				assert.False(t, p.IsPrimary)
			}
		}
	})

	t.Run("empty input yields empty map", func(t *testing.T) {
		assert.Empty(t, Derive(nil))
	})
}
