package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectChanges_FlatFields(t *testing.T) {
	oldObj := map[string]interface{}{
		"narration":    "March retainer",
		"paymentTerms": float64(10),
	}
	newObj := map[string]interface{}{
		"narration":    "April retainer",
		"paymentTerms": float64(10),
	}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "March retainer", changes["narration"].Old)
	assert.Equal(t, "April retainer", changes["narration"].New)
}

func TestObjectChanges_IgnoresDerivedTotals(t *testing.T) {
	oldObj := map[string]interface{}{
		"total":        float64(1180),
		"totalGst":     float64(180),
		"igst":         float64(180),
		"cgst":         float64(0),
		"sgst":         float64(0),
		"grossTotal":   float64(1000),
		"taxableTotal": float64(1000),
		"createdAt":    "2026-01-01T00:00:00Z",
		"updatedAt":    "2026-01-01T00:00:00Z",
	}
	newObj := map[string]interface{}{
		"total":        float64(2360),
		"totalGst":     float64(360),
		"igst":         float64(0),
		"cgst":         float64(180),
		"sgst":         float64(180),
		"grossTotal":   float64(2000),
		"taxableTotal": float64(2000),
		"createdAt":    "2026-01-01T00:00:00Z",
		"updatedAt":    "2026-02-01T00:00:00Z",
	}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestObjectChanges_IgnoresDerivedTotalsAtAnyDepth(t *testing.T) {
	oldObj := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"description": "Consulting", "total": float64(1180)},
		},
		"totals": map[string]interface{}{"grossTotal": float64(1000)},
	}
	newObj := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"description": "Consulting", "total": float64(2360)},
		},
		"totals": map[string]interface{}{"grossTotal": float64(2000)},
	}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestObjectChanges_NumberAndStringFormCompareEqual(t *testing.T) {
	oldObj := map[string]interface{}{"paymentTerms": float64(5)}
	newObj := map[string]interface{}{"paymentTerms": "5"}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestObjectChanges_NestedMapFlattensToDottedPath(t *testing.T) {
	oldObj := map[string]interface{}{
		"address": map[string]interface{}{
			"city":    "Pune",
			"pincode": "411001",
		},
	}
	newObj := map[string]interface{}{
		"address": map[string]interface{}{
			"city":    "Mumbai",
			"pincode": "411001",
		},
	}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "Pune", changes["address.city"].Old)
	assert.Equal(t, "Mumbai", changes["address.city"].New)
}

func TestObjectChanges_SliceAddRemove(t *testing.T) {
	t.Run("added item tagged with position", func(t *testing.T) {
		oldObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"description": "Consulting", "rate": float64(1000)},
			},
		}
		newObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"description": "Consulting", "rate": float64(1000)},
				map[string]interface{}{"description": "Support", "rate": float64(500)},
			},
		}

		changes, err := ObjectChanges(oldObj, newObj)
		require.NoError(t, err)

		require.Len(t, changes, 1)
		ch, ok := changes["items.item_2 (ADDED)"]
		require.True(t, ok)
		assert.Equal(t, NotSetValue, ch.Old)
		assert.Equal(t, "Support", ch.New)
	})

	t.Run("removed item tagged with position", func(t *testing.T) {
		oldObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"description": "Consulting"},
				map[string]interface{}{"description": "Support"},
			},
		}
		newObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"description": "Consulting"},
			},
		}

		changes, err := ObjectChanges(oldObj, newObj)
		require.NoError(t, err)

		require.Len(t, changes, 1)
		ch, ok := changes["items.item_2 (REMOVED)"]
		require.True(t, ok)
		assert.Equal(t, NotSetValue, ch.New)
		assert.Equal(t, "Support", ch.Old)
	})

	t.Run("item without a description falls back to a placeholder", func(t *testing.T) {
		oldObj := map[string]interface{}{"items": []interface{}{}}
		newObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"rate": float64(500)},
			},
		}

		changes, err := ObjectChanges(oldObj, newObj)
		require.NoError(t, err)

		require.Len(t, changes, 1)
		assert.Equal(t, "N/A", changes["items.item_1 (ADDED)"].New)
	})

	t.Run("edited item diffs field by field", func(t *testing.T) {
		oldObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"description": "Consulting", "rate": float64(1000)},
			},
		}
		newObj := map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"description": "Consulting", "rate": float64(1200)},
			},
		}

		changes, err := ObjectChanges(oldObj, newObj)
		require.NoError(t, err)

		require.Len(t, changes, 1)
		assert.Equal(t, float64(1000), changes["items.item_1.rate"].Old)
		assert.Equal(t, float64(1200), changes["items.item_1.rate"].New)
	})
}

func TestObjectChanges_EmptyToValueUsesSentinel(t *testing.T) {
	oldObj := map[string]interface{}{"partner": ""}
	newObj := map[string]interface{}{"partner": "Acme Referrals"}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, NotSetValue, changes["partner"].Old)
	assert.Equal(t, "Acme Referrals", changes["partner"].New)
}

func TestObjectChanges_MissingKeyTreatedAsEmpty(t *testing.T) {
	oldObj := map[string]interface{}{}
	newObj := map[string]interface{}{"narration": ""}

	changes, err := ObjectChanges(oldObj, newObj)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestObjectChanges_StructInput(t *testing.T) {
	type doc struct {
		Name string `json:"name"`
		City string `json:"city"`
	}

	changes, err := ObjectChanges(doc{Name: "Zen Labs", City: "Pune"}, doc{Name: "Zen Labs", City: "Goa"})
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "Pune", changes["city"].Old)
	assert.Equal(t, "Goa", changes["city"].New)
}
