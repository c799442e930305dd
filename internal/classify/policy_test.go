package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_Compiles(t *testing.T) {
	_, err := DefaultPolicy().compile()
	require.NoError(t, err)
}

func TestLoadPolicy_OverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"min_pads: 10\nbooking_keywords:\n  - mybookingwidget\n"), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 10, p.MinPads)
	assert.Equal(t, []string{"mybookingwidget"}, p.BookingKeywords)

	// Untouched fields keep the defaults.
	def := DefaultPolicy()
	assert.Equal(t, def.MaxPads, p.MaxPads)
	assert.Equal(t, def.SubpageSlugs, p.SubpageSlugs)
	assert.Equal(t, def.SubpageLimit, p.SubpageLimit)
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestExtractPadCount(t *testing.T) {
	cp, err := DefaultPolicy().compile()
	require.NoError(t, err)

	tests := []struct {
		name   string
		markup string
		want   int
	}{
		{"plain sites", "We offer 85 RV sites with full hookups", 85},
		{"pads wording", "120 pads available year round", 120},
		{"over phrasing", "over 200 sites on the river", 200},
		{"max wins across mentions", "45 sites in the old loop and 110 RV sites in the new one", 110},
		{"below range ignored", "our cozy 12 sites", 0},
		{"above range ignored", "5000 sites of storage", 0},
		{"phone number not capacity", "call 704-555-0101 today", 0},
		{"nothing", "welcome to our campground", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cp.extractPadCount(tt.markup))
		})
	}
}

func TestMatchBooking(t *testing.T) {
	cp, err := DefaultPolicy().compile()
	require.NoError(t, err)

	assert.Equal(t, "campspot", cp.matchBooking(`<a href="https://campspot.com/book">Book</a>`))
	assert.Equal(t, "Book Your Stay", cp.matchBooking("Click here to Book Your Stay tonight"))
	assert.Empty(t, cp.matchBooking("family owned since 1987"))
}
