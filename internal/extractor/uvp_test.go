package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/model"
)

func TestUVP_Extract_LeadInPhrase(t *testing.T) {
	store := &fakeStore{
		uvpOK: true,
		uvp: UVPPayload{
			Text: "Family owned since 1987. We offer duct cleaning, furnace repair and AC installation. Call today!",
		},
	}
	u := NewUVP(store, Config{})

	res, err := u.Extract(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, res.Success)

	names := candidateNames(res.Candidates)
	assert.Equal(t, []string{"duct cleaning", "furnace repair", "AC installation"}, names)
	for _, c := range res.Candidates {
		assert.Equal(t, model.SourceUVP, c.Source)
		assert.Equal(t, 0.8, c.Confidence)
		assert.True(t, c.IsService)
		assert.NotEmpty(t, c.TempID)
	}
}

func TestUVP_Extract_Segments(t *testing.T) {
	store := &fakeStore{
		uvpOK: true,
		uvp: UVPPayload{
			Text:     "The best plumbing in town.",
			Segments: []string{"Drain Cleaning", "Water Heater Installation"},
		},
	}
	u := NewUVP(store, Config{})

	res, err := u.Extract(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, 0.85, res.Candidates[0].Confidence, "explicit segments carry the highest confidence")
}

func TestUVP_Extract_PhraseConfidences(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"We provide gutter cleaning.", 0.8},
		{"Our services include roof inspection.", 0.8},
		{"Specializing in tankless water heaters.", 0.7},
		{"Experts in crawlspace encapsulation.", 0.65},
		{"Featuring seasonal tune-ups.", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			store := &fakeStore{uvpOK: true, uvp: UVPPayload{Text: tt.text}}
			res, err := NewUVP(store, Config{}).Extract(context.Background(), "t1")
			require.NoError(t, err)
			require.NotEmpty(t, res.Candidates)
			assert.Equal(t, tt.want, res.Candidates[0].Confidence)
		})
	}
}

func TestUVP_Extract_NoUVPOnFile(t *testing.T) {
	res, err := NewUVP(&fakeStore{}, Config{}).Extract(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no value proposition")
}

func TestUVP_Extract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewUVP(&fakeStore{uvpOK: true, uvp: UVPPayload{Text: "We offer x."}}, Config{}).Extract(ctx, "t1")
	require.Error(t, err)
	assert.False(t, res.Success)
}

func TestUVP_Extract_RespectsCap(t *testing.T) {
	store := &fakeStore{
		uvpOK: true,
		uvp: UVPPayload{
			Text: "We offer duct cleaning, furnace repair, AC installation, thermostat upgrades and air balancing.",
		},
	}
	res, err := NewUVP(store, Config{MaxCandidates: 2}).Extract(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 2)
}

func TestSplitList(t *testing.T) {
	items := splitList(" duct cleaning, furnace repair and AC installation.")
	assert.Equal(t, []string{"duct cleaning", "furnace repair", "AC installation"}, items)

	items = splitList("including snow removal & lawn care")
	assert.Equal(t, []string{"snow removal", "lawn care"}, items)

	assert.Empty(t, splitList(" , a ,"))
}

func candidateNames(cands []model.ExtractedCandidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Name)
	}
	return out
}
