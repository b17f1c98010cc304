package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyword_BlankInputYieldsNothing(t *testing.T) {
	k := NewKeyword(time.Hour)
	for _, in := range []string{"", "   ", "\n\t"} {
		res, err := k.Summarize(context.Background(), in)
		require.NoError(t, err)
		assert.Nil(t, res)
	}
}

func TestKeyword_BilingualNote(t *testing.T) {
	k := NewKeyword(0)
	res, err := k.Summarize(context.Background(),
		"Commercial property, good location, wide road access. दस्तावेज़ सत्यापित किए गए हैं। Valuation around 90 lakh.")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t,
		"Property is in good condition with favorable location characteristics. "+
			"Property valuation is in the lakh range. "+
			"All documentation has been verified and appears to be in order.",
		res.Summary)
	assert.Equal(t, []string{
		"Commercial property, good location, wide road access",
		"दस्तावेज़ सत्यापित किए गए हैं",
		"Valuation around 90 lakh",
	}, res.KeyPoints)
}

func TestKeyword_SummarySentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "average crore unverified documents",
			text: "Property is average. Asking 1.2 crore. Document copies pending",
			want: "Property is in average condition with some concerns noted. " +
				"Property valuation is in the crore range, indicating premium segment. " +
				"Documentation requires further verification.",
		},
		{
			name: "hindi property word only",
			text: "प्रॉपर्टी पुरानी है",
			want: "Property condition requires further assessment.",
		},
		{
			name: "no property mention",
			text: "Old construction but well maintained. Owner has all documents verified.",
			want: genericSummary,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewKeyword(0).Summarize(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Summary)
		})
	}
}

func TestKeyPoints_CapsAtFour(t *testing.T) {
	points := KeyPoints("One. Two।Three. . Four. Five. Six.")
	assert.Equal(t, []string{"One", "Two", "Three", "Four"}, points)
}

func TestKeyword_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewKeyword(time.Hour).Summarize(ctx, "property notes")
	assert.ErrorIs(t, err, context.Canceled)
}
