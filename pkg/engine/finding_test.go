package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"low", PriorityLow, false},
		{"Medium", PriorityMedium, false},
		{"moderate", PriorityMedium, false},
		{" HIGH ", PriorityHigh, false},
		{"critical", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())
	assert.False(t, Priority("").IsValid())
}

func TestParseMaturityLevel(t *testing.T) {
	for in, want := range map[string]MaturityLevel{"ml1": MaturityLevel1, "ML2": MaturityLevel2, "3": MaturityLevel3} {
		got, err := ParseMaturityLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMaturityLevel("ML4")
	assert.Error(t, err)
	_, err = ParseMaturityLevel("")
	assert.Error(t, err)
}

func TestVerdict_IsValid(t *testing.T) {
	assert.True(t, VerdictPass.IsValid())
	assert.True(t, VerdictFail.IsValid())
	assert.False(t, Verdict("SKIP").IsValid())
}

func TestFinding_JSONKeys(t *testing.T) {
	f := Finding{
		TestID:         "ML1-RB-04",
		SubStrategy:    "Retention policy in place",
		Level:          MaturityLevel1,
		Verdict:        VerdictPass,
		Priority:       PriorityLow,
		Recommendation: "Ensure backups are retained per compliance requirements.",
		Evidence:       evidenceRefs(""),
	}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"test_id": "ML1-RB-04",
		"sub_strategy": "Retention policy in place",
		"detected_level": "ML1",
		"pass_fail": "PASS",
		"priority": "Low",
		"recommendation": "Ensure backups are retained per compliance requirements.",
		"evidence": []
	}`, string(data))
}
