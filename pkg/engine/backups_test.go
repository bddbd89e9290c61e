package engine_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/e8audit/pkg/engine"
)

func testIDs(findings []engine.Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.TestID)
	}
	return ids
}

func TestRegularBackups_Describe(t *testing.T) {
	t.Parallel()

	rb := engine.RegularBackups()
	assert.Equal(t, "RB01", rb.ID())
	assert.Equal(t, "Regular Backups", rb.Name())

	first := rb.Describe()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, rb.Describe())
	assert.Equal(t,
		"Checks backup schedule, offsite/immutable copies, encryption, recent backup success, restore test results, retention, and access controls.",
		first)
}

func TestRegularBackups_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantIDs []string
	}{
		{"empty", "", []string{}},
		{"no keywords", "the quarterly report was filed on time", []string{}},
		{"recent backup", "Last backup: 2024-05-01 02:00", []string{"ML1-RB-01"}},
		{"completed", "Backup completed successfully at 03:12", []string{"ML1-RB-01"}},
		{"offsite", "copies replicated offsite nightly", []string{"ML1-RB-02"}},
		{"cloud", "cloud backup enabled", []string{"ML1-RB-02"}},
		{"restore ok", "backup restored to staging", []string{"ML1-RB-03"}},
		{"restore failed", "restore failed: checksum mismatch", []string{"ML1-RB-03"}},
		{"retention", "snapshots kept for 90 days", []string{"ML1-RB-04"}},
		{"encryption", "AES-256 at rest", []string{"ML1-RB-05"}},
		{"access", "vault is admin only", []string{"ML1-RB-06"}},
		{"multiple in order", "aes; offsite; last backup", []string{"ML1-RB-01", "ML1-RB-02", "ML1-RB-05"}},
		{"upper case", "BACKUP FAILED", []string{"ML1-RB-01"}},
		{"dotted capital I", "BACKUP FA\u0130LED", []string{}},
		{"kelvin sign", "\u212AEPT FOR 7 YEARS", []string{"ML1-RB-04"}},
		{
			"everything",
			"last backup ok, offsite copy, restore test successful, retention policy 30d, encrypted backup, restricted access",
			[]string{"ML1-RB-01", "ML1-RB-02", "ML1-RB-03", "ML1-RB-04", "ML1-RB-05", "ML1-RB-06"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := engine.RegularBackups().Evaluate(tt.text, "backup.log")
			require.NotNil(t, got)
			assert.Equal(t, tt.wantIDs, testIDs(got))
		})
	}
}

func TestRegularBackups_PassAndFailBranches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		text           string
		wantVerdict    engine.Verdict
		wantPriority   engine.Priority
		wantRecommends string
	}{
		{
			"backup pass", "last backup 2h ago",
			engine.VerdictPass, engine.PriorityHigh,
			"Ensure backups continue to run successfully on schedule.",
		},
		{
			"backup fail", "backup failed with code 5",
			engine.VerdictFail, engine.PriorityHigh,
			"Fix failed backups and verify backup scheduling.",
		},
		{
			"no recent backup", "warning: no recent backup found",
			engine.VerdictFail, engine.PriorityHigh,
			"Fix failed backups and verify backup scheduling.",
		},
		{
			"pass wins over fail", "backup failed at 01:00; last backup succeeded at 02:00",
			engine.VerdictPass, engine.PriorityHigh,
			"Ensure backups continue to run successfully on schedule.",
		},
		{
			"upper case", "BACKUP FAILED",
			engine.VerdictFail, engine.PriorityHigh,
			"Fix failed backups and verify backup scheduling.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := engine.RegularBackups().Evaluate(tt.text, "job.log")
			require.Len(t, got, 1)

			f := got[0]
			assert.Equal(t, "ML1-RB-01", f.TestID)
			assert.Equal(t, "Backups are configured and recent", f.SubStrategy)
			assert.Equal(t, engine.MaturityLevel1, f.Level)
			assert.Equal(t, tt.wantVerdict, f.Verdict)
			assert.Equal(t, tt.wantPriority, f.Priority)
			assert.Equal(t, tt.wantRecommends, f.Recommendation)
			assert.Equal(t, []string{"job.log"}, f.Evidence)
		})
	}
}

func TestRegularBackups_RestorePriorityDependsOnVerdict(t *testing.T) {
	t.Parallel()

	rb := engine.RegularBackups()

	pass := rb.Evaluate("Restore test successful", "")
	require.Len(t, pass, 1)
	assert.Equal(t, engine.VerdictPass, pass[0].Verdict)
	assert.Equal(t, engine.PriorityMedium, pass[0].Priority)

	fail := rb.Evaluate("Restore FAILED on node 3", "")
	require.Len(t, fail, 1)
	assert.Equal(t, engine.VerdictFail, fail[0].Verdict)
	assert.Equal(t, engine.PriorityHigh, fail[0].Priority)
	assert.Equal(t, "Investigate and fix restore test issues immediately.", fail[0].Recommendation)
}

func TestRegularBackups_SeveralKeywordsOneFinding(t *testing.T) {
	t.Parallel()

	got := engine.RegularBackups().Evaluate("offsite, cloud backup and immutable storage", "")
	require.Len(t, got, 1)
	assert.Equal(t, "ML1-RB-02", got[0].TestID)
}

func TestRegularBackups_EvidenceLabel(t *testing.T) {
	t.Parallel()

	rb := engine.RegularBackups()

	got := rb.Evaluate("immutable", "")
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Evidence)
	assert.Empty(t, got[0].Evidence)

	got = rb.Evaluate("immutable", "s3-export.json")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"s3-export.json"}, got[0].Evidence)
}

func TestRegularBackups_Deterministic(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("last backup offsite retention policy aes admin only ", 50)
	rb := engine.RegularBackups()
	want := rb.Evaluate(text, "a")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, rb.Evaluate(text, "a"))
		}()
	}
	wg.Wait()
}

func TestRegularBackups_ResultsAreIndependent(t *testing.T) {
	t.Parallel()

	rb := engine.RegularBackups()
	first := rb.Evaluate("last backup", "x")
	first[0].Evidence[0] = "mutated"
	first[0].Recommendation = "mutated"

	second := rb.Evaluate("last backup", "x")
	assert.Equal(t, []string{"x"}, second[0].Evidence)
	assert.Equal(t, "Ensure backups continue to run successfully on schedule.", second[0].Recommendation)
}
