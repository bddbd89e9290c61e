package engine

// RegularBackups covers the Essential Eight "Regular Backups" strategy.
// It looks for evidence in backup logs, configuration exports and restore
// test results that backups are configured, working and tested.
func RegularBackups() *Rulebook {
	return regularBackups
}

var regularBackups = MustNewRulebook(
	"RB01",
	"Regular Backups",
	"Checks backup schedule, offsite/immutable copies, encryption, "+
		"recent backup success, restore test results, retention, and access controls.",
	[]Check{
		{
			ID:    "ML1-RB-01",
			Label: "Backups are configured and recent",
			Level: MaturityLevel1,
			Pass: Branch{
				When:           Keywords("backup completed successfully", "last backup"),
				Priority:       PriorityHigh,
				Recommendation: "Ensure backups continue to run successfully on schedule.",
			},
			Fail: &Branch{
				When:           Keywords("backup failed", "no recent backup"),
				Priority:       PriorityHigh,
				Recommendation: "Fix failed backups and verify backup scheduling.",
			},
		},
		{
			ID:    "ML1-RB-02",
			Label: "Backups stored offsite/immutable",
			Level: MaturityLevel1,
			Pass: Branch{
				When:           Keywords("offsite", "cloud backup", "immutable"),
				Priority:       PriorityMedium,
				Recommendation: "Maintain offsite/immutable copies to prevent ransomware impact.",
			},
		},
		{
			ID:    "ML1-RB-03",
			Label: "Restore process tested",
			Level: MaturityLevel1,
			Pass: Branch{
				When:           Keywords("restore test successful", "backup restored"),
				Priority:       PriorityMedium,
				Recommendation: "Regularly test restoring backups to validate integrity.",
			},
			Fail: &Branch{
				When:           Keywords("restore failed"),
				Priority:       PriorityHigh,
				Recommendation: "Investigate and fix restore test issues immediately.",
			},
		},
		{
			ID:    "ML1-RB-04",
			Label: "Retention policy in place",
			Level: MaturityLevel1,
			Pass: Branch{
				When:           Keywords("retention policy", "kept for"),
				Priority:       PriorityLow,
				Recommendation: "Ensure backups are retained per compliance requirements.",
			},
		},
		{
			ID:    "ML1-RB-05",
			Label: "Backups encrypted",
			Level: MaturityLevel1,
			Pass: Branch{
				// Plain substrings: "conversation" matches "rsa".
				When:           Keywords("encrypted backup", "aes", "rsa"),
				Priority:       PriorityHigh,
				Recommendation: "Use strong encryption to protect backup data.",
			},
		},
		{
			ID:    "ML1-RB-06",
			Label: "Backups access controlled",
			Level: MaturityLevel1,
			Pass: Branch{
				When:           Keywords("restricted access", "admin only"),
				Priority:       PriorityMedium,
				Recommendation: "Restrict access to backups only to authorized personnel.",
			},
		},
	},
)
