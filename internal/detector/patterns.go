package detector

import (
	"fmt"

	"github.com/complyops/sentinel/internal/models"
)

// Patterns holds every detector's matching rules. The tables ship with
// compiled-in defaults and can be overridden wholesale from YAML so they can
// be tuned without touching detector code.
type Patterns struct {
	Diff     DiffPatterns `yaml:"diff"`
	Chat     ChatPatterns `yaml:"chat"`
	Document DocPatterns  `yaml:"document"`
}

// DiffPatterns configures the code-review detector.
type DiffPatterns struct {
	// FrameworkKeywords maps a compliance framework to the terms whose
	// appearance in added lines suggests relevance to it.
	FrameworkKeywords map[models.Framework][]string `yaml:"framework_keywords"`
	// HighRiskPaths flags any changed file whose path contains one of these
	// fragments.
	HighRiskPaths []string `yaml:"high_risk_paths"`
	// CriticalTerms and HighTerms escalate keyword severity; everything else
	// is medium.
	CriticalTerms []string `yaml:"critical_terms"`
	HighTerms     []string `yaml:"high_terms"`
}

// SeverityFor returns the severity assigned to a matched keyword.
func (p DiffPatterns) SeverityFor(keyword string) models.Severity {
	for _, term := range p.CriticalTerms {
		if term == keyword {
			return models.SeverityCritical
		}
	}
	for _, term := range p.HighTerms {
		if term == keyword {
			return models.SeverityHigh
		}
	}
	return models.SeverityMedium
}

// ChatPattern is one named group of policy-relevant conversation keywords.
type ChatPattern struct {
	Keywords   []string           `yaml:"keywords"`
	Frameworks []models.Framework `yaml:"frameworks"`
	Severity   models.Severity    `yaml:"severity"`
}

// ChatPatterns maps pattern names to their keyword groups.
type ChatPatterns map[string]ChatPattern

// OutdatedPattern describes a phrase that signals outdated compliance
// language, with the replacement to suggest and the reason it matters.
type OutdatedPattern struct {
	Phrase      string             `yaml:"phrase"`
	Replacement string             `yaml:"replacement"`
	Reason      string             `yaml:"reason"`
	Frameworks  []models.Framework `yaml:"frameworks"`
	Severity    models.Severity    `yaml:"severity"`
}

// DocPatterns configures the document detector.
type DocPatterns struct {
	// Outdated maps pattern names to outdated-language rules.
	Outdated map[string]OutdatedPattern `yaml:"outdated"`
	// StalenessDays maps a document type (matched against the title) to the
	// review window in days; older documents are flagged.
	StalenessDays map[string]int `yaml:"staleness_days"`
}

// Validate checks that every table entry references known severities and
// frameworks.
func (p *Patterns) Validate() error {
	for fw := range p.Diff.FrameworkKeywords {
		if !fw.IsValid() {
			return fmt.Errorf("diff patterns: unknown framework %q", fw)
		}
	}
	for name, cp := range p.Chat {
		if !cp.Severity.IsValid() {
			return fmt.Errorf("chat pattern %q: unknown severity %q", name, cp.Severity)
		}
		for _, fw := range cp.Frameworks {
			if !fw.IsValid() {
				return fmt.Errorf("chat pattern %q: unknown framework %q", name, fw)
			}
		}
		if len(cp.Keywords) == 0 {
			return fmt.Errorf("chat pattern %q: no keywords", name)
		}
	}
	for name, op := range p.Document.Outdated {
		if op.Phrase == "" {
			return fmt.Errorf("document pattern %q: empty phrase", name)
		}
		if !op.Severity.IsValid() {
			return fmt.Errorf("document pattern %q: unknown severity %q", name, op.Severity)
		}
		for _, fw := range op.Frameworks {
			if !fw.IsValid() {
				return fmt.Errorf("document pattern %q: unknown framework %q", name, fw)
			}
		}
	}
	for docType, days := range p.Document.StalenessDays {
		if days <= 0 {
			return fmt.Errorf("staleness window for %q must be positive, got %d", docType, days)
		}
	}
	return nil
}

// DefaultPatterns returns the stock matching rules.
func DefaultPatterns() Patterns {
	return Patterns{
		Diff: DiffPatterns{
			FrameworkKeywords: map[models.Framework][]string{
				models.FrameworkGDPR: {
					"personal_data", "user_email", "ip_address", "cookie",
					"consent", "data_retention", "right_to_delete", "gdpr",
					"data_processing", "privacy_policy",
				},
				models.FrameworkHIPAA: {
					"patient", "medical_record", "health_data", "phi",
					"hipaa", "diagnosis", "treatment", "prescription",
					"ssn", "social_security",
				},
				models.FrameworkSOC2: {
					"access_control", "audit_log", "encryption",
					"password", "api_key", "secret", "credential",
					"authentication", "authorization", "mfa",
				},
				models.FrameworkPCIDSS: {
					"credit_card", "card_number", "cvv", "payment",
					"cardholder", "pci", "stripe_key", "payment_token",
				},
			},
			HighRiskPaths: []string{
				"auth/", "security/", "encryption/", "privacy/",
				".env", "config/secrets", "middleware/auth",
			},
			CriticalTerms: []string{
				"ssn", "social_security", "credit_card", "card_number", "api_key", "secret",
			},
			HighTerms: []string{
				"password", "credential", "patient", "phi", "personal_data",
			},
		},
		Chat: ChatPatterns{
			"data_sharing": {
				Keywords:   []string{"share data with", "send to third party", "export user data", "data transfer"},
				Frameworks: []models.Framework{models.FrameworkGDPR, models.FrameworkSOC2},
				Severity:   models.SeverityHigh,
			},
			"access_bypass": {
				Keywords:   []string{"skip auth", "bypass security", "shared password", "use my credentials"},
				Frameworks: []models.Framework{models.FrameworkSOC2},
				Severity:   models.SeverityCritical,
			},
			"patient_info": {
				Keywords:   []string{"patient name", "diagnosis", "medical record", "health info"},
				Frameworks: []models.Framework{models.FrameworkHIPAA},
				Severity:   models.SeverityCritical,
			},
			"payment_data": {
				Keywords:   []string{"credit card", "card number", "payment details", "billing info"},
				Frameworks: []models.Framework{models.FrameworkPCIDSS},
				Severity:   models.SeverityCritical,
			},
			"retention_policy": {
				Keywords:   []string{"delete old data", "keep forever", "retention period", "data cleanup"},
				Frameworks: []models.Framework{models.FrameworkGDPR},
				Severity:   models.SeverityMedium,
			},
			"consent_discussion": {
				Keywords:   []string{"user consent", "opt-in", "opt-out", "privacy notice", "cookie banner"},
				Frameworks: []models.Framework{models.FrameworkGDPR},
				Severity:   models.SeverityMedium,
			},
		},
		Document: DocPatterns{
			Outdated: map[string]OutdatedPattern{
				"safe_harbor": {
					Phrase:      "safe harbor",
					Replacement: "EU-US Data Privacy Framework",
					Reason:      "Safe Harbor was invalidated by Schrems I (2015). Use Data Privacy Framework.",
					Frameworks:  []models.Framework{models.FrameworkGDPR},
					Severity:    models.SeverityHigh,
				},
				"privacy_shield": {
					Phrase:      "privacy shield",
					Replacement: "EU-US Data Privacy Framework",
					Reason:      "Privacy Shield was invalidated by Schrems II (2020). Use Data Privacy Framework.",
					Frameworks:  []models.Framework{models.FrameworkGDPR},
					Severity:    models.SeverityHigh,
				},
				"implied_consent": {
					Phrase:      "implied consent",
					Replacement: "explicit consent",
					Reason:      "GDPR requires explicit, informed consent. Implied consent is insufficient.",
					Frameworks:  []models.Framework{models.FrameworkGDPR},
					Severity:    models.SeverityMedium,
				},
				"reasonable_security": {
					Phrase:      "reasonable security measures",
					Replacement: "specific security controls (encryption, access controls, audit logging)",
					Reason:      "Vague security language doesn't meet SOC2/HIPAA specificity requirements.",
					Frameworks:  []models.Framework{models.FrameworkSOC2, models.FrameworkHIPAA},
					Severity:    models.SeverityMedium,
				},
				"hipaa_old_breach": {
					Phrase:      "notify within 60 days",
					Replacement: "notify without unreasonable delay, no later than 60 days",
					Reason:      "HIPAA breach notification must emphasize 'without unreasonable delay'.",
					Frameworks:  []models.Framework{models.FrameworkHIPAA},
					Severity:    models.SeverityLow,
				},
			},
			StalenessDays: map[string]int{
				"privacy_policy":         365,
				"security_policy":        180,
				"compliance_report":      90,
				"incident_response_plan": 365,
			},
		},
	}
}
