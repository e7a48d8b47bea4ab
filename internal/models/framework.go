package models

import "fmt"

// Framework identifies a regulatory or compliance standard a finding may
// relate to.
type Framework string

// Supported compliance frameworks.
const (
	FrameworkGDPR     Framework = "gdpr"
	FrameworkSOC2     Framework = "soc2"
	FrameworkHIPAA    Framework = "hipaa"
	FrameworkPCIDSS   Framework = "pci_dss"
	FrameworkISO27001 Framework = "iso_27001"
)

// Frameworks returns all supported compliance frameworks.
func Frameworks() []Framework {
	return []Framework{
		FrameworkGDPR,
		FrameworkSOC2,
		FrameworkHIPAA,
		FrameworkPCIDSS,
		FrameworkISO27001,
	}
}

// IsValid reports whether f is a supported framework.
func (f Framework) IsValid() bool {
	switch f {
	case FrameworkGDPR, FrameworkSOC2, FrameworkHIPAA, FrameworkPCIDSS, FrameworkISO27001:
		return true
	default:
		return false
	}
}

// ParseFramework converts a lowercase wire tag into a Framework.
func ParseFramework(tag string) (Framework, error) {
	f := Framework(tag)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown compliance framework %q", tag)
	}
	return f, nil
}
