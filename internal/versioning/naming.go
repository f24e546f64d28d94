// Package versioning defines the version-naming policy for documents.
package versioning

import (
	"fmt"
	"strings"
)

// Role describes what a document version is: the untouched original upload,
// or an AI customization targeted at a specific company.
type Role string

const (
	RoleOriginal      Role = "original"
	RoleCustomization Role = "customization"
)

// OriginalLabel is the label of every document's original version. It is a
// fixed identity, not a counter: no matter how many versions a document has,
// the original is always "v1".
const OriginalLabel = "v1"

// customizationPrefix is the fixed numeral for customized variants.
// Customizations are a class of second-tier version distinguished by the
// company suffix, not a monotonically increasing sequence.
const customizationPrefix = "v2"

// ErrCompanyRequired is returned when a customization label is requested
// without a target company.
type ErrCompanyRequired struct{}

func (e *ErrCompanyRequired) Error() string {
	return "customization requires a target company"
}

// Name returns the label for a new version. Originals are always "v1".
// Customizations are "v2 - {company}"; the company is required and trimmed.
func Name(role Role, company string) (string, error) {
	switch role {
	case RoleOriginal:
		return OriginalLabel, nil
	case RoleCustomization:
		company = strings.TrimSpace(company)
		if company == "" {
			return "", &ErrCompanyRequired{}
		}
		return fmt.Sprintf("%s - %s", customizationPrefix, company), nil
	default:
		return "", fmt.Errorf("unknown version role: %q", role)
	}
}

// CustomizationLabel is a convenience wrapper for the common case.
func CustomizationLabel(company string) (string, error) {
	return Name(RoleCustomization, company)
}
