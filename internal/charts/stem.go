package charts

import (
	"fmt"
	"strings"

	apperrors "emgpipe/internal/errors"
)

// Identity names the subject and scenario a workbook was recorded for.
type Identity struct {
	Subject  string
	Scenario string
}

// ParseStem splits a filename stem of the form <subject>-<scenario>.
// The stem must hold exactly one hyphen with text on both sides.
func ParseStem(stem string) (Identity, error) {
	parts := strings.Split(stem, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Identity{}, apperrors.NewValidationError(fmt.Sprintf("stem %q", stem), apperrors.ErrBadStem)
	}
	return Identity{Subject: parts[0], Scenario: parts[1]}, nil
}

// Title renders a chart title for one channel.
func (id Identity) Title(format, channel string) string {
	return fmt.Sprintf(format, id.Subject, id.Scenario, channel)
}
