package ringmaster

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/danmuck/ringlink/internal/errkind"
)

// DefaultAcceptReply is the registrar's success token.
const DefaultAcceptReply = "OK"

var ErrInvalidRequest = errors.New("ringmaster: invalid request")

// FormatRequest renders "CONNECT <ring> <role> <pid>\n".
func FormatRequest(ring string, role Role, pid int) (string, error) {
	if err := role.validate(); err != nil {
		return "", err
	}
	if err := CheckRingName(ring); err != nil {
		return "", err
	}
	if pid <= 0 {
		return "", fmt.Errorf("%w: pid %d", ErrInvalidRequest, pid)
	}
	return fmt.Sprintf("CONNECT %s %s %d\n", ring, role.Token(), pid), nil
}

// CheckRingName rejects names that cannot travel as one request token.
func CheckRingName(ring string) error {
	if ring == "" || strings.IndexFunc(ring, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: ring name %q", ErrInvalidRequest, ring)
	}
	return nil
}

// ParseReply classifies the registrar's single reply line. Surrounding
// whitespace is ignored; matching is case sensitive. With no accept tokens
// DefaultAcceptReply is used.
func ParseReply(line string, accept ...string) error {
	if len(accept) == 0 {
		accept = []string{DefaultAcceptReply}
	}
	trimmed := strings.TrimSpace(line)
	for _, tok := range accept {
		if trimmed == tok {
			return nil
		}
	}
	return errkind.WithDetail(errkind.RegistrationRejected, "ringmaster.Register", strings.TrimRight(line, "\r\n"))
}
