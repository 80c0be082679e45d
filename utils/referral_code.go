package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateReferralCode builds a structured, unique ambassador code, e.g.
// "5SA-P-3F2A91BC" for a parent. The role prefix keeps codes readable on
// printed material; the uuid fragment keeps them unguessable.
func GenerateReferralCode(role string) string {
	prefix := "O"
	if role != "" {
		prefix = strings.ToUpper(role[:1])
	}
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("5SA-%s-%s", prefix, fragment)
}
