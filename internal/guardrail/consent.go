package guardrail

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiont/spendsense/internal/common"
)

// ConsentChecker reports whether a user has granted data-processing consent.
type ConsentChecker interface {
	Consent(ctx context.Context, userID string) (bool, error)
}

// CheckConsent returns true only for an explicit grant. Unknown users are
// treated as not consenting.
func CheckConsent(ctx context.Context, checker ConsentChecker, userID string) (bool, error) {
	granted, err := checker.Consent(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check consent for user: %w", err)
	}
	return granted, nil
}
