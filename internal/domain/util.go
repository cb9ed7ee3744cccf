package domain

import (
	"context"
	"errors"

	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func defaultLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}

	if limit > max {
		return max
	}

	return limit
}

// toUserError keeps coded errors and hides the others behind errorx.Unknown.
func toUserError(ctx context.Context, err error) error {
	var errx errorx.Error
	if errors.As(err, &errx) {
		return errx
	}

	xcontext.Logger(ctx).Errorf("Request failed: %v", err)
	return errorx.Unknown
}

// verifyOperator allows trusted callers and global admins.
func verifyOperator(ctx context.Context, verifier *common.GlobalRoleVerifier) error {
	if xcontext.IsTrustedCaller(ctx) {
		return nil
	}

	if err := verifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}
