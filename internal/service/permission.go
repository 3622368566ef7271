package service

import (
	"context"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

// PermissionValidator computes what an actor may grant for a recording
// and checks requested grants against it. Pure reads, no side effects.
type PermissionValidator struct {
	ledger AccessLedger
}

func NewPermissionValidator(ledger AccessLedger) *PermissionValidator {
	return &PermissionValidator{ledger: ledger}
}

// MaxGrantable returns the ceiling of what actor may grant. The owner
// grants anything. A non-owner grants exactly the flags on their own
// edge, not a reduced subset: permissions do not attenuate across
// re-share hops. No edge means nothing is grantable.
func (v *PermissionValidator) MaxGrantable(ctx context.Context, rec *model.Recording, actorID string) (model.Perms, error) {
	if actorID == rec.OwnerID {
		return model.Perms{CanEdit: true, CanReshare: true}, nil
	}
	edge, err := v.ledger.GetShareByRecipient(ctx, rec.ID, actorID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.Perms{}, nil
		}
		return model.Perms{}, err
	}
	return model.Perms{CanEdit: edge.CanEdit, CanReshare: edge.CanReshare}, nil
}

// Validate rejects a requested grant that exceeds the actor's own
// permissions, naming the specific flag that was denied. Actors with
// no access at all may not grant anything.
func (v *PermissionValidator) Validate(ctx context.Context, rec *model.Recording, actorID string, requested model.Perms) error {
	if actorID == rec.OwnerID {
		return nil
	}
	edge, err := v.ledger.GetShareByRecipient(ctx, rec.ID, actorID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrForbidden
		}
		return err
	}
	if requested.CanEdit && !edge.CanEdit {
		return appErr.NewValidationError("can_edit", "cannot grant edit: no edit access")
	}
	if requested.CanReshare && !edge.CanReshare {
		return appErr.NewValidationError("can_reshare", "cannot grant reshare: no reshare access")
	}
	return nil
}
