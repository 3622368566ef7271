package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
)

func newShareFixture(t *testing.T) (*ShareService, *fakeLedger, *fakeAudit) {
	t.Helper()
	ledger := newFakeLedger()
	audit := &fakeAudit{}
	registry := newFakeRegistry(model.Recording{ID: "rec-1", OwnerID: "owner", Title: "standup", Ctime: 1000})
	users := &fakeUsers{users: map[string]model.User{
		"owner": {ID: "owner", Email: "owner@example.com", DisplayName: "Owner"},
		"a":     {ID: "a", Email: "a@example.com", DisplayName: "Alice"},
		"b":     {ID: "b", Email: "b@example.com", DisplayName: "Bob"},
	}}
	return NewShareService(ledger, registry, users, audit, audit), ledger, audit
}

func TestGrant(t *testing.T) {
	svc, ledger, audit := newShareFixture(t)
	ctx := context.Background()

	share, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)
	require.Equal(t, "owner", share.GrantorID)
	require.Equal(t, "a", share.RecipientID)
	require.Equal(t, model.ShareSourceManual, share.SourceType)

	// overlay created with inbox set
	overlay, err := ledger.GetOverlay(ctx, "rec-1", "a")
	require.NoError(t, err)
	require.True(t, overlay.IsInbox)

	created := audit.byAction(model.AuditActionCreated)
	require.Len(t, created, 1)
	require.Equal(t, "owner", created[0].ActorID)
	require.Equal(t, "a", created[0].TargetUserID)
	require.True(t, created[0].ActorCanEdit)
	require.True(t, created[0].ActorCanReshare)
}

func TestGrantErrors(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	t.Run("unknown recording", func(t *testing.T) {
		_, err := svc.Grant(ctx, GrantInput{RecordingID: "nope", ActorID: "owner", RecipientID: "a"})
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})

	t.Run("share with self", func(t *testing.T) {
		_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "a"})
		require.ErrorIs(t, err, appErr.ErrSelfShare)
	})

	t.Run("share with owner", func(t *testing.T) {
		_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "owner"})
		require.ErrorIs(t, err, appErr.ErrSelfShare)
	})

	t.Run("actor without access", func(t *testing.T) {
		_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "stranger", RecipientID: "b"})
		require.ErrorIs(t, err, appErr.ErrForbidden)
	})
}

func TestGrantDuplicateRecipient(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a"})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a"})
	require.ErrorIs(t, err, appErr.ErrAlreadyShared)
}

// Concurrent grants for the same recipient must resolve to exactly one
// edge; every loser sees the benign already-shared outcome.
func TestGrantConcurrentUniqueness(t *testing.T) {
	svc, ledger, _ := newShareFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a"})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, appErr.ErrAlreadyShared)
		}
	}
	require.Equal(t, 1, winners)

	shares, err := ledger.ListShares(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, shares, 1)
}

func TestGrantAuditFailureDoesNotFailGrant(t *testing.T) {
	svc, ledger, audit := newShareFixture(t)
	audit.fail = errors.New("audit store down")
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a"})
	require.NoError(t, err)
	shares, err := ledger.ListShares(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, shares, 1)
}

// A failed actor-permission read while snapshotting for the audit
// trail must not fail the grant itself; the entry gets a zero snapshot.
func TestGrantAuditSnapshotReadFailureTolerated(t *testing.T) {
	svc, ledger, audit := newShareFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)

	// validation and the duplicate pre-check read the ledger first;
	// only the post-commit snapshot read fails
	ledger.armReadErr(2, errors.New("read timeout"))
	share, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "b"})
	require.NoError(t, err)
	require.Equal(t, "a", share.GrantorID)

	created := audit.byAction(model.AuditActionCreated)
	require.Len(t, created, 2)
	require.False(t, created[1].ActorCanEdit)
	require.False(t, created[1].ActorCanReshare)
}

func TestListAudit(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	share, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true})
	require.NoError(t, err)
	_, err = svc.Revoke(ctx, "rec-1", share.ID, "owner", "")
	require.NoError(t, err)

	entries, err := svc.ListAudit(ctx, "rec-1", "owner", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, model.AuditActionRevoked, entries[0].Action)
	require.Equal(t, model.AuditActionCreated, entries[1].Action)

	_, err = svc.ListAudit(ctx, "rec-1", "a", 10, 0)
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

// Bounded delegation end to end: holders re-share what they hold and
// nothing more.
func TestGrantDelegationChain(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	// owner -> a with full rights
	_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)

	// a -> b view-only is fine
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "b"})
	require.NoError(t, err)

	// b holds no reshare flag, so granting reshare onward is denied
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "b", RecipientID: "c", CanReshare: true})
	ve, ok := appErr.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "can_reshare", ve.Field)

	// but b may still pass along plain view access
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "b", RecipientID: "c"})
	require.NoError(t, err)
}

func TestModify(t *testing.T) {
	svc, _, audit := newShareFixture(t)
	ctx := context.Background()

	share, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true})
	require.NoError(t, err)

	updated, err := svc.Modify(ctx, ModifyInput{RecordingID: "rec-1", ShareID: share.ID, ActorID: "owner", CanEdit: true, CanReshare: true})
	require.NoError(t, err)
	require.True(t, updated.CanReshare)
	require.Len(t, audit.byAction(model.AuditActionModified), 1)

	_, err = svc.Modify(ctx, ModifyInput{RecordingID: "rec-1", ShareID: share.ID, ActorID: "a"})
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestRevokeCascadeSingleLevel(t *testing.T) {
	svc, ledger, audit := newShareFixture(t)
	ctx := context.Background()

	// owner -> a (reshare), a -> b
	shareA, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "b"})
	require.NoError(t, err)

	result, err := svc.Revoke(ctx, "rec-1", shareA.ID, "owner", "")
	require.NoError(t, err)
	require.True(t, result.PrimaryRevoked)
	require.Equal(t, 1, result.CascadeRevokedCount)

	shares, err := ledger.ListShares(ctx, "rec-1")
	require.NoError(t, err)
	require.Empty(t, shares)

	require.Len(t, audit.byAction(model.AuditActionRevoked), 1)
	cascaded := audit.byAction(model.AuditActionCascadeRevoked)
	require.Len(t, cascaded, 1)
	require.Equal(t, "b", cascaded[0].TargetUserID)
	require.Contains(t, cascaded[0].Notes, shareA.ID)
}

func TestRevokeAuthorization(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	shareA, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)
	shareB, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "b"})
	require.NoError(t, err)

	// b is neither owner nor grantor of a's edge
	_, err = svc.Revoke(ctx, "rec-1", shareA.ID, "b", "")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	// a may revoke the edge a created
	result, err := svc.Revoke(ctx, "rec-1", shareB.ID, "a", "")
	require.NoError(t, err)
	require.True(t, result.PrimaryRevoked)

	// owner may revoke anything
	result, err = svc.Revoke(ctx, "rec-1", shareA.ID, "owner", "")
	require.NoError(t, err)
	require.True(t, result.PrimaryRevoked)
}

// An alternate edge from a different grantor protects the downstream
// recipient from the cascade. Under the uniqueness index this only
// happens in a concurrent window, which the fake reproduces directly.
func TestRevokeCascadeAlternatePathPreserved(t *testing.T) {
	svc, ledger, _ := newShareFixture(t)
	ctx := context.Background()

	shareA, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "b"})
	require.NoError(t, err)

	// concurrent grant slips a second edge to b in from the owner
	ledger.inject(model.Share{ID: "race-edge", RecordingID: "rec-1", GrantorID: "owner", RecipientID: "b"})

	result, err := svc.Revoke(ctx, "rec-1", shareA.ID, "owner", "")
	require.NoError(t, err)
	require.True(t, result.PrimaryRevoked)
	require.Equal(t, 0, result.CascadeRevokedCount)

	// b keeps access; only the owner->a edge is gone
	_, err = ledger.GetShareByRecipient(ctx, "rec-1", "b")
	require.NoError(t, err)
	shares, err := ledger.ListShares(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, shares, 2)
}

// Sequential replacement per the uniqueness invariant: b's edge from a
// is revoked, the owner re-grants, and revoking owner->a later finds
// nothing downstream to cascade onto.
func TestRevokeAfterSequentialReplacement(t *testing.T) {
	svc, ledger, _ := newShareFixture(t)
	ctx := context.Background()

	shareA, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true, CanReshare: true})
	require.NoError(t, err)
	shareB, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "a", RecipientID: "b"})
	require.NoError(t, err)

	_, err = svc.Revoke(ctx, "rec-1", shareB.ID, "a", "")
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "b"})
	require.NoError(t, err)

	result, err := svc.Revoke(ctx, "rec-1", shareA.ID, "owner", "")
	require.NoError(t, err)
	require.Equal(t, 0, result.CascadeRevokedCount)

	edge, err := ledger.GetShareByRecipient(ctx, "rec-1", "b")
	require.NoError(t, err)
	require.Equal(t, "owner", edge.GrantorID)
}

func TestListSharesIncludesOwnerEntry(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a", CanEdit: true})
	require.NoError(t, err)

	entries, err := svc.ListShares(ctx, "rec-1", "owner")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].IsOwner)
	require.True(t, entries[0].CanEdit)
	require.True(t, entries[0].CanReshare)
	require.Equal(t, "Owner", entries[0].DisplayName)
	require.False(t, entries[1].IsOwner)
	require.Equal(t, "Alice", entries[1].DisplayName)

	// recipients can list too, strangers cannot
	_, err = svc.ListShares(ctx, "rec-1", "a")
	require.NoError(t, err)
	_, err = svc.ListShares(ctx, "rec-1", "stranger")
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestOverlaySurvivesRevokeAndRegrant(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	share, err := svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a"})
	require.NoError(t, err)

	highlighted := true
	notInbox := false
	notes := "follow up on minute 12"
	_, err = svc.SetOverlay(ctx, "rec-1", "a", OverlayPatch{IsHighlighted: &highlighted, IsInbox: &notInbox, PersonalNotes: &notes})
	require.NoError(t, err)

	_, err = svc.Revoke(ctx, "rec-1", share.ID, "owner", "")
	require.NoError(t, err)

	_, err = svc.Grant(ctx, GrantInput{RecordingID: "rec-1", ActorID: "owner", RecipientID: "a"})
	require.NoError(t, err)

	overlay, err := svc.GetOverlay(ctx, "rec-1", "a")
	require.NoError(t, err)
	require.True(t, overlay.IsHighlighted)
	require.Equal(t, notes, overlay.PersonalNotes)
	require.True(t, overlay.IsInbox, "re-grant resets inbox")
}

func TestOverlayAccessControl(t *testing.T) {
	svc, _, _ := newShareFixture(t)
	ctx := context.Background()

	_, err := svc.GetOverlay(ctx, "rec-1", "stranger")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	// owner with no stored row gets defaults
	overlay, err := svc.GetOverlay(ctx, "rec-1", "owner")
	require.NoError(t, err)
	require.False(t, overlay.IsInbox)
	require.Empty(t, overlay.PersonalNotes)
}
