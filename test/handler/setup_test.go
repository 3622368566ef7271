package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/speakr-sub001/internal/handler"
	"github.com/murtaza-nasir/speakr-sub001/internal/middleware"
	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/jwt"
	"github.com/murtaza-nasir/speakr-sub001/internal/service"
)

var testSecret = []byte("test-secret")

// memStore is an in-memory ledger plus audit trail backing the share
// routes, so the HTTP layer can be exercised without a database.
type memStore struct {
	mu       sync.Mutex
	shares   []model.Share
	overlays map[string]model.Overlay
	audits   []model.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{overlays: make(map[string]model.Overlay)}
}

func overlayKey(recordingID, userID string) string {
	return recordingID + "|" + userID
}

func (m *memStore) CreateShareWithOverlay(ctx context.Context, share *model.Share, overlay *model.Overlay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RecordingID == share.RecordingID && s.RecipientID == share.RecipientID {
			return appErr.ErrConflict
		}
	}
	m.shares = append(m.shares, *share)
	key := overlayKey(overlay.RecordingID, overlay.UserID)
	if existing, ok := m.overlays[key]; ok {
		existing.IsInbox = true
		existing.Mtime = overlay.Mtime
		m.overlays[key] = existing
	} else {
		m.overlays[key] = *overlay
	}
	return nil
}

func (m *memStore) GetShare(ctx context.Context, recordingID, shareID string) (*model.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RecordingID == recordingID && s.ID == shareID {
			found := s
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *memStore) GetShareByRecipient(ctx context.Context, recordingID, recipientID string) (*model.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RecordingID == recordingID && s.RecipientID == recipientID {
			found := s
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *memStore) ListShares(ctx context.Context, recordingID string) ([]model.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Share, 0)
	for _, s := range m.shares {
		if s.RecordingID == recordingID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *memStore) ListGrantedBy(ctx context.Context, recordingID, grantorID string) ([]model.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Share, 0)
	for _, s := range m.shares {
		if s.RecordingID == recordingID && s.GrantorID == grantorID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *memStore) ExistsAlternate(ctx context.Context, recordingID, recipientID, excludeGrantor string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RecordingID == recordingID && s.RecipientID == recipientID && s.GrantorID != excludeGrantor {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateSharePerms(ctx context.Context, recordingID, shareID string, perms model.Perms) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.shares {
		if s.RecordingID == recordingID && s.ID == shareID {
			m.shares[i].CanEdit = perms.CanEdit
			m.shares[i].CanReshare = perms.CanReshare
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (m *memStore) DeleteShare(ctx context.Context, recordingID, shareID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.shares {
		if s.RecordingID == recordingID && s.ID == shareID {
			m.shares = append(m.shares[:i], m.shares[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetOverlay(ctx context.Context, recordingID, userID string) (*model.Overlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.overlays[overlayKey(recordingID, userID)]; ok {
		found := o
		return &found, nil
	}
	return nil, appErr.ErrNotFound
}

func (m *memStore) EnsureOverlay(ctx context.Context, overlay *model.Overlay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := overlayKey(overlay.RecordingID, overlay.UserID)
	if _, ok := m.overlays[key]; !ok {
		m.overlays[key] = *overlay
	}
	return nil
}

func (m *memStore) UpdateOverlayFields(ctx context.Context, recordingID, userID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := overlayKey(recordingID, userID)
	o, ok := m.overlays[key]
	if !ok {
		return appErr.ErrNotFound
	}
	for name, value := range fields {
		switch name {
		case "personal_notes":
			o.PersonalNotes = value.(string)
		case "is_inbox":
			o.IsInbox = value.(bool)
		case "is_highlighted":
			o.IsHighlighted = value.(bool)
		case "last_viewed":
			o.LastViewed = value.(int64)
		case "mtime":
			o.Mtime = value.(int64)
		}
	}
	m.overlays[key] = o
	return nil
}

func (m *memStore) Append(ctx context.Context, entry *model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *memStore) ListByRecording(ctx context.Context, recordingID string, limit, offset uint) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]model.AuditEntry, 0)
	for i := len(m.audits) - 1; i >= 0; i-- {
		if m.audits[i].RecordingID == recordingID {
			matched = append(matched, m.audits[i])
		}
	}
	if offset >= uint(len(matched)) {
		return nil, nil
	}
	matched = matched[offset:]
	if uint(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

type memRegistry struct {
	recordings map[string]model.Recording
}

func (m *memRegistry) GetByID(ctx context.Context, recordingID string) (*model.Recording, error) {
	if r, ok := m.recordings[recordingID]; ok {
		found := r
		return &found, nil
	}
	return nil, appErr.ErrNotFound
}

type memUsers struct {
	users map[string]model.User
}

func (m *memUsers) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	items := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			items = append(items, u)
		}
	}
	return items, nil
}

func setupShareRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	registry := &memRegistry{recordings: map[string]model.Recording{
		"rec-1": {ID: "rec-1", OwnerID: "owner", Title: "standup", Ctime: 1000},
	}}
	users := &memUsers{users: map[string]model.User{
		"owner": {ID: "owner", Email: "owner@example.com", DisplayName: "Owner"},
		"a":     {ID: "a", Email: "a@example.com", DisplayName: "Alice"},
		"b":     {ID: "b", Email: "b@example.com", DisplayName: "Bob"},
	}}
	shares := handler.NewShareHandler(service.NewShareService(store, registry, users, store, store))

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(middleware.RequestID())
	authed := api.Group("")
	authed.Use(middleware.JWTAuth(testSecret))
	authed.POST("/recordings/:id/shares", shares.Grant)
	authed.GET("/recordings/:id/shares", shares.List)
	authed.PATCH("/recordings/:id/shares/:share_id", shares.Modify)
	authed.DELETE("/recordings/:id/shares/:share_id", shares.Revoke)
	authed.GET("/recordings/:id/overlay", shares.GetOverlay)
	authed.PATCH("/recordings/:id/overlay", shares.SetOverlay)
	authed.GET("/recordings/:id/audit", shares.ListAudit)
	return engine, store
}

func authToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, userID+"@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// apiReply is the response envelope: every reply is HTTP 200 with the
// application error code in the body.
type apiReply struct {
	Code    uint32          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) apiReply {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var reply apiReply
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reply))
	return reply
}
