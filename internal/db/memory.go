package db

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

// MemoryStore is a process-local Store used in development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	screens  map[uuid.UUID]model.Screen
	codes    map[string]uuid.UUID
	videos   map[uuid.UUID]model.Video
	rules    map[uuid.UUID]model.ScheduleRule
	slots    map[uuid.UUID]model.TimeSlot
	desired  map[uuid.UUID]model.DesiredState
	history  map[uuid.UUID][]int64
	syncRows map[uuid.UUID]model.PlayerSyncStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		screens:  make(map[uuid.UUID]model.Screen),
		codes:    make(map[string]uuid.UUID),
		videos:   make(map[uuid.UUID]model.Video),
		rules:    make(map[uuid.UUID]model.ScheduleRule),
		slots:    make(map[uuid.UUID]model.TimeSlot),
		desired:  make(map[uuid.UUID]model.DesiredState),
		history:  make(map[uuid.UUID][]int64),
		syncRows: make(map[uuid.UUID]model.PlayerSyncStatus),
	}
}

func (m *MemoryStore) CreateScreen(_ context.Context, s model.Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[s.Code]; ok {
		return apperrors.Validation("screen code already registered", map[string]any{"screen_code": s.Code})
	}
	m.screens[s.ID] = s
	m.codes[s.Code] = s.ID
	return nil
}

func (m *MemoryStore) GetScreen(_ context.Context, clientID, id uuid.UUID) (model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.screens[id]
	if !ok || s.ClientID != clientID {
		return model.Screen{}, apperrors.NotFound("screen", id.String())
	}
	return s, nil
}

func (m *MemoryStore) GetScreenByCode(_ context.Context, code string) (model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.codes[code]
	if !ok {
		return model.Screen{}, apperrors.NotFound("screen", code)
	}
	return m.screens[id], nil
}

func (m *MemoryStore) ListScreens(_ context.Context, clientID uuid.UUID) ([]model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Screen
	for _, s := range m.screens {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return less(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (m *MemoryStore) ListActiveScreens(_ context.Context) ([]model.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Screen
	for _, s := range m.screens {
		if !s.Retired() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].ID, out[j].ID) })
	return out, nil
}

func (m *MemoryStore) UpdateScreenHealth(_ context.Context, s model.Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.screens[s.ID]
	if !ok || cur.Retired() {
		return apperrors.NotFound("screen", s.ID.String())
	}
	cur.Status, cur.LastHeartbeat, cur.Fault = s.Status, s.LastHeartbeat, s.Fault
	cur.UpdatedAt = time.Now().UTC()
	m.screens[s.ID] = cur
	return nil
}

func (m *MemoryStore) SetScreenStatus(_ context.Context, s model.Screen) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.screens[s.ID]
	if !ok || cur.Retired() || cur.Fault != s.Fault || !sameInstant(cur.LastHeartbeat, s.LastHeartbeat) {
		return false, nil
	}
	cur.Status = s.Status
	cur.UpdatedAt = time.Now().UTC()
	m.screens[s.ID] = cur
	return true, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (m *MemoryStore) RetireScreen(_ context.Context, clientID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.screens[id]
	if !ok || s.ClientID != clientID {
		return apperrors.NotFound("screen", id.String())
	}
	if s.RetiredAt == nil {
		s.RetiredAt = &at
	}
	s.UpdatedAt = at
	m.screens[id] = s
	return nil
}

func (m *MemoryStore) CreateVideo(_ context.Context, v model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[v.ID] = v
	return nil
}

func (m *MemoryStore) GetVideo(_ context.Context, clientID, id uuid.UUID) (model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.ClientID != clientID {
		return model.Video{}, apperrors.NotFound("video", id.String())
	}
	return v, nil
}

func (m *MemoryStore) RetractVideo(_ context.Context, clientID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.ClientID != clientID {
		return apperrors.NotFound("video", id.String())
	}
	if v.RetractedAt == nil {
		v.RetractedAt = &at
	}
	m.videos[id] = v
	return nil
}

func (m *MemoryStore) ScreensForVideo(_ context.Context, clientID, videoID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok || v.ClientID != clientID {
		return nil, nil
	}
	return m.activeScreensLocked(func(s model.TimeSlot) bool { return s.VideoID == videoID }), nil
}

func (m *MemoryStore) CreateRule(_ context.Context, r model.ScheduleRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[r.ID] = r
	return nil
}

func (m *MemoryStore) GetRule(_ context.Context, clientID, id uuid.UUID) (model.ScheduleRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok || r.ClientID != clientID {
		return model.ScheduleRule{}, apperrors.NotFound("rule", id.String())
	}
	return r, nil
}

func (m *MemoryStore) CreateSlot(_ context.Context, s model.TimeSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[s.RuleID]; !ok {
		return apperrors.NotFound("rule", s.RuleID.String())
	}
	if _, ok := m.screens[s.ScreenID]; !ok {
		return apperrors.NotFound("screen", s.ScreenID.String())
	}
	if _, ok := m.videos[s.VideoID]; !ok {
		return apperrors.NotFound("video", s.VideoID.String())
	}
	m.slots[s.ID] = s
	return nil
}

func (m *MemoryStore) DeleteSlot(_ context.Context, clientID, id uuid.UUID) (model.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || m.rules[s.RuleID].ClientID != clientID {
		return model.TimeSlot{}, apperrors.NotFound("slot", id.String())
	}
	delete(m.slots, id)
	return s, nil
}

func (m *MemoryStore) ScreensForRule(_ context.Context, clientID, ruleID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[ruleID]
	if !ok || r.ClientID != clientID {
		return nil, nil
	}
	return m.activeScreensLocked(func(s model.TimeSlot) bool { return s.RuleID == ruleID }), nil
}

func (m *MemoryStore) activeScreensLocked(match func(model.TimeSlot) bool) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, s := range m.slots {
		if !match(s) || seen[s.ScreenID] || m.screens[s.ScreenID].Retired() {
			continue
		}
		seen[s.ScreenID] = true
		out = append(out, s.ScreenID)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (m *MemoryStore) GetScreenSnapshot(_ context.Context, clientID, screenID uuid.UUID) (model.ScreenSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := model.ScreenSnapshot{ClientID: clientID, ScreenID: screenID, Videos: map[uuid.UUID]model.Video{}}
	ruleSeen := map[uuid.UUID]bool{}
	for _, s := range m.slots {
		r, ok := m.rules[s.RuleID]
		if s.ScreenID != screenID || !ok || r.ClientID != clientID {
			continue
		}
		snap.Slots = append(snap.Slots, s)
		if !ruleSeen[r.ID] {
			ruleSeen[r.ID] = true
			snap.Rules = append(snap.Rules, r)
		}
		if v, ok := m.videos[s.VideoID]; ok && v.ClientID == clientID {
			snap.Videos[v.ID] = v
		}
	}
	sort.Slice(snap.Slots, func(i, j int) bool { return less(snap.Slots[i].ID, snap.Slots[j].ID) })
	sort.Slice(snap.Rules, func(i, j int) bool { return less(snap.Rules[i].ID, snap.Rules[j].ID) })
	return snap, nil
}

func (m *MemoryStore) GetDesiredState(_ context.Context, screenID uuid.UUID) (model.DesiredState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.desired[screenID]
	if !ok {
		return model.DesiredState{}, apperrors.NotFound("desired state", screenID.String())
	}
	return st, nil
}

func (m *MemoryStore) CompareAndSwapDesiredState(_ context.Context, expected int64, next model.DesiredState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.desired[next.ScreenID].Version != expected {
		return apperrors.ErrVersionConflict
	}
	for _, v := range m.history[next.ScreenID] {
		if v == next.Version {
			return apperrors.ErrVersionConflict
		}
	}
	m.desired[next.ScreenID] = next
	m.history[next.ScreenID] = append(m.history[next.ScreenID], next.Version)
	return nil
}

// VersionHistory lists every version ever committed for the screen, in
// commit order.
func (m *MemoryStore) VersionHistory(screenID uuid.UUID) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.history[screenID]...)
}

func (m *MemoryStore) GetSyncStatus(_ context.Context, screenID uuid.UUID) (model.PlayerSyncStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.syncRows[screenID]
	if !ok {
		return model.PlayerSyncStatus{}, apperrors.NotFound("sync status", screenID.String())
	}
	st.ScreenCode = m.screens[screenID].Code
	return st, nil
}

func (m *MemoryStore) SaveSyncStatus(_ context.Context, st model.PlayerSyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.screens[st.ScreenID]; !ok {
		return apperrors.NotFound("screen", st.ScreenID.String())
	}
	m.syncRows[st.ScreenID] = st
	return nil
}

func less(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
