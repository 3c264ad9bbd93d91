package schedule

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

// Entry is one resolved playout window.
type Entry struct {
	Start           time.Time
	End             time.Time
	VideoID         uuid.UUID
	ContentHash     string
	DurationSeconds int
	SlotID          uuid.UUID
	RuleID          uuid.UUID
}

// Precedence ranks rule types for overlap resolution: date_range > weekly > daily.
func Precedence(t model.RuleType) int {
	switch t {
	case model.RuleDateRange:
		return 3
	case model.RuleWeekly:
		return 2
	case model.RuleDaily:
		return 1
	}
	return 0
}

type candidate struct {
	Entry
	precedence  int
	ruleCreated time.Time
}

// rank orders candidates by precedence, then by the most recently created rule.
func rank(a, b *candidate) int {
	if a.precedence != b.precedence {
		return a.precedence - b.precedence
	}
	return a.ruleCreated.Compare(b.ruleCreated)
}

// Resolve computes the ordered, non-overlapping timeline for the snapshot's
// screen over the horizon. It does no I/O.
func Resolve(snap model.ScreenSnapshot, h Horizon) ([]Entry, error) {
	rules := make(map[uuid.UUID]model.ScheduleRule, len(snap.Rules))
	for _, r := range snap.Rules {
		if r.ClientID == snap.ClientID {
			rules[r.ID] = r
		}
	}

	slots := make([]model.TimeSlot, 0, len(snap.Slots))
	for _, s := range snap.Slots {
		if s.ScreenID == snap.ScreenID {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return bytes.Compare(slots[i].ID[:], slots[j].ID[:]) < 0
	})

	var (
		cands         []candidate
		flaggedSlots  []string
		flaggedVideos []string
	)
	for _, slot := range slots {
		rule, ok := rules[slot.RuleID]
		if !ok {
			continue
		}
		act := ActivationOf(rule)
		if !act.Intersects(h.From, h.To) {
			continue
		}
		w, err := ParseWindow(slot.StartTime, slot.EndTime)
		if err != nil {
			return nil, apperrors.Validation(err.Error(), map[string]any{"slot_id": slot.ID.String()})
		}
		if rule.RuleType == model.RuleWeekly && slot.DayOfWeek == nil {
			return nil, apperrors.Validation("weekly slot without day_of_week", map[string]any{"slot_id": slot.ID.String()})
		}

		occurrences := expand(rule, slot, w, act, h)
		if len(occurrences) == 0 {
			continue
		}

		video, ok := snap.Videos[slot.VideoID]
		if !ok || video.Retracted() || video.ClientID != snap.ClientID {
			flaggedSlots = append(flaggedSlots, slot.ID.String())
			flaggedVideos = append(flaggedVideos, slot.VideoID.String())
			continue
		}

		for _, occ := range occurrences {
			cands = append(cands, candidate{
				Entry: Entry{
					Start:           occ[0],
					End:             occ[1],
					VideoID:         video.ID,
					ContentHash:     video.ContentHash,
					DurationSeconds: video.DurationSeconds,
					SlotID:          slot.ID,
					RuleID:          rule.ID,
				},
				precedence:  Precedence(rule.RuleType),
				ruleCreated: rule.CreatedAt,
			})
		}
	}

	if len(flaggedSlots) > 0 {
		return nil, apperrors.Resolution("slot references a retracted or unknown video", map[string]any{
			"slot_ids":  flaggedSlots,
			"video_ids": flaggedVideos,
		})
	}
	return arbitrate(cands)
}

// expand produces the concrete [start, end) windows of a slot inside the
// horizon, clipped to the rule's activation window.
func expand(rule model.ScheduleRule, slot model.TimeSlot, w Window, act Activation, h Horizon) [][2]time.Time {
	var out [][2]time.Time
	for _, day := range h.days() {
		if !matchesDay(rule, slot, day) {
			continue
		}
		start, end := at(day, w.Start), at(day, w.End)
		if start.Before(h.From) {
			start = h.From
		}
		if end.After(h.To) {
			end = h.To
		}
		if !start.Before(end) {
			continue
		}
		start, end, ok := act.clip(start, end)
		if !ok {
			continue
		}
		out = append(out, [2]time.Time{start, end})
	}
	return out
}

// arbitrate splits candidates at every boundary, picks the highest ranked
// candidate for each elementary segment and merges contiguous segments of
// the same slot.
func arbitrate(cands []candidate) ([]Entry, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	points := make([]time.Time, 0, 2*len(cands))
	for _, c := range cands {
		points = append(points, c.Start, c.End)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	uniq := points[:1]
	for _, p := range points[1:] {
		if !p.Equal(uniq[len(uniq)-1]) {
			uniq = append(uniq, p)
		}
	}

	var out []Entry
	for i := 0; i+1 < len(uniq); i++ {
		segStart, segEnd := uniq[i], uniq[i+1]

		var best, tie *candidate
		for j := range cands {
			c := &cands[j]
			if c.Start.After(segStart) || c.End.Before(segEnd) {
				continue
			}
			if best == nil {
				best = c
				continue
			}
			switch r := rank(c, best); {
			case r > 0:
				best, tie = c, nil
			case r == 0 && c.SlotID != best.SlotID:
				tie = c
			}
		}
		if best == nil {
			continue
		}
		if tie != nil {
			return nil, apperrors.Validation("overlapping slots of equal precedence", map[string]any{
				"slot_ids": []string{best.SlotID.String(), tie.SlotID.String()},
				"start":    segStart.UTC().Format(time.RFC3339),
				"end":      segEnd.UTC().Format(time.RFC3339),
			})
		}

		if n := len(out); n > 0 && out[n-1].SlotID == best.SlotID && out[n-1].End.Equal(segStart) {
			out[n-1].End = segEnd
			continue
		}
		e := best.Entry
		e.Start, e.End = segStart, segEnd
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return bytes.Compare(out[i].SlotID[:], out[j].SlotID[:]) < 0
	})
	return out, nil
}
