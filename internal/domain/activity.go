package domain

import (
	"sort"
	"time"
)

// ActivityType enumerates follow-up kinds.
type ActivityType string

const (
	ActivityTypeCall     ActivityType = "call"
	ActivityTypeEmail    ActivityType = "email"
	ActivityTypeMeeting  ActivityType = "meeting"
	ActivityTypeTask     ActivityType = "task"
	ActivityTypeFollowUp ActivityType = "follow_up"
	ActivityTypeDemo     ActivityType = "demo"
	ActivityTypeProposal ActivityType = "proposal"
)

// ActivityTypes lists every recognized activity type.
var ActivityTypes = []ActivityType{
	ActivityTypeCall,
	ActivityTypeEmail,
	ActivityTypeMeeting,
	ActivityTypeTask,
	ActivityTypeFollowUp,
	ActivityTypeDemo,
	ActivityTypeProposal,
}

// Valid reports whether t is a recognized activity type.
func (t ActivityType) Valid() bool {
	for _, candidate := range ActivityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ActivityStatus enumerates lifecycle states of an activity.
type ActivityStatus string

const (
	ActivityStatusPending   ActivityStatus = "pending"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s ActivityStatus) Terminal() bool {
	return s == ActivityStatusCompleted || s == ActivityStatusCancelled
}

// Activity is a scheduled follow-up tied to a deal.
type Activity struct {
	ID            string
	DealID        string
	Title         string
	Description   string
	Type          ActivityType
	Status        ActivityStatus
	ScheduledDate time.Time
	// ScheduledTime is an optional wall-clock time in HH:MM.
	ScheduledTime *string
	CompletedAt   *time.Time
	CreatedBy     string
	AssignedTo    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScheduledAt combines the scheduled date and optional time in loc.
func (a Activity) ScheduledAt(loc *time.Location) time.Time {
	y, m, d := a.ScheduledDate.Date()
	hour, minute := 0, 0
	if a.ScheduledTime != nil {
		if parsed, err := time.Parse("15:04", *a.ScheduledTime); err == nil {
			hour, minute = parsed.Hour(), parsed.Minute()
		}
	}
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// FollowUpState is the derived urgency of a deal's next pending activity.
type FollowUpState string

const (
	FollowUpOverdue  FollowUpState = "overdue"
	FollowUpToday    FollowUpState = "today"
	FollowUpUpcoming FollowUpState = "upcoming"
	FollowUpNone     FollowUpState = "none"
)

// NextActivity returns the earliest pending activity by scheduled date and time.
func NextActivity(activities []Activity) *Activity {
	pending := make([]Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.Status == ActivityStatusPending {
			pending = append(pending, activity)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].ScheduledAt(time.UTC).Before(pending[j].ScheduledAt(time.UTC))
	})
	next := pending[0]
	return &next
}

// DeriveFollowUp computes the next pending activity and its urgency relative
// to now. Dates are compared by calendar day in now's location.
func DeriveFollowUp(now time.Time, activities []Activity) (*Activity, FollowUpState) {
	next := NextActivity(activities)
	if next == nil {
		return nil, FollowUpNone
	}
	scheduled := calendarDay(next.ScheduledDate, now.Location())
	today := calendarDay(now, now.Location())
	switch {
	case scheduled.Before(today):
		return next, FollowUpOverdue
	case scheduled.Equal(today):
		return next, FollowUpToday
	default:
		return next, FollowUpUpcoming
	}
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
