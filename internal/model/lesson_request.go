package model

import "time"

type LessonRequestStatus string

const (
	LessonStatusPending          LessonRequestStatus = "pending"           // Awaiting CFI or administrator action
	LessonStatusAssigned         LessonRequestStatus = "assigned"          // Resources picked by an administrator
	LessonStatusStudentReviewing LessonRequestStatus = "student_reviewing" // CFI counter-proposal awaiting the student
	LessonStatusAccepted         LessonRequestStatus = "accepted"          // Confirmed by CFI or student
	LessonStatusDenied           LessonRequestStatus = "denied"            // Student declined a counter-proposal
	LessonStatusRejected         LessonRequestStatus = "rejected"          // Declined by the CFI
	LessonStatusInProgress       LessonRequestStatus = "in_progress"       // Lesson underway
	LessonStatusCompleted        LessonRequestStatus = "completed"         // Flight logged
)

// LessonRequest is a student's ask for instruction at a specific slot with
// a pre-selected CFI and aircraft. The Modified* fields carry a CFI
// counter-proposal while the request is in student_reviewing.
type LessonRequest struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	CFIID      string `json:"cfi_id"`
	AircraftID string `json:"aircraft_id"`

	RequestedDate      string `json:"requested_date"`
	RequestedStartTime string `json:"requested_start_time"`
	RequestedEndTime   string `json:"requested_end_time"`

	ModifiedDate       *string `json:"modified_date,omitempty"`
	ModifiedStartTime  *string `json:"modified_start_time,omitempty"`
	ModifiedEndTime    *string `json:"modified_end_time,omitempty"`
	ModifiedCFIID      *string `json:"modified_cfi_id,omitempty"`
	ModifiedAircraftID *string `json:"modified_aircraft_id,omitempty"`

	// Slot hold taken at assignment, nil when this request holds none.
	ReservedSlotID *int64 `json:"-"`

	Status         LessonRequestStatus `json:"status"`
	StudentMessage string              `json:"student_message"`
	CFIMessage     string              `json:"cfi_message"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Modification is a CFI counter-proposal payload. At least one field must
// be set; nil fields leave the requested values in place.
type Modification struct {
	Date       *string `json:"date,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
	CFIID      *string `json:"cfi_id,omitempty"`
	AircraftID *string `json:"aircraft_id,omitempty"`
}

// IsEmpty reports whether the proposal changes nothing.
func (m Modification) IsEmpty() bool {
	return m.Date == nil && m.StartTime == nil && m.EndTime == nil &&
		m.CFIID == nil && m.AircraftID == nil
}

// lessonTransitions is the full transition table. Terminal statuses
// (completed, denied, rejected) have no outgoing edges.
var lessonTransitions = map[LessonRequestStatus][]LessonRequestStatus{
	LessonStatusPending: {
		LessonStatusAccepted,
		LessonStatusRejected,
		LessonStatusAssigned,
		LessonStatusStudentReviewing,
	},
	LessonStatusAssigned: {
		LessonStatusAccepted,
		LessonStatusRejected,
		LessonStatusStudentReviewing,
	},
	LessonStatusStudentReviewing: {
		LessonStatusAccepted,
		LessonStatusDenied,
	},
	LessonStatusAccepted:   {LessonStatusInProgress},
	LessonStatusInProgress: {LessonStatusCompleted},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s LessonRequestStatus) CanTransitionTo(target LessonRequestStatus) bool {
	for _, next := range lessonTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s LessonRequestStatus) IsTerminal() bool {
	return len(lessonTransitions[s]) == 0
}

func (r *LessonRequest) IsOwnedBy(studentID string) bool {
	return r.StudentID == studentID
}

// AssignedCFI returns the CFI currently responsible for the request,
// honoring an accepted counter-proposal.
func (r *LessonRequest) AssignedCFI() string {
	if r.ModifiedCFIID != nil && *r.ModifiedCFIID != "" {
		return *r.ModifiedCFIID
	}
	return r.CFIID
}
