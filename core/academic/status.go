package academic

import "time"

type SubmissionStatus string

const (
	StatusNotSubmitted SubmissionStatus = "NotSubmitted"
	StatusPending      SubmissionStatus = "Pending"
	StatusGraded       SubmissionStatus = "Graded"
)

var SubmissionStatuses = []SubmissionStatus{StatusNotSubmitted, StatusPending, StatusGraded}

// Status derives the submission state from its submission time and last grade.
func (s Submission) Status() SubmissionStatus {
	switch {
	case !s.SubmittedAt.Valid:
		return StatusNotSubmitted
	case s.LastGrade > 0:
		return StatusGraded
	default:
		return StatusPending
	}
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

var RequestStatuses = []RequestStatus{RequestPending, RequestApproved, RequestRejected}

// State collapses the upstream 1..5 status:
// 1 (pending) & 4 (in progress) are Pending, 2 (accepted) & 5 (completed) are Approved, 3 is Rejected.
func (r AssignRequest) State() RequestStatus {
	switch r.Status {
	case 2, 5:
		return RequestApproved
	case 3:
		return RequestRejected
	default:
		return RequestPending
	}
}

// SemesterLocked reports whether a semester (and the courses under it) can no longer be edited or deleted.
func SemesterLocked(sem Semester, now time.Time) bool {
	return sem.HasStarted(now)
}

// AssignRequestLocked reports whether an assign request can no longer be edited or deleted.
// sem is the request's semester, when known.
func AssignRequestLocked(req AssignRequest, sem *Semester, now time.Time) bool {
	if req.State() == RequestApproved {
		return true
	}
	return sem != nil && SemesterLocked(*sem, now)
}
