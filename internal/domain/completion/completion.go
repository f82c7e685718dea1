// Package completion reports which students have finished each submission task.
package completion

import "github.com/okian/peereval/internal/domain/model"

// Default requirement counts.
const (
	DefaultPeerGiven    = 2
	DefaultPeerReceived = 2
	DefaultTeacher      = 1
)

// Requirements are the minimum counts for each task.
type Requirements struct {
	PeerGiven    int `json:"required_peer_given"`
	PeerReceived int `json:"required_peer_received"`
	Teacher      int `json:"required_teacher"`
}

// DefaultRequirements returns 2 given, 2 received and 1 teacher rating.
func DefaultRequirements() Requirements {
	return Requirements{PeerGiven: DefaultPeerGiven, PeerReceived: DefaultPeerReceived, Teacher: DefaultTeacher}
}

// Status is one student's progress.
type Status struct {
	UserID               string `json:"user_id"`
	SelfSubmitted        bool   `json:"self_submitted"`
	PeerGivenCount       int    `json:"peer_given_count"`
	PeerReceivedCount    int    `json:"peer_received_count"`
	TeacherCount         int    `json:"teacher_count"`
	TeacherScored        bool   `json:"teacher_scored"`
	RequiredPeerGiven    int    `json:"required_peer_given"`
	RequiredPeerReceived int    `json:"required_peer_received"`
	RequiredTeacher      int    `json:"required_teacher"`
	PeerGivenDone        bool   `json:"peer_given_done"`
	PeerReceivedDone     bool   `json:"peer_received_done"`
	TeacherDone          bool   `json:"teacher_done"`
	AllDone              bool   `json:"all_done"`
}

// Report is the class-wide completion view. Lists follow roster order.
type Report struct {
	ClassSize            int      `json:"class_size"`
	RequiredPeerGiven    int      `json:"required_peer_given"`
	RequiredPeerReceived int      `json:"required_peer_received"`
	RequiredTeacher      int      `json:"required_teacher"`
	AllDoneCount         int      `json:"all_done_count"`
	NotSubmittedSelf     []string `json:"not_submitted_self"`
	NotDonePeerGiven     []string `json:"not_done_peer_given"`
	NotDonePeerReceived  []string `json:"not_done_peer_received"`
	NotDoneTeacher       []string `json:"not_done_teacher"`
	Detail               []Status `json:"detail"`
}

// Reporter builds completion reports. Safe for concurrent use.
type Reporter struct {
	req Requirements
}

// NewReporter creates a Reporter with the given requirements. Counts below 1
// fall back to the defaults.
func NewReporter(req Requirements) *Reporter {
	def := DefaultRequirements()
	if req.PeerGiven < 1 {
		req.PeerGiven = def.PeerGiven
	}
	if req.PeerReceived < 1 {
		req.PeerReceived = def.PeerReceived
	}
	if req.Teacher < 1 {
		req.Teacher = def.Teacher
	}
	return &Reporter{req: req}
}

// Requirements returns the configured counts.
func (r *Reporter) Requirements() Requirements { return r.req }

// Report computes the status of every roster student. Peer records count
// toward both the rater and the target; ids outside the roster are ignored.
func (r *Reporter) Report(roster []string, self, peer, teacher []model.Record) Report {
	selfBy := make(map[string]int)
	for _, rec := range self {
		selfBy[rec.SubjectID]++
	}
	given := make(map[string]int)
	received := make(map[string]int)
	for _, rec := range peer {
		given[rec.RaterID]++
		received[rec.SubjectID]++
	}
	teacherBy := make(map[string]int)
	for _, rec := range teacher {
		teacherBy[rec.SubjectID]++
	}

	rep := Report{
		ClassSize:            len(roster),
		RequiredPeerGiven:    r.req.PeerGiven,
		RequiredPeerReceived: r.req.PeerReceived,
		RequiredTeacher:      r.req.Teacher,
		NotSubmittedSelf:     []string{},
		NotDonePeerGiven:     []string{},
		NotDonePeerReceived:  []string{},
		NotDoneTeacher:       []string{},
		Detail:               make([]Status, 0, len(roster)),
	}
	for _, sid := range roster {
		st := Status{
			UserID:               sid,
			SelfSubmitted:        selfBy[sid] > 0,
			PeerGivenCount:       given[sid],
			PeerReceivedCount:    received[sid],
			TeacherCount:         teacherBy[sid],
			RequiredPeerGiven:    r.req.PeerGiven,
			RequiredPeerReceived: r.req.PeerReceived,
			RequiredTeacher:      r.req.Teacher,
		}
		st.TeacherScored = st.TeacherCount > 0
		st.PeerGivenDone = st.PeerGivenCount >= r.req.PeerGiven
		st.PeerReceivedDone = st.PeerReceivedCount >= r.req.PeerReceived
		st.TeacherDone = st.TeacherCount >= r.req.Teacher
		st.AllDone = st.SelfSubmitted && st.PeerGivenDone && st.TeacherDone

		if !st.SelfSubmitted {
			rep.NotSubmittedSelf = append(rep.NotSubmittedSelf, sid)
		}
		if !st.PeerGivenDone {
			rep.NotDonePeerGiven = append(rep.NotDonePeerGiven, sid)
		}
		if !st.PeerReceivedDone {
			rep.NotDonePeerReceived = append(rep.NotDonePeerReceived, sid)
		}
		if !st.TeacherDone {
			rep.NotDoneTeacher = append(rep.NotDoneTeacher, sid)
		}
		if st.AllDone {
			rep.AllDoneCount++
		}
		rep.Detail = append(rep.Detail, st)
	}
	return rep
}
