package scoring

import (
	"github.com/okian/peereval/internal/domain/model"
)

// Summary is one student's aggregates. Pointer fields are nil when the source
// data does not exist; Weighted and WeightedMean are nil unless Complete.
type Summary struct {
	UserID            string        `json:"user_id"`
	HasTeacher        bool          `json:"has_teacher"`
	HasSelf           bool          `json:"has_self"`
	HasPeer           bool          `json:"has_peer"`
	PeerReceivedCount int           `json:"peer_received_count"`
	Complete          bool          `json:"complete"`
	TeacherAvg        *model.Vector `json:"teacher_avg"`
	SelfLatest        *model.Vector `json:"self_latest"`
	PeerAvg           *model.Vector `json:"peer_avg"`
	Weighted          *model.Vector `json:"weighted"`
	WeightedMean      *float64      `json:"weighted_mean"`
}

// Report is the class-wide aggregation result in roster order.
type Report struct {
	Weights         Weights   `json:"weights"`
	MinPeerReceived int       `json:"min_peer_received"`
	ClassSize       int       `json:"class_size"`
	CompleteCount   int       `json:"complete_count"`
	Detail          []Summary `json:"detail"`
}

// Aggregator turns raw records into per-student summaries. It holds only
// configuration and is safe for concurrent use.
type Aggregator struct {
	weights         Weights
	minPeerReceived int
}

// NewAggregator creates an Aggregator with default weights and threshold.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		weights:         DefaultWeights(),
		minPeerReceived: DefaultMinPeerReceived,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weights returns the configured composite weights.
func (a *Aggregator) Weights() Weights { return a.weights }

// MinPeerReceived returns the has_peer threshold.
func (a *Aggregator) MinPeerReceived() int { return a.minPeerReceived }

// Aggregate computes a Summary for every roster student. Records addressed to
// ids outside the roster are ignored.
func (a *Aggregator) Aggregate(roster []string, self, peer, teacher []model.Record) Report {
	latest := latestBySubject(self)
	teacherBy := groupBySubject(teacher)
	peerBy := groupBySubject(peer)

	rep := Report{
		Weights:         a.weights,
		MinPeerReceived: a.minPeerReceived,
		ClassSize:       len(roster),
		Detail:          make([]Summary, 0, len(roster)),
	}
	for _, sid := range roster {
		s := a.summarize(sid, latest, teacherBy, peerBy)
		if s.Complete {
			rep.CompleteCount++
		}
		rep.Detail = append(rep.Detail, s)
	}
	return rep
}

// Composite returns the weighted vector for one student, or false when the
// student is not complete.
func (a *Aggregator) Composite(studentID string, self, peer, teacher []model.Record) (model.Vector, bool) {
	s := a.summarize(studentID, latestBySubject(self), groupBySubject(teacher), groupBySubject(peer))
	if !s.Complete {
		return model.Vector{}, false
	}
	return *s.Weighted, true
}

func (a *Aggregator) summarize(sid string, latest map[string]model.Record, teacherBy, peerBy map[string][]model.Vector) Summary {
	s := Summary{UserID: sid}

	if rec, ok := latest[sid]; ok {
		v := rec.Scores.Vector()
		s.SelfLatest = &v
		s.HasSelf = true
	}
	if v, ok := Average(teacherBy[sid]); ok {
		s.TeacherAvg = &v
		s.HasTeacher = true
	}
	if v, ok := Average(peerBy[sid]); ok {
		s.PeerAvg = &v
	}
	s.PeerReceivedCount = len(peerBy[sid])
	s.HasPeer = s.PeerReceivedCount >= a.minPeerReceived
	s.Complete = s.HasTeacher && s.HasSelf && s.HasPeer

	if s.Complete {
		w := Compose(a.weights, *s.TeacherAvg, *s.SelfLatest, *s.PeerAvg)
		mean := Mean(w)
		s.Weighted = &w
		s.WeightedMean = &mean
	}
	return s
}

// latestBySubject keeps the most recent record per subject: highest id, then
// latest timestamp, then latest position.
func latestBySubject(recs []model.Record) map[string]model.Record {
	out := make(map[string]model.Record, len(recs))
	for _, r := range recs {
		cur, ok := out[r.SubjectID]
		if !ok || newer(r, cur) {
			out[r.SubjectID] = r
		}
	}
	return out
}

func newer(a, b model.Record) bool {
	if a.ID != 0 && b.ID != 0 && a.ID != b.ID {
		return a.ID > b.ID
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return true
}

func groupBySubject(recs []model.Record) map[string][]model.Vector {
	out := make(map[string][]model.Vector)
	for _, r := range recs {
		out[r.SubjectID] = append(out[r.SubjectID], r.Scores.Vector())
	}
	return out
}
