package model

import "time"

// Kind distinguishes the three score record families.
type Kind string

// Record kinds.
const (
	KindSelf    Kind = "self"
	KindPeer    Kind = "peer"
	KindTeacher Kind = "teacher"
)

// Record is one persisted submission. RaterID is empty for self records; for
// peer records it is the rating student and for teacher records the teacher.
type Record struct {
	ID        uint
	Kind      Kind
	SubjectID string
	RaterID   string
	CreatedAt time.Time
	Scores    Scores
}

// Entity is one row of the static reference catalog.
type Entity struct {
	ID    int    `json:"poke_num"`
	Name  string `json:"poke_name"`
	Stats Vector `json:"stats"`
}
