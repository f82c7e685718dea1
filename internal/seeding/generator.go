package seeding

import (
	"math/rand/v2"

	"github.com/okian/peereval/internal/domain/model"
)

// Spread of each rater family around a student's latent profile.
const (
	selfJitter    = 1
	peerJitter    = 2
	teacherJitter = 1
)

// Plan lists every submission of one round, grouped by who sends it.
type Plan struct {
	ByStudent map[string][]Submission
	Teacher   []Submission
}

// Generator produces reproducible scores. Each student has a latent profile
// and every rating is that profile plus bounded noise.
type Generator struct {
	rng      *rand.Rand
	profiles map[string][model.MetricCount]int
}

// NewGenerator creates a generator for seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		profiles: make(map[string][model.MetricCount]int),
	}
}

// BuildPlan lays out self, peer and teacher submissions for students. Peer
// targets come from assignments; the teacher rates everyone.
func (g *Generator) BuildPlan(students []string, assignments map[string][]string, teacherID string) Plan {
	p := Plan{ByStudent: make(map[string][]Submission, len(students))}
	for _, s := range students {
		subs := []Submission{{Kind: model.KindSelf, Rater: s, Target: s, Scores: g.Scores(s, selfJitter)}}
		for _, t := range assignments[s] {
			subs = append(subs, Submission{Kind: model.KindPeer, Rater: s, Target: t, Scores: g.Scores(t, peerJitter)})
		}
		p.ByStudent[s] = subs
	}
	for _, s := range students {
		p.Teacher = append(p.Teacher, Submission{Kind: model.KindTeacher, Rater: teacherID, Target: s, Scores: g.Scores(s, teacherJitter)})
	}
	return p
}

// Scores returns a noisy rating of student within [1, 10].
func (g *Generator) Scores(student string, jitter int) model.Scores {
	base := g.profile(student)
	var v [model.MetricCount]int
	for i := range v {
		v[i] = clamp(base[i] + g.rng.IntN(2*jitter+1) - jitter)
	}
	return model.Scores{HP: v[0], Atk: v[1], Def: v[2], SpA: v[3], SpD: v[4], Spe: v[5]}
}

func (g *Generator) profile(student string) [model.MetricCount]int {
	if p, ok := g.profiles[student]; ok {
		return p
	}
	var p [model.MetricCount]int
	for i := range p {
		p[i] = model.MinScore + g.rng.IntN(model.MaxScore-model.MinScore+1)
	}
	g.profiles[student] = p
	return p
}

func clamp(v int) int {
	return min(max(v, model.MinScore), model.MaxScore)
}
