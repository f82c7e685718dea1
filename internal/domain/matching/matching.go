// Package matching ranks the reference catalog by distance to a composite vector.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
)

// Method is a distance function name.
type Method string

// Supported distance methods.
const (
	Euclidean Method = "euclidean"
	Manhattan Method = "manhattan"
)

// Defaults for match queries.
const (
	DefaultTopK             = 3
	DefaultMaxTopK          = 20
	DefaultMethod           = Euclidean
	DefaultOfficialURLBase  = "https://tw.portal-pokemon.com/play/pokedex/"
	DefaultReferenceURLBase = "https://www.pokemon.com/us/pokedex/"
	ReasonIncomplete        = "NEED_TEACHER_SELF_PEER"
	distancePlaces          = 4
)

// Candidate is one ranked catalog entity.
type Candidate struct {
	ID           int          `json:"poke_num"`
	Name         string       `json:"poke_name"`
	Distance     float64      `json:"distance"`
	Stats        model.Vector `json:"stats"`
	Slug         string       `json:"slug"`
	OfficialURL  string       `json:"official_url"`
	ReferenceURL string       `json:"reference_url"`
}

// Result is the match envelope for one student.
type Result struct {
	StudentID string        `json:"student_id"`
	Complete  bool          `json:"complete"`
	Reason    string        `json:"reason,omitempty"`
	Method    Method        `json:"method"`
	TopK      int           `json:"top_k"`
	Weighted  *model.Vector `json:"weighted"`
	Results   []Candidate   `json:"results"`
}

// Query selects the student and ranking parameters. A nil TopK or empty Method
// uses the matcher defaults.
type Query struct {
	StudentID string
	TopK      *int
	Method    string
}

// Matcher holds the immutable catalog and ranking defaults. Safe for concurrent use.
type Matcher struct {
	catalog          []model.Entity
	slugs            []string
	defaultTopK      int
	maxTopK          int
	defaultMethod    Method
	officialURLBase  string
	referenceURLBase string
}

// NewMatcher creates a matcher over catalog. The slice is copied.
func NewMatcher(catalog []model.Entity, opts ...Option) *Matcher {
	m := &Matcher{
		catalog:          append([]model.Entity(nil), catalog...),
		defaultTopK:      DefaultTopK,
		maxTopK:          DefaultMaxTopK,
		defaultMethod:    DefaultMethod,
		officialURLBase:  DefaultOfficialURLBase,
		referenceURLBase: DefaultReferenceURLBase,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.defaultTopK > m.maxTopK {
		m.defaultTopK = m.maxTopK
	}
	m.slugs = make([]string, len(m.catalog))
	for i, e := range m.catalog {
		m.slugs[i] = Slug(e.Name)
	}
	return m
}

// Size returns the number of catalog entities.
func (m *Matcher) Size() int { return len(m.catalog) }

// ParseMethod trims and lower-cases s. Empty input yields def.
func ParseMethod(s string, def Method) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case Euclidean:
		return Euclidean, nil
	case Manhattan:
		return Manhattan, nil
	default:
		return "", errs.Newf("matching.parse_method", errs.ErrInvalidParameter, "unknown method %q", s)
	}
}

// ClampTopK bounds k to [1, limit].
func ClampTopK(k, limit int) int {
	if k < 1 {
		return 1
	}
	if k > limit {
		return limit
	}
	return k
}

// Distance computes the distance between a and b using method.
func Distance(method Method, a, b model.Vector) float64 {
	av, bv := a.Values(), b.Values()
	var sum float64
	for i := range av {
		d := av[i] - bv[i]
		if method == Manhattan {
			sum += math.Abs(d)
		} else {
			sum += d * d
		}
	}
	if method == Manhattan {
		return sum
	}
	return math.Sqrt(sum)
}

// Match ranks the catalog against weighted. A nil weighted vector means the
// student is incomplete; the result then carries a reason and no candidates.
func (m *Matcher) Match(q Query, weighted *model.Vector) (Result, error) {
	method, err := ParseMethod(q.Method, m.defaultMethod)
	if err != nil {
		return Result{}, err
	}
	k := m.defaultTopK
	if q.TopK != nil {
		k = *q.TopK
	}
	res := Result{
		StudentID: strings.TrimSpace(q.StudentID),
		Method:    method,
		TopK:      ClampTopK(k, m.maxTopK),
		Results:   []Candidate{},
	}
	if weighted == nil {
		res.Reason = ReasonIncomplete
		return res, nil
	}
	w := *weighted
	res.Complete = true
	res.Weighted = &w
	res.Results = m.Rank(w, method, res.TopK)
	return res, nil
}

// Rank returns the k nearest entities ordered by rounded distance, then id.
// k below one is treated as one.
func (m *Matcher) Rank(target model.Vector, method Method, k int) []Candidate {
	k = max(k, 1)
	p := math.Pow10(distancePlaces)
	out := make([]Candidate, len(m.catalog))
	for i, e := range m.catalog {
		d := Distance(method, target, e.Stats)
		out[i] = Candidate{
			ID:           e.ID,
			Name:         e.Name,
			Distance:     math.Round(d*p) / p,
			Stats:        e.Stats,
			Slug:         m.slugs[i],
			OfficialURL:  m.officialURL(e.ID),
			ReferenceURL: m.referenceURL(m.slugs[i]),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

func (m *Matcher) officialURL(id int) string {
	return fmt.Sprintf("%s%04d", m.officialURLBase, id)
}

func (m *Matcher) referenceURL(slug string) string {
	if slug == "" {
		return ""
	}
	return m.referenceURLBase + slug
}
