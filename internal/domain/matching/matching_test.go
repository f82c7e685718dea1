package matching_test

import (
	"errors"
	"testing"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func vec(hp, atk, def, spa, spd, spe float64) model.Vector {
	return model.Vector{HP: hp, Atk: atk, Def: def, SpA: spa, SpD: spd, Spe: spe}
}

func intPtr(i int) *int { return &i }

func TestParseMethodAndClamp(t *testing.T) {
	Convey("ParseMethod should normalise names", t, func() {
		m, err := matching.ParseMethod("  MANHATTAN ", matching.Euclidean)
		So(err, ShouldBeNil)
		So(m, ShouldEqual, matching.Manhattan)

		m, err = matching.ParseMethod("", matching.Euclidean)
		So(err, ShouldBeNil)
		So(m, ShouldEqual, matching.Euclidean)

		_, err = matching.ParseMethod("cosine", matching.Euclidean)
		So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
	})

	Convey("ClampTopK should bound values", t, func() {
		So(matching.ClampTopK(100, 20), ShouldEqual, 20)
		So(matching.ClampTopK(0, 20), ShouldEqual, 1)
		So(matching.ClampTopK(-4, 20), ShouldEqual, 1)
		So(matching.ClampTopK(5, 20), ShouldEqual, 5)
	})

	Convey("Distance should support both methods", t, func() {
		a := vec(0, 0, 0, 0, 0, 0)
		b := vec(3, 4, 0, 0, 0, 0)
		So(matching.Distance(matching.Euclidean, a, b), ShouldEqual, 5.0)
		So(matching.Distance(matching.Manhattan, a, b), ShouldEqual, 7.0)
	})
}

func TestMatch(t *testing.T) {
	Convey("Given a catalog with tied entities in reverse id order", t, func() {
		catalog := []model.Entity{
			{ID: 25, Name: "Pikachu", Stats: vec(5, 5, 5, 5, 5, 5)},
			{ID: 7, Name: "Squirtle", Stats: vec(5, 5, 5, 5, 5, 5)},
			{ID: 122, Name: "Mr. Mime", Stats: vec(9, 9, 9, 9, 9, 9)},
			{ID: 1, Name: "Bulbasaur", Stats: vec(6, 5, 5, 5, 5, 5)},
		}
		m := matching.NewMatcher(catalog)
		target := vec(5, 5, 5, 5, 5, 5)

		Convey("Ties should break by ascending id", func() {
			res, err := m.Match(matching.Query{StudentID: " S1 ", TopK: intPtr(3)}, &target)
			So(err, ShouldBeNil)
			So(res.Complete, ShouldBeTrue)
			So(res.StudentID, ShouldEqual, "S1")
			So(res.Method, ShouldEqual, matching.Euclidean)
			So(len(res.Results), ShouldEqual, 3)
			So(res.Results[0].ID, ShouldEqual, 7)
			So(res.Results[1].ID, ShouldEqual, 25)
			So(res.Results[2].ID, ShouldEqual, 1)
			So(res.Results[2].Distance, ShouldEqual, 1.0)
		})

		Convey("Order should not depend on catalog input order", func() {
			reversed := matching.NewMatcher([]model.Entity{catalog[3], catalog[2], catalog[1], catalog[0]})
			a := m.Rank(target, matching.Manhattan, 4)
			b := reversed.Rank(target, matching.Manhattan, 4)
			So(a, ShouldResemble, b)
		})

		Convey("Rank should return the nearest entity when k is below one", func() {
			for _, k := range []int{0, -1} {
				res := m.Rank(target, matching.Euclidean, k)
				So(len(res), ShouldEqual, 1)
				So(res[0].ID, ShouldEqual, 7)
			}
			So(matching.NewMatcher(nil).Rank(target, matching.Euclidean, -1), ShouldBeEmpty)
		})

		Convey("Results should carry slugs and URLs", func() {
			res := m.Rank(vec(9, 9, 9, 9, 9, 9), matching.Euclidean, 1)
			So(res[0].Slug, ShouldEqual, "mr-mime")
			So(res[0].OfficialURL, ShouldEqual, "https://tw.portal-pokemon.com/play/pokedex/0122")
			So(res[0].ReferenceURL, ShouldEqual, "https://www.pokemon.com/us/pokedex/mr-mime")
		})

		Convey("An incomplete student should get an empty result with a reason", func() {
			res, err := m.Match(matching.Query{StudentID: "S2"}, nil)
			So(err, ShouldBeNil)
			So(res.Complete, ShouldBeFalse)
			So(res.Reason, ShouldEqual, matching.ReasonIncomplete)
			So(res.Weighted, ShouldBeNil)
			So(res.Results, ShouldBeEmpty)
			So(res.TopK, ShouldEqual, matching.DefaultTopK)
		})

		Convey("Out of range top_k should be clamped", func() {
			res, err := m.Match(matching.Query{StudentID: "S1", TopK: intPtr(100)}, &target)
			So(err, ShouldBeNil)
			So(res.TopK, ShouldEqual, 20)
			So(len(res.Results), ShouldEqual, 4)

			res, err = m.Match(matching.Query{StudentID: "S1", TopK: intPtr(0)}, &target)
			So(err, ShouldBeNil)
			So(res.TopK, ShouldEqual, 1)
			So(len(res.Results), ShouldEqual, 1)
		})

		Convey("An unknown method should be rejected even for incomplete students", func() {
			_, err := m.Match(matching.Query{StudentID: "S2", Method: "chebyshev"}, nil)
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
		})
	})

	Convey("Given custom options", t, func() {
		m := matching.NewMatcher(
			[]model.Entity{{ID: 3, Name: "Venusaur", Stats: vec(1, 1, 1, 1, 1, 1)}},
			matching.WithDefaultMethod("manhattan"),
			matching.WithMaxTopK(2),
			matching.WithDefaultTopK(5),
			matching.WithOfficialURLBase("https://example.test/dex"),
			matching.WithReferenceURLBase("https://example.test/ref/"),
		)

		Convey("Defaults should follow them", func() {
			target := vec(1, 1, 1, 1, 1, 2)
			res, err := m.Match(matching.Query{StudentID: "S1"}, &target)
			So(err, ShouldBeNil)
			So(res.Method, ShouldEqual, matching.Manhattan)
			So(res.TopK, ShouldEqual, 2)
			So(res.Results[0].OfficialURL, ShouldEqual, "https://example.test/dex/0003")
			So(res.Results[0].ReferenceURL, ShouldEqual, "https://example.test/ref/venusaur")
			So(m.Size(), ShouldEqual, 1)
		})

		Convey("A max top_k above 20 should be ignored", func() {
			wide := matching.NewMatcher(nil, matching.WithMaxTopK(50))
			target := vec(1, 1, 1, 1, 1, 1)
			res, err := wide.Match(matching.Query{StudentID: "S1", TopK: intPtr(100)}, &target)
			So(err, ShouldBeNil)
			So(res.TopK, ShouldEqual, matching.DefaultMaxTopK)
		})
	})
}

func TestSlug(t *testing.T) {
	Convey("Slug should produce URL-safe names", t, func() {
		cases := map[string]string{
			"Pikachu":       "pikachu",
			"Mr. Mime":      "mr-mime",
			"Farfetch'd":    "farfetchd",
			"Nidoran♀":      "nidoran-f",
			"Nidoran ♂":     "nidoran-m",
			"Flabébé":       "flabebe",
			"  Type: Null ": "type-null",
			"Porygon - Z":   "porygon-z",
			"???":           "",
		}
		for in, want := range cases {
			So(matching.Slug(in), ShouldEqual, want)
		}
	})
}
