package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func uniform(v int) model.Scores {
	return model.Scores{HP: v, Atk: v, Def: v, SpA: v, SpD: v, Spe: v}
}

func rec(id uint, kind model.Kind, subject, rater string, s model.Scores) model.Record {
	return model.Record{ID: id, Kind: kind, SubjectID: subject, RaterID: rater, Scores: s, CreatedAt: time.Unix(int64(id), 0)}
}

func TestWeights(t *testing.T) {
	Convey("Given the default weights", t, func() {
		w := scoring.DefaultWeights()

		Convey("They should be 0.4 / 0.2 / 0.4 and valid", func() {
			So(w.Teacher, ShouldEqual, 0.40)
			So(w.Self, ShouldEqual, 0.20)
			So(w.Peer, ShouldEqual, 0.40)
			So(w.Validate(), ShouldBeNil)
		})

		Convey("Weights not summing to one should be rejected", func() {
			So(scoring.Weights{Teacher: 0.5, Self: 0.5, Peer: 0.5}.Validate(), ShouldNotBeNil)
			So(scoring.Weights{Teacher: 1.2, Self: -0.2, Peer: 0}.Validate(), ShouldNotBeNil)
		})
	})
}

func TestRoundAndCompose(t *testing.T) {
	Convey("Round should use two decimal places half away from zero", t, func() {
		So(scoring.Round(7.000000000000001, 2), ShouldEqual, 7.0)
		So(scoring.Round(6.666, 2), ShouldEqual, 6.67)
		So(scoring.Round(1.234567, 4), ShouldEqual, 1.2346)
	})

	Convey("Compose should blend teacher, self and peer vectors", t, func() {
		teacher := model.VectorOf([model.MetricCount]float64{8, 8, 8, 8, 8, 8})
		self := model.VectorOf([model.MetricCount]float64{7, 7, 7, 7, 7, 7})
		peer := model.VectorOf([model.MetricCount]float64{6, 6, 6, 6, 6, 6})

		w := scoring.Compose(scoring.DefaultWeights(), teacher, self, peer)
		So(w.HP, ShouldEqual, 7.0)
		So(w.Spe, ShouldEqual, 7.0)
		So(scoring.Mean(w), ShouldEqual, 7.0)
	})

	Convey("Average of nothing should report absence", t, func() {
		_, ok := scoring.Average(nil)
		So(ok, ShouldBeFalse)
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given an aggregator with default settings", t, func() {
		agg := scoring.NewAggregator()
		roster := []string{"S1", "S2", "S3"}

		Convey("When S1 has teacher, self and peer data", func() {
			teacher := []model.Record{rec(1, model.KindTeacher, "S1", "T1", uniform(8))}
			self := []model.Record{
				rec(1, model.KindSelf, "S1", "S1", uniform(2)),
				rec(2, model.KindSelf, "S1", "S1", uniform(7)),
			}
			peer := []model.Record{
				rec(1, model.KindPeer, "S1", "S2", uniform(5)),
				rec(2, model.KindPeer, "S1", "S3", uniform(7)),
			}

			rep := agg.Aggregate(roster, self, peer, teacher)

			Convey("Then the envelope should describe the class", func() {
				So(rep.ClassSize, ShouldEqual, 3)
				So(rep.CompleteCount, ShouldEqual, 1)
				So(rep.Weights, ShouldResemble, scoring.DefaultWeights())
				So(len(rep.Detail), ShouldEqual, 3)
				So(rep.Detail[0].UserID, ShouldEqual, "S1")
				So(rep.Detail[2].UserID, ShouldEqual, "S3")
			})

			Convey("Then S1 should be complete with the latest self record", func() {
				s := rep.Detail[0]
				So(s.Complete, ShouldBeTrue)
				So(s.PeerReceivedCount, ShouldEqual, 2)
				So(s.SelfLatest.HP, ShouldEqual, 7.0)
				So(s.PeerAvg.HP, ShouldEqual, 6.0)
				So(s.TeacherAvg.HP, ShouldEqual, 8.0)
				So(s.Weighted.HP, ShouldEqual, 7.0)
				So(*s.WeightedMean, ShouldEqual, 7.0)
			})

			Convey("Then students without data should be incomplete with null composites", func() {
				s := rep.Detail[1]
				So(s.Complete, ShouldBeFalse)
				So(s.HasSelf, ShouldBeFalse)
				So(s.HasTeacher, ShouldBeFalse)
				So(s.HasPeer, ShouldBeFalse)
				So(s.SelfLatest, ShouldBeNil)
				So(s.Weighted, ShouldBeNil)
				So(s.WeightedMean, ShouldBeNil)
			})
		})

		Convey("When the teacher record is missing", func() {
			self := []model.Record{rec(1, model.KindSelf, "S1", "S1", uniform(7))}
			peer := []model.Record{rec(1, model.KindPeer, "S1", "S2", uniform(7))}

			rep := agg.Aggregate(roster, self, peer, nil)

			Convey("Then S1 should be incomplete", func() {
				So(rep.Detail[0].Complete, ShouldBeFalse)
				So(rep.Detail[0].HasSelf, ShouldBeTrue)
				So(rep.Detail[0].HasPeer, ShouldBeTrue)
				So(rep.CompleteCount, ShouldEqual, 0)
			})
		})

		Convey("When records address students outside the roster", func() {
			teacher := []model.Record{rec(1, model.KindTeacher, "X9", "T1", uniform(8))}
			rep := agg.Aggregate(roster, nil, nil, teacher)

			Convey("Then they should not appear in the report", func() {
				So(len(rep.Detail), ShouldEqual, 3)
				for _, s := range rep.Detail {
					So(s.UserID, ShouldNotEqual, "X9")
				}
			})
		})

		Convey("When the roster is empty", func() {
			rep := agg.Aggregate(nil, nil, nil, nil)
			So(rep.ClassSize, ShouldEqual, 0)
			So(rep.Detail, ShouldBeEmpty)
		})
	})

	Convey("Given a higher peer threshold", t, func() {
		agg := scoring.NewAggregator(scoring.WithMinPeerReceived(2))
		teacher := []model.Record{rec(1, model.KindTeacher, "S1", "T1", uniform(8))}
		self := []model.Record{rec(1, model.KindSelf, "S1", "S1", uniform(7))}
		peer := []model.Record{rec(1, model.KindPeer, "S1", "S2", uniform(6))}

		Convey("A single peer record should not make the student complete", func() {
			rep := agg.Aggregate([]string{"S1"}, self, peer, teacher)
			So(rep.Detail[0].HasPeer, ShouldBeFalse)
			So(rep.Detail[0].PeerAvg, ShouldNotBeNil)
			So(rep.Detail[0].Complete, ShouldBeFalse)

			_, ok := agg.Composite("S1", self, peer, teacher)
			So(ok, ShouldBeFalse)
		})

		Convey("Invalid options should be ignored", func() {
			a := scoring.NewAggregator(scoring.WithMinPeerReceived(0), scoring.WithWeights(scoring.Weights{Teacher: 1, Self: 1}))
			So(a.MinPeerReceived(), ShouldEqual, scoring.DefaultMinPeerReceived)
			So(a.Weights(), ShouldResemble, scoring.DefaultWeights())
		})
	})
}
