package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/peereval/internal/adapters/repository"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func uniform(v int) model.Scores {
	return model.Scores{HP: v, Atk: v, Def: v, SpA: v, SpD: v, Spe: v}
}

type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func openStore(t *testing.T, path string) *repository.SQLStore {
	t.Helper()
	clock := &tickClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := repository.Open(context.Background(), path, repository.WithClock(clock.now))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given an empty in-memory store", t, func() {
		s := openStore(t, repository.MemoryPath)

		Convey("When a self rating is submitted twice", func() {
			first, err := s.SubmitSelf(ctx, "S1", uniform(3))
			So(err, ShouldBeNil)
			second, err := s.SubmitSelf(ctx, "S1", uniform(7))
			So(err, ShouldBeNil)

			Convey("Then both rows should be kept in insertion order", func() {
				So(second.ID, ShouldBeGreaterThan, first.ID)
				recs, err := s.SelfRecords(ctx)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 2)
				So(recs[0].Scores.HP, ShouldEqual, 3)
				So(recs[1].Scores.HP, ShouldEqual, 7)
				So(recs[1].Kind, ShouldEqual, model.KindSelf)
				So(recs[1].SubjectID, ShouldEqual, "S1")
			})
		})

		Convey("When a peer rating is submitted twice for the same pair", func() {
			first, err := s.SubmitPeer(ctx, "S1", "S2", uniform(4))
			So(err, ShouldBeNil)
			second, err := s.SubmitPeer(ctx, "S1", "S2", uniform(9))
			So(err, ShouldBeNil)

			Convey("Then a single row should remain with the latest values", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(second.CreatedAt.After(first.CreatedAt), ShouldBeTrue)
				recs, err := s.PeerRecords(ctx)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].Scores, ShouldResemble, uniform(9))
				So(recs[0].RaterID, ShouldEqual, "S1")
				So(recs[0].SubjectID, ShouldEqual, "S2")
			})

			Convey("Then the reverse direction should be a distinct pair", func() {
				_, err := s.SubmitPeer(ctx, "S2", "S1", uniform(5))
				So(err, ShouldBeNil)
				c, err := s.Counts(ctx)
				So(err, ShouldBeNil)
				So(c.Peer, ShouldEqual, 2)
			})

			Convey("Then the rater's targets should be listed", func() {
				_, err := s.SubmitPeer(ctx, "S1", "S3", uniform(5))
				So(err, ShouldBeNil)
				targets, err := s.PeerTargetsRatedBy(ctx, "S1")
				So(err, ShouldBeNil)
				So(targets, ShouldResemble, []string{"S2", "S3"})

				none, err := s.PeerTargetsRatedBy(ctx, "S9")
				So(err, ShouldBeNil)
				So(none, ShouldBeEmpty)
			})
		})

		Convey("When a teacher rating is submitted twice for the same pair", func() {
			first, err := s.SubmitTeacher(ctx, "T1", "S1", uniform(6))
			So(err, ShouldBeNil)
			second, err := s.SubmitTeacher(ctx, "T1", "S1", uniform(8))
			So(err, ShouldBeNil)
			_, err = s.SubmitTeacher(ctx, "T2", "S1", uniform(2))
			So(err, ShouldBeNil)

			Convey("Then one row per teacher should remain", func() {
				So(second.ID, ShouldEqual, first.ID)
				recs, err := s.TeacherRecords(ctx)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 2)
				So(recs[0].Scores.HP, ShouldEqual, 8)
				So(recs[0].RaterID, ShouldEqual, "T1")
				So(recs[1].RaterID, ShouldEqual, "T2")
			})
		})

		Convey("When a metric is out of range", func() {
			bad := uniform(5)
			bad.Spe = 11
			_, err := s.SubmitPeer(ctx, "S1", "S2", bad)

			Convey("Then it should be rejected without writing", func() {
				So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
				c, err := s.Counts(ctx)
				So(err, ShouldBeNil)
				So(c, ShouldResemble, repository.Counts{})
			})
		})

		Convey("When an id is blank", func() {
			_, err := s.SubmitTeacher(ctx, "T1", "  ", uniform(5))
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When every table has rows", func() {
			_, err := s.SubmitSelf(ctx, "S1", uniform(2))
			So(err, ShouldBeNil)
			_, err = s.SubmitSelf(ctx, "S1", uniform(4))
			So(err, ShouldBeNil)
			_, err = s.SubmitPeer(ctx, "S2", "S1", uniform(6))
			So(err, ShouldBeNil)
			_, err = s.SubmitTeacher(ctx, "T1", "S1", uniform(8))
			So(err, ShouldBeNil)

			Convey("Then a snapshot should match the per-table reads", func() {
				snap, err := s.Snapshot(ctx)
				So(err, ShouldBeNil)
				self, _ := s.SelfRecords(ctx)
				peer, _ := s.PeerRecords(ctx)
				teacher, _ := s.TeacherRecords(ctx)
				So(snap.Self, ShouldResemble, self)
				So(snap.Peer, ShouldResemble, peer)
				So(snap.Teacher, ShouldResemble, teacher)
				So(len(snap.Self), ShouldEqual, 2)
				So(snap.Teacher[0].Scores.HP, ShouldEqual, 8)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			_, err := s.SubmitSelf(ctx, "S1", uniform(5))
			So(errors.Is(err, errs.ErrPersistence), ShouldBeTrue)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)

			_, err = s.Snapshot(ctx)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})

	Convey("Given concurrent upserts to the same pair", t, func() {
		s := openStore(t, repository.MemoryPath)
		var wg sync.WaitGroup
		for i := 1; i <= 10; i++ {
			wg.Add(1)
			go func(v int) {
				defer wg.Done()
				_, _ = s.SubmitPeer(ctx, "S1", "S2", uniform(v))
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one row should exist", func() {
			recs, err := s.PeerRecords(ctx)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
		})
	})

	Convey("Given a file-backed store that is reopened", t, func() {
		path := filepath.Join(t.TempDir(), "scores.db")
		s, err := repository.Open(ctx, path)
		So(err, ShouldBeNil)
		_, err = s.SubmitTeacher(ctx, "T1", "S1", uniform(5))
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		reopened := openStore(t, path)

		Convey("Then earlier rows should survive", func() {
			recs, err := reopened.TeacherRecords(ctx)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := repository.Open(ctx, " ")
		So(errors.Is(err, repository.ErrEmptyPath), ShouldBeTrue)
	})
}
