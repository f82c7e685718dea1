package service_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/okian/peereval/internal/adapters/auth"
	"github.com/okian/peereval/internal/adapters/repository"
	service "github.com/okian/peereval/internal/app"
	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDirectory struct {
	roster  []string
	targets map[string][]string
	catalog []model.Entity
}

func (f *fakeDirectory) Roster() []string              { return slices.Clone(f.roster) }
func (f *fakeDirectory) InRoster(id string) bool       { return slices.Contains(f.roster, id) }
func (f *fakeDirectory) Targets(rater string) []string { return slices.Clone(f.targets[rater]) }
func (f *fakeDirectory) Catalog() []model.Entity       { return slices.Clone(f.catalog) }

type fakeIdentity struct {
	tokens  map[string]model.Identity
	revoked []string
}

func (f *fakeIdentity) Login(_ context.Context, role model.Role, userID, password string) (auth.Session, error) {
	if password != "1234" {
		return auth.Session{}, errs.New("fake.login", errs.ErrUnauthenticated)
	}
	return auth.Session{AccessToken: "tok-" + userID, Role: role, UserID: userID, NextPath: auth.NextPath(role)}, nil
}

func (f *fakeIdentity) Authenticate(_ context.Context, token string) (model.Identity, error) {
	id, ok := f.tokens[token]
	if !ok {
		return model.Identity{}, errs.New("fake.authenticate", errs.ErrInvalidToken)
	}
	return id, nil
}

func (f *fakeIdentity) Logout(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeIdentity) Profile(_ context.Context, id model.Identity) (model.User, error) {
	return model.User{Role: id.Role, UserID: id.UserID, DisplayName: "Name " + id.UserID}, nil
}

var (
	master  = model.Identity{Role: model.RoleMaster, UserID: "admin"}
	teacher = model.Identity{Role: model.RoleTeacher, UserID: "T01"}
	s1      = model.Identity{Role: model.RoleStudent, UserID: "S01"}
	s2      = model.Identity{Role: model.RoleStudent, UserID: "S02"}
	s3      = model.Identity{Role: model.RoleStudent, UserID: "S03"}
	outside = model.Identity{Role: model.RoleStudent, UserID: "S99"}
)

func uniform(v int) model.Scores {
	return model.Scores{HP: v, Atk: v, Def: v, SpA: v, SpD: v, Spe: v}
}

func newService(t *testing.T) *service.Service {
	t.Helper()
	store, err := repository.Open(context.Background(), repository.MemoryPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	dir := &fakeDirectory{
		roster: []string{"S01", "S02", "S03"},
		targets: map[string][]string{
			"S01": {"S02", "S03"},
			"S02": {"S03", "S01"},
			"S03": {"S01", "S02"},
		},
		catalog: []model.Entity{
			{ID: 25, Name: "Pikachu", Stats: model.Vector{HP: 7, Atk: 7, Def: 7, SpA: 7, SpD: 7, Spe: 7}},
			{ID: 7, Name: "Squirtle", Stats: model.Vector{HP: 7, Atk: 7, Def: 7, SpA: 7, SpD: 7, Spe: 7}},
			{ID: 150, Name: "Mewtwo", Stats: model.Vector{HP: 10, Atk: 10, Def: 10, SpA: 10, SpD: 10, Spe: 10}},
		},
	}
	svc := service.New(
		service.WithStore(store),
		service.WithIdentity(&fakeIdentity{tokens: map[string]model.Identity{"good": s1}}),
		service.WithRoster(dir),
		service.WithAssignments(dir),
		service.WithCatalog(dir),
		service.WithIdempotencySize(16),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestSubmissions(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := newService(t)

		Convey("Students may submit self ratings, others may not", func() {
			_, err := svc.SubmitSelf(ctx, s1, uniform(7))
			So(err, ShouldBeNil)

			_, err = svc.SubmitSelf(ctx, teacher, uniform(7))
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)

			_, err = svc.SubmitSelf(ctx, outside, uniform(7))
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)
		})

		Convey("Out of range scores should be rejected", func() {
			bad := uniform(5)
			bad.HP = 0
			_, err := svc.SubmitSelf(ctx, s1, bad)
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
			So(errs.Code(err), ShouldEqual, "VALIDATION_ERROR")
		})

		Convey("Peer ratings should enforce self, roster and assignment rules", func() {
			_, err := svc.SubmitPeer(ctx, s1, "S02", uniform(6))
			So(err, ShouldBeNil)

			_, err = svc.SubmitPeer(ctx, s1, " S01 ", uniform(6))
			So(errors.Is(err, errs.ErrCannotRateSelf), ShouldBeTrue)

			_, err = svc.SubmitPeer(ctx, s1, "S42", uniform(6))
			So(errors.Is(err, errs.ErrTargetNotInRoster), ShouldBeTrue)

			_, err = svc.SubmitPeer(ctx, outside, "S01", uniform(6))
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)

			_, err = svc.SubmitPeer(ctx, teacher, "S01", uniform(6))
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)

			_, err = svc.SubmitPeer(ctx, s1, "", uniform(6))
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("A peer rating of an unassigned classmate should be refused", func() {
			svcDir := &fakeDirectory{roster: []string{"S01", "S02", "S03"}, targets: map[string][]string{"S01": {"S02"}}}
			store, err := repository.Open(ctx, repository.MemoryPath)
			So(err, ShouldBeNil)
			narrow := service.New(
				service.WithStore(store),
				service.WithIdentity(&fakeIdentity{}),
				service.WithRoster(svcDir),
				service.WithAssignments(svcDir),
				service.WithCatalog(svcDir),
			)
			So(narrow.Start(ctx), ShouldBeNil)
			defer narrow.Stop()

			_, err = narrow.SubmitPeer(ctx, s1, "S03", uniform(6))
			So(errors.Is(err, errs.ErrTargetNotAssigned), ShouldBeTrue)
		})

		Convey("Rating oneself should be refused even when self is assigned", func() {
			selfDir := &fakeDirectory{roster: []string{"S01", "S02"}, targets: map[string][]string{"S01": {"S01", "S02"}}}
			store, err := repository.Open(ctx, repository.MemoryPath)
			So(err, ShouldBeNil)
			loose := service.New(
				service.WithStore(store),
				service.WithIdentity(&fakeIdentity{}),
				service.WithRoster(selfDir),
				service.WithAssignments(selfDir),
				service.WithCatalog(selfDir),
			)
			So(loose.Start(ctx), ShouldBeNil)
			defer loose.Stop()

			_, err = loose.SubmitPeer(ctx, s1, "S01", uniform(5))
			So(errors.Is(err, errs.ErrCannotRateSelf), ShouldBeTrue)
			So(errs.Code(err), ShouldEqual, "CANNOT_RATE_SELF")

			_, err = loose.SubmitPeer(ctx, s1, "S01", uniform(11))
			So(errors.Is(err, errs.ErrCannotRateSelf), ShouldBeTrue)
			So(errs.Code(err), ShouldEqual, "CANNOT_RATE_SELF")

			_, err = loose.SubmitPeer(ctx, s1, "S02", uniform(11))
			So(errs.Code(err), ShouldEqual, "VALIDATION_ERROR")
		})

		Convey("Teacher ratings should require the teacher role and a roster target", func() {
			_, err := svc.SubmitTeacher(ctx, teacher, "S01", uniform(8))
			So(err, ShouldBeNil)

			_, err = svc.SubmitTeacher(ctx, teacher, "X1", uniform(8))
			So(errors.Is(err, errs.ErrTargetNotInRoster), ShouldBeTrue)

			_, err = svc.SubmitTeacher(ctx, master, "S01", uniform(8))
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)
		})

		Convey("Idempotency keys should be remembered", func() {
			So(svc.SeenAndRecord(ctx, "S01:self:k1"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "S01:self:k1"), ShouldBeTrue)
			svc.Unrecord(ctx, "S01:self:k1")
			So(svc.Size(), ShouldEqual, 0)
		})
	})
}

func TestReports(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given S01 has complete data", t, func() {
		svc := newService(t)
		_, err := svc.SubmitTeacher(ctx, teacher, "S01", uniform(8))
		So(err, ShouldBeNil)
		_, err = svc.SubmitSelf(ctx, s1, uniform(7))
		So(err, ShouldBeNil)
		_, err = svc.SubmitPeer(ctx, s2, "S01", uniform(6))
		So(err, ShouldBeNil)
		_, err = svc.SubmitPeer(ctx, s3, "S01", uniform(6))
		So(err, ShouldBeNil)

		Convey("The summary should only be available to the master", func() {
			_, err := svc.Summary(ctx, teacher)
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)

			rep, err := svc.Summary(ctx, master)
			So(err, ShouldBeNil)
			So(rep.ClassSize, ShouldEqual, 3)
			So(rep.CompleteCount, ShouldEqual, 1)
			So(rep.Detail[0].Weighted.HP, ShouldEqual, 7.0)
			So(*rep.Detail[0].WeightedMean, ShouldEqual, 7.0)
		})

		Convey("Match should rank by distance then id", func() {
			k := 2
			res, err := svc.Match(ctx, master, matching.Query{StudentID: "S01", TopK: &k})
			So(err, ShouldBeNil)
			So(res.Complete, ShouldBeTrue)
			So(len(res.Results), ShouldEqual, 2)
			So(res.Results[0].ID, ShouldEqual, 7)
			So(res.Results[1].ID, ShouldEqual, 25)
			So(res.Results[0].Distance, ShouldEqual, 0.0)
		})

		Convey("Match for an incomplete or unknown student should be empty", func() {
			res, err := svc.Match(ctx, master, matching.Query{StudentID: "S02"})
			So(err, ShouldBeNil)
			So(res.Complete, ShouldBeFalse)
			So(res.Reason, ShouldEqual, matching.ReasonIncomplete)
			So(res.Results, ShouldBeEmpty)

			res, err = svc.Match(ctx, master, matching.Query{StudentID: "nobody"})
			So(err, ShouldBeNil)
			So(res.Complete, ShouldBeFalse)
		})

		Convey("Match should reject bad parameters", func() {
			_, err := svc.Match(ctx, master, matching.Query{StudentID: "S01", Method: "cosine"})
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)

			_, err = svc.Match(ctx, master, matching.Query{})
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)

			_, err = svc.Match(ctx, s1, matching.Query{StudentID: "S01"})
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)
		})

		Convey("Completion should be a teacher report", func() {
			rep, err := svc.Completion(ctx, teacher)
			So(err, ShouldBeNil)
			So(rep.RequiredPeerGiven, ShouldEqual, completion.DefaultPeerGiven)
			So(rep.NotSubmittedSelf, ShouldResemble, []string{"S02", "S03"})
			So(rep.NotDoneTeacher, ShouldResemble, []string{"S02", "S03"})
			So(rep.Detail[0].PeerReceivedDone, ShouldBeTrue)

			_, err = svc.Completion(ctx, master)
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)
		})

		Convey("Assigned peers should split done and pending", func() {
			a, err := svc.AssignedPeers(ctx, s2)
			So(err, ShouldBeNil)
			So(a.Targets, ShouldResemble, []string{"S03", "S01"})
			So(a.Done, ShouldResemble, []string{"S01"})
			So(a.Pending, ShouldResemble, []string{"S03"})
		})

		Convey("Students should list the roster for teachers", func() {
			ids, err := svc.Students(ctx, teacher)
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []string{"S01", "S02", "S03"})

			_, err = svc.Students(ctx, s1)
			So(errors.Is(err, errs.ErrForbidden), ShouldBeTrue)
		})

		Convey("Stats should count records", func() {
			st, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(st.Started, ShouldBeTrue)
			So(st.Records.Peer, ShouldEqual, 2)
			So(st.CatalogSize, ShouldEqual, 3)
		})
	})
}

func TestIdentityAndLifecycle(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := newService(t)

		Convey("Login should validate the role", func() {
			sess, err := svc.Login(ctx, "Student", "S01", "1234")
			So(err, ShouldBeNil)
			So(sess.NextPath, ShouldEqual, "/student/index.html")

			_, err = svc.Login(ctx, "janitor", "S01", "1234")
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)

			_, err = svc.Login(ctx, "student", "S01", "wrong")
			So(errors.Is(err, errs.ErrUnauthenticated), ShouldBeTrue)
		})

		Convey("Authenticate and Me should resolve the caller", func() {
			id, err := svc.Authenticate(ctx, "good")
			So(err, ShouldBeNil)
			So(id, ShouldResemble, s1)

			p, err := svc.Me(ctx, id)
			So(err, ShouldBeNil)
			So(p.DisplayName, ShouldEqual, "Name S01")
			So(p.NextPath, ShouldEqual, "/student/index.html")

			_, err = svc.Authenticate(ctx, "bad")
			So(errors.Is(err, errs.ErrInvalidToken), ShouldBeTrue)
		})

		Convey("Logout should be forwarded", func() {
			So(svc.Logout(ctx, "good"), ShouldBeNil)
		})
	})

	Convey("Given a service missing dependencies", t, func() {
		svc := service.New()
		So(errors.Is(svc.Start(ctx), service.ErrMissingStore), ShouldBeTrue)

		_, err := svc.Summary(ctx, master)
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
	})
}
