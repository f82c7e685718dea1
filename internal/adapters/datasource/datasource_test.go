package datasource_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/peereval/internal/adapters/datasource"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const usersCSV = "\ufeffrole,user_id,password,display_name\n" +
	"teacher,T01,1234,Teacher One\n" +
	"student,S03,pw3,\n" +
	"student,S01,pw1,Ash\n" +
	"student,S02,pw2,Misty\n" +
	"master,admin,root,Master\n" +
	"janitor,J1,x,Nope\n" +
	"student,,pw,Blank\n"

const assignmentsCSV = "rater_id,target_id\n" +
	"S01,S02\n" +
	"S01,S03\n" +
	"S01,S01\n" +
	"S01,S02\n" +
	"S02,S99\n" +
	",S01\n"

const catalogCSV = "poke_num,poke_name,hp,atk,def,spa,spd,spe\n" +
	"1,Bulbasaur,5,5,5,6,6,5\n" +
	"25,Pikachu,4,6,4,5,5,9\n" +
	"x,Broken,1,1,1,1,1,1\n" +
	"7,Squirtle,5,5,6,5,6,4.5\n" +
	"8,Wartortle,5,5,6,5,6,\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoaders(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a users file", t, func() {
		dir := t.TempDir()
		path := writeFile(t, dir, "users.csv", usersCSV)

		users, err := datasource.LoadUsers(path, bcrypt.MinCost)
		So(err, ShouldBeNil)

		Convey("Then unknown roles and blank ids should be skipped", func() {
			So(len(users), ShouldEqual, 5)
		})

		Convey("Then passwords should be hashed and display names defaulted", func() {
			var s3 model.User
			for _, u := range users {
				if u.UserID == "S03" {
					s3 = u
				}
			}
			So(s3.DisplayName, ShouldEqual, "S03")
			So(bcrypt.CompareHashAndPassword(s3.PasswordHash, []byte("pw3")), ShouldBeNil)
		})

		Convey("Then an existing bcrypt hash should be kept", func() {
			hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
			So(err, ShouldBeNil)
			p := writeFile(t, dir, "hashed.csv", "role,user_id,password,display_name\nstudent,S1,"+string(hash)+",One\n")
			users, err := datasource.LoadUsers(p, bcrypt.MinCost)
			So(err, ShouldBeNil)
			So(string(users[0].PasswordHash), ShouldEqual, string(hash))
		})
	})

	Convey("Given missing files or columns", t, func() {
		dir := t.TempDir()

		Convey("A missing file should be a data source error", func() {
			_, err := datasource.LoadUsers(filepath.Join(dir, "nope.csv"), bcrypt.MinCost)
			So(errors.Is(err, errs.ErrDataSourceMissing), ShouldBeTrue)
		})

		Convey("A missing column should be reported", func() {
			p := writeFile(t, dir, "bad.csv", "poke_num,poke_name,hp\n1,A,1\n")
			_, _, err := datasource.LoadCatalog(p)
			So(errors.Is(err, errs.ErrDataSourceMissing), ShouldBeTrue)
			So(errors.Is(err, datasource.ErrMissingColumns), ShouldBeTrue)
		})

		Convey("An empty file should be reported", func() {
			p := writeFile(t, dir, "empty.csv", "")
			_, err := datasource.LoadAssignments(p)
			So(errors.Is(err, datasource.ErrEmptyFile), ShouldBeTrue)
		})
	})

	Convey("Given a catalog with malformed rows", t, func() {
		p := writeFile(t, t.TempDir(), "poke.csv", catalogCSV)
		entities, skipped, err := datasource.LoadCatalog(p)

		Convey("Then they should be skipped and counted", func() {
			So(err, ShouldBeNil)
			So(skipped, ShouldEqual, 2)
			So(len(entities), ShouldEqual, 3)
			So(entities[2].Name, ShouldEqual, "Squirtle")
			So(entities[2].Stats.Spe, ShouldEqual, 4.5)
		})
	})

	Convey("Given an assignments file", t, func() {
		p := writeFile(t, t.TempDir(), "peer_assignments.csv", assignmentsCSV)
		m, err := datasource.LoadAssignments(p)

		Convey("Then repeated pairs and blank rows should be dropped", func() {
			So(err, ShouldBeNil)
			So(m["S01"], ShouldResemble, []string{"S02", "S03", "S01"})
			So(m["S02"], ShouldResemble, []string{"S99"})
		})
	})
}

func TestDirectory(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a full set of data files", t, func() {
		dir := t.TempDir()
		paths := datasource.Paths{
			Users:       writeFile(t, dir, "users.csv", usersCSV),
			Assignments: writeFile(t, dir, "peer_assignments.csv", assignmentsCSV),
			Catalog:     writeFile(t, dir, "poke.csv", catalogCSV),
		}

		d, err := datasource.Load(context.Background(), paths, datasource.WithBcryptCost(bcrypt.MinCost))
		So(err, ShouldBeNil)

		Convey("Then the roster should be the sorted student ids", func() {
			So(d.Roster(), ShouldResemble, []string{"S01", "S02", "S03"})
			So(d.InRoster("S02"), ShouldBeTrue)
			So(d.InRoster("T01"), ShouldBeFalse)
		})

		Convey("Then users should be keyed by role and id", func() {
			u, ok := d.User(model.RoleTeacher, "T01")
			So(ok, ShouldBeTrue)
			So(u.DisplayName, ShouldEqual, "Teacher One")
			_, ok = d.User(model.RoleStudent, "T01")
			So(ok, ShouldBeFalse)
		})

		Convey("Then self assignments should be dropped", func() {
			So(d.Targets("S01"), ShouldResemble, []string{"S02", "S03"})
			So(d.Targets("S02"), ShouldResemble, []string{"S99"})
			So(d.Targets("S03"), ShouldBeEmpty)
		})

		Convey("Then the catalog should be available", func() {
			So(len(d.Catalog()), ShouldEqual, 3)
			So(d.CatalogSkipped(), ShouldEqual, 2)
		})

		Convey("Then returned slices should be copies", func() {
			r := d.Roster()
			r[0] = "changed"
			So(d.Roster()[0], ShouldEqual, "S01")
		})
	})

	Convey("Given a missing catalog file", t, func() {
		dir := t.TempDir()
		paths := datasource.Paths{
			Users:       writeFile(t, dir, "users.csv", usersCSV),
			Assignments: writeFile(t, dir, "peer_assignments.csv", assignmentsCSV),
			Catalog:     filepath.Join(dir, "poke.csv"),
		}

		_, err := datasource.Load(context.Background(), paths)
		So(errors.Is(err, errs.ErrDataSourceMissing), ShouldBeTrue)
	})
}
