package datasource

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	"github.com/okian/peereval/pkg/metrics"
)

// Paths locates the three data files.
type Paths struct {
	Users       string
	Assignments string
	Catalog     string
}

// Directory is the read-only view of users, roster, assignments and catalog.
// It is built once and never mutated, so it is safe for concurrent use.
type Directory struct {
	users       map[userKey]model.User
	roster      []string
	rosterSet   map[string]struct{}
	assignments map[string][]string
	catalog     []model.Entity
	skipped     int
}

type userKey struct {
	role model.Role
	id   string
}

// Load reads all three files concurrently and builds a Directory. Any
// missing file or column is fatal.
func Load(ctx context.Context, p Paths, opts ...Option) (*Directory, error) {
	cfg := defaultLoadConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Named("datasource")
	}

	var (
		users       []model.User
		assignments map[string][]string
		catalog     []model.Entity
		skipped     int
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = LoadUsers(p.Users, cfg.bcryptCost)
		return err
	})
	g.Go(func() (err error) {
		assignments, err = LoadAssignments(p.Assignments)
		return err
	})
	g.Go(func() (err error) {
		catalog, skipped, err = LoadCatalog(p.Catalog)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := NewDirectory(ctx, users, assignments, catalog, cfg.log)
	d.skipped = skipped
	if skipped > 0 {
		cfg.log.Warn(ctx, "skipped malformed catalog rows", logger.Int("rows", skipped))
	}
	metrics.UpdateDataSources(len(d.roster), len(d.catalog), skipped)
	cfg.log.Info(ctx, "data sources loaded",
		logger.Int("users", len(d.users)),
		logger.Int("roster", len(d.roster)),
		logger.Int("raters", len(d.assignments)),
		logger.Int("catalog", len(d.catalog)))
	return d, nil
}

// NewDirectory builds a Directory from already loaded data. The roster is
// the student ids sorted ascending. Self-targets are dropped from
// assignments; targets outside the roster are kept but logged.
func NewDirectory(ctx context.Context, users []model.User, assignments map[string][]string, catalog []model.Entity, log logger.Logger) *Directory {
	d := &Directory{
		users:       make(map[userKey]model.User, len(users)),
		rosterSet:   make(map[string]struct{}),
		assignments: make(map[string][]string, len(assignments)),
		catalog:     append([]model.Entity(nil), catalog...),
	}
	for _, u := range users {
		d.users[userKey{u.Role, u.UserID}] = u
		if u.Role == model.RoleStudent {
			if _, dup := d.rosterSet[u.UserID]; !dup {
				d.rosterSet[u.UserID] = struct{}{}
				d.roster = append(d.roster, u.UserID)
			}
		}
	}
	sort.Strings(d.roster)

	for rater, targets := range assignments {
		kept := make([]string, 0, len(targets))
		for _, t := range targets {
			if t == rater {
				if log != nil {
					log.Warn(ctx, "dropping self assignment", logger.String("rater", rater))
				}
				continue
			}
			if _, ok := d.rosterSet[t]; !ok && log != nil {
				log.Warn(ctx, "assignment target not in roster",
					logger.String("rater", rater), logger.String("target", t))
			}
			kept = append(kept, t)
		}
		d.assignments[rater] = kept
	}
	return d
}

// User returns the account for (role, id).
func (d *Directory) User(role model.Role, id string) (model.User, bool) {
	u, ok := d.users[userKey{role, id}]
	return u, ok
}

// Roster returns a copy of the sorted student ids.
func (d *Directory) Roster() []string {
	return append([]string{}, d.roster...)
}

// InRoster reports whether id is a student.
func (d *Directory) InRoster(id string) bool {
	_, ok := d.rosterSet[id]
	return ok
}

// Targets returns a copy of the targets assigned to rater in file order.
func (d *Directory) Targets(rater string) []string {
	return append([]string{}, d.assignments[rater]...)
}

// Catalog returns a copy of the reference entities.
func (d *Directory) Catalog() []model.Entity {
	return append([]model.Entity(nil), d.catalog...)
}

// CatalogSkipped returns how many catalog rows failed to parse.
func (d *Directory) CatalogSkipped() int { return d.skipped }
