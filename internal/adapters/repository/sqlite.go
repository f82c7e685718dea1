package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	"github.com/okian/peereval/pkg/metrics"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultBusyTimeout = 5 * time.Second

// SQLStore is a Store backed by sqlite through gorm. The pool holds a single
// connection so writes are serialised.
type SQLStore struct {
	db          *gorm.DB
	now         func() time.Time
	log         logger.Logger
	busyTimeout time.Duration
	closed      atomic.Bool
}

var _ Store = (*SQLStore)(nil)

// Open connects to the database at path, removes legacy duplicate pairs and
// migrates the schema.
func Open(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	s := &SQLStore{
		now:         time.Now,
		busyTimeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("repository")
	}

	db, err := gorm.Open(sqlite.Open(s.dsn(path)), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return s.now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) dsn(path string) string {
	if path == MemoryPath {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, s.busyTimeout.Milliseconds())
}

func (s *SQLStore) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	legacy := []struct {
		model any
		table string
		pair  string
	}{
		{&peerRow{}, "scores_peer", "rater_user_id, target_user_id"},
		{&teacherRow{}, "scores_teacher", "teacher_user_id, target_user_id"},
	}
	for _, l := range legacy {
		if !db.Migrator().HasTable(l.model) {
			continue
		}
		res := db.Exec(fmt.Sprintf(
			"DELETE FROM %s WHERE id NOT IN (SELECT MAX(id) FROM %s GROUP BY %s)",
			l.table, l.table, l.pair))
		if res.Error != nil {
			return fmt.Errorf("dedupe %s: %w", l.table, res.Error)
		}
		if res.RowsAffected > 0 {
			s.log.Warn(ctx, "removed duplicate score pairs",
				logger.String("table", l.table),
				logger.Int("rows", int(res.RowsAffected)))
		}
	}
	if err := db.AutoMigrate(&selfRow{}, &peerRow{}, &teacherRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SubmitSelf appends a self rating.
func (s *SQLStore) SubmitSelf(ctx context.Context, subjectID string, scores model.Scores) (model.Record, error) {
	const op = "repository.submit_self"
	if err := s.precheck(op, scores, subjectID); err != nil {
		return model.Record{}, err
	}
	row := selfRow{UserID: subjectID, CreatedAt: s.now().UTC(), ScoreColumns: columnsOf(scores)}

	start := time.Now()
	err := s.db.WithContext(ctx).Create(&row).Error
	metrics.RecordStoreWriteLatency(string(model.KindSelf), time.Since(start))
	if err != nil {
		return model.Record{}, s.fail(ctx, op, err)
	}
	return row.record(), nil
}

// SubmitPeer upserts the (rater, target) rating, keeping the row id.
func (s *SQLStore) SubmitPeer(ctx context.Context, raterID, targetID string, scores model.Scores) (model.Record, error) {
	const op = "repository.submit_peer"
	if err := s.precheck(op, scores, raterID, targetID); err != nil {
		return model.Record{}, err
	}
	row := peerRow{RaterUserID: raterID, TargetUserID: targetID, CreatedAt: s.now().UTC(), ScoreColumns: columnsOf(scores)}

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(upsertOn("rater_user_id", "target_user_id")).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("rater_user_id = ? AND target_user_id = ?", raterID, targetID).Take(&row).Error
	})
	metrics.RecordStoreWriteLatency(string(model.KindPeer), time.Since(start))
	if err != nil {
		return model.Record{}, s.fail(ctx, op, err)
	}
	return row.record(), nil
}

// SubmitTeacher upserts the (teacher, target) rating, keeping the row id.
func (s *SQLStore) SubmitTeacher(ctx context.Context, teacherID, targetID string, scores model.Scores) (model.Record, error) {
	const op = "repository.submit_teacher"
	if err := s.precheck(op, scores, teacherID, targetID); err != nil {
		return model.Record{}, err
	}
	row := teacherRow{TeacherUserID: teacherID, TargetUserID: targetID, CreatedAt: s.now().UTC(), ScoreColumns: columnsOf(scores)}

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(upsertOn("teacher_user_id", "target_user_id")).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("teacher_user_id = ? AND target_user_id = ?", teacherID, targetID).Take(&row).Error
	})
	metrics.RecordStoreWriteLatency(string(model.KindTeacher), time.Since(start))
	if err != nil {
		return model.Record{}, s.fail(ctx, op, err)
	}
	return row.record(), nil
}

// upsertOn refreshes the timestamp and metrics when the key pair already exists.
func upsertOn(keys ...string) clause.OnConflict {
	cols := make([]clause.Column, len(keys))
	for i, k := range keys {
		cols[i] = clause.Column{Name: k}
	}
	return clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(append([]string{"created_at"}, metricColumns...)),
	}
}

// SelfRecords returns every self row, oldest first.
func (s *SQLStore) SelfRecords(ctx context.Context) ([]model.Record, error) {
	return readTable(ctx, s, "repository.self_records", selfRow.record)
}

// PeerRecords returns every peer row, oldest first.
func (s *SQLStore) PeerRecords(ctx context.Context) ([]model.Record, error) {
	return readTable(ctx, s, "repository.peer_records", peerRow.record)
}

// TeacherRecords returns every teacher row, oldest first.
func (s *SQLStore) TeacherRecords(ctx context.Context) ([]model.Record, error) {
	return readTable(ctx, s, "repository.teacher_records", teacherRow.record)
}

// Snapshot reads the three tables inside one transaction. The store holds a
// single connection, so no write can land between the reads.
func (s *SQLStore) Snapshot(ctx context.Context) (Snapshot, error) {
	const op = "repository.snapshot"
	if s.closed.Load() {
		return Snapshot{}, errs.Wrap(op, errs.ErrPersistence, ErrClosed)
	}
	var snap Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if snap.Self, err = findRecords(tx, selfRow.record); err != nil {
			return err
		}
		if snap.Peer, err = findRecords(tx, peerRow.record); err != nil {
			return err
		}
		snap.Teacher, err = findRecords(tx, teacherRow.record)
		return err
	})
	if err != nil {
		return Snapshot{}, s.fail(ctx, op, err)
	}
	return snap, nil
}

func readTable[R any](ctx context.Context, s *SQLStore, op string, conv func(R) model.Record) ([]model.Record, error) {
	if s.closed.Load() {
		return nil, errs.Wrap(op, errs.ErrPersistence, ErrClosed)
	}
	out, err := findRecords(s.db.WithContext(ctx), conv)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return out, nil
}

// findRecords loads every row of R's table ordered by id.
func findRecords[R any](db *gorm.DB, conv func(R) model.Record) ([]model.Record, error) {
	var rows []R
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Record, len(rows))
	for i, r := range rows {
		out[i] = conv(r)
	}
	return out, nil
}

// PeerTargetsRatedBy returns targets already rated by raterID in id order.
func (s *SQLStore) PeerTargetsRatedBy(ctx context.Context, raterID string) ([]string, error) {
	const op = "repository.peer_targets"
	if s.closed.Load() {
		return nil, errs.Wrap(op, errs.ErrPersistence, ErrClosed)
	}
	targets := []string{}
	err := s.db.WithContext(ctx).Model(&peerRow{}).
		Where("rater_user_id = ?", raterID).
		Order("id").
		Pluck("target_user_id", &targets).Error
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return targets, nil
}

// Counts returns the number of rows per table.
func (s *SQLStore) Counts(ctx context.Context) (Counts, error) {
	const op = "repository.counts"
	if s.closed.Load() {
		return Counts{}, errs.Wrap(op, errs.ErrPersistence, ErrClosed)
	}
	var c Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&selfRow{}).Count(&c.Self).Error; err != nil {
		return Counts{}, s.fail(ctx, op, err)
	}
	if err := db.Model(&peerRow{}).Count(&c.Peer).Error; err != nil {
		return Counts{}, s.fail(ctx, op, err)
	}
	if err := db.Model(&teacherRow{}).Count(&c.Teacher).Error; err != nil {
		return Counts{}, s.fail(ctx, op, err)
	}
	return c, nil
}

// Close releases the database handle. It is safe to call more than once.
func (s *SQLStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// precheck rejects invalid input before any statement is issued.
func (s *SQLStore) precheck(op string, scores model.Scores, ids ...string) error {
	if s.closed.Load() {
		return errs.Wrap(op, errs.ErrPersistence, ErrClosed)
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return errs.New(op, errs.ErrValidation)
		}
	}
	if err := scores.Validate(); err != nil {
		return errs.Wrap(op, errs.ErrValidation, err)
	}
	return nil
}

// fail logs the driver error in full and returns it as a persistence error.
func (s *SQLStore) fail(ctx context.Context, op string, err error) error {
	metrics.RecordStoreError(op)
	s.log.Error(ctx, "store operation failed", logger.String("op", op), logger.Error(err))
	return errs.Wrap(op, errs.ErrPersistence, err)
}
