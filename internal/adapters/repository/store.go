// Package repository persists raw score submissions.
package repository

import (
	"context"

	"github.com/okian/peereval/internal/domain/model"
)

// Counts summarises table sizes.
type Counts struct {
	Self    int64 `json:"self"`
	Peer    int64 `json:"peer"`
	Teacher int64 `json:"teacher"`
}

// Snapshot is every stored record, read at a single point in time.
type Snapshot struct {
	Self    []model.Record
	Peer    []model.Record
	Teacher []model.Record
}

// Store provides read/write access to score records.
type Store interface {
	// SubmitSelf appends a self rating. Earlier self ratings are kept.
	SubmitSelf(ctx context.Context, subjectID string, scores model.Scores) (model.Record, error)
	// SubmitPeer inserts or replaces the rating from rater to target.
	SubmitPeer(ctx context.Context, raterID, targetID string, scores model.Scores) (model.Record, error)
	// SubmitTeacher inserts or replaces the rating from teacher to target.
	SubmitTeacher(ctx context.Context, teacherID, targetID string, scores model.Scores) (model.Record, error)

	// SelfRecords, PeerRecords and TeacherRecords return all rows ordered by id.
	SelfRecords(ctx context.Context) ([]model.Record, error)
	PeerRecords(ctx context.Context) ([]model.Record, error)
	TeacherRecords(ctx context.Context) ([]model.Record, error)
	// Snapshot returns all three tables from one read transaction.
	Snapshot(ctx context.Context) (Snapshot, error)

	// PeerTargetsRatedBy returns the targets rater has already scored.
	PeerTargetsRatedBy(ctx context.Context, raterID string) ([]string, error)

	Counts(ctx context.Context) (Counts, error)
	Close() error
}
