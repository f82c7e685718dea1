// Package seeding drives a running server through a simulated evaluation
// round: every student self-rates and rates assigned peers, a teacher rates
// every student, and the master reports are fetched and checked.
package seeding

import (
	"time"

	"github.com/okian/peereval/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Password  string        // Password shared by the seeded accounts
	TeacherID string        // Teacher who rates every student
	MasterID  string        // Master used to verify; empty skips verification
	Workers   int           // Concurrent student sessions
	Timeout   time.Duration // HTTP request timeout
	Seed      uint64        // Score generator seed
	Verbose   bool          // Log every submission
}

// Stats holds run statistics.
type Stats struct {
	Students   int
	Logins     int64
	Submitted  int64
	Accepted   int64
	Duplicates int64
	Failed     int64
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration

	CompleteCount int
	AllDoneCount  int
}

// Submission is one planned score post.
type Submission struct {
	Kind   model.Kind
	Rater  string
	Target string
	Scores model.Scores
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
}

type studentsResponse struct {
	Students []string `json:"students"`
}

type assignmentResponse struct {
	Targets []string `json:"targets"`
}

type submitResponse struct {
	OK        bool `json:"ok"`
	Duplicate bool `json:"duplicate"`
}

type summaryResponse struct {
	ClassSize     int `json:"class_size"`
	CompleteCount int `json:"complete_count"`
}

type completionResponse struct {
	ClassSize    int `json:"class_size"`
	AllDoneCount int `json:"all_done_count"`
}

type errorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}
