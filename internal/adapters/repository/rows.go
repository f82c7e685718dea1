package repository

import (
	"time"

	"github.com/okian/peereval/internal/domain/model"
)

// ScoreColumns are the six metric columns shared by every table. The CHECK
// constraints back up validation done before any statement is issued.
type ScoreColumns struct {
	HP  int `gorm:"column:hp;not null;check:chk_hp,hp BETWEEN 1 AND 10"`
	Atk int `gorm:"column:atk;not null;check:chk_atk,atk BETWEEN 1 AND 10"`
	Def int `gorm:"column:def;not null;check:chk_def,def BETWEEN 1 AND 10"`
	SpA int `gorm:"column:spa;not null;check:chk_spa,spa BETWEEN 1 AND 10"`
	SpD int `gorm:"column:spd;not null;check:chk_spd,spd BETWEEN 1 AND 10"`
	Spe int `gorm:"column:spe;not null;check:chk_spe,spe BETWEEN 1 AND 10"`
}

var metricColumns = []string{"hp", "atk", "def", "spa", "spd", "spe"}

func columnsOf(s model.Scores) ScoreColumns {
	return ScoreColumns{HP: s.HP, Atk: s.Atk, Def: s.Def, SpA: s.SpA, SpD: s.SpD, Spe: s.Spe}
}

func (m ScoreColumns) scores() model.Scores {
	return model.Scores{HP: m.HP, Atk: m.Atk, Def: m.Def, SpA: m.SpA, SpD: m.SpD, Spe: m.Spe}
}

type selfRow struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	UserID       string    `gorm:"column:user_id;not null;index"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	ScoreColumns `gorm:"embedded"`
}

func (selfRow) TableName() string { return "scores_self" }

func (r selfRow) record() model.Record {
	return model.Record{ID: r.ID, Kind: model.KindSelf, SubjectID: r.UserID, CreatedAt: r.CreatedAt, Scores: r.scores()}
}

type peerRow struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	RaterUserID  string    `gorm:"column:rater_user_id;not null;uniqueIndex:ux_scores_peer_rater_target,priority:1"`
	TargetUserID string    `gorm:"column:target_user_id;not null;uniqueIndex:ux_scores_peer_rater_target,priority:2"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	ScoreColumns `gorm:"embedded"`
}

func (peerRow) TableName() string { return "scores_peer" }

func (r peerRow) record() model.Record {
	return model.Record{ID: r.ID, Kind: model.KindPeer, SubjectID: r.TargetUserID, RaterID: r.RaterUserID, CreatedAt: r.CreatedAt, Scores: r.scores()}
}

type teacherRow struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	TeacherUserID string    `gorm:"column:teacher_user_id;not null;uniqueIndex:ux_scores_teacher_teacher_target,priority:1"`
	TargetUserID  string    `gorm:"column:target_user_id;not null;uniqueIndex:ux_scores_teacher_teacher_target,priority:2"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	ScoreColumns  `gorm:"embedded"`
}

func (teacherRow) TableName() string { return "scores_teacher" }

func (r teacherRow) record() model.Record {
	return model.Record{ID: r.ID, Kind: model.KindTeacher, SubjectID: r.TargetUserID, RaterID: r.TeacherUserID, CreatedAt: r.CreatedAt, Scores: r.scores()}
}
