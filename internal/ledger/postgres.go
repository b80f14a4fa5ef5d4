package ledger

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/model"
	"main/internal/model/enum"
)

type decisionRow struct {
	Verdict    string    `gorm:"column:verdict"`
	Confidence int       `gorm:"column:confidence"`
	ClosedAt   time.Time `gorm:"column:closed_at"`
}

func (decisionRow) TableName() string { return "decisions" }

// Postgres reads closed decisions from the shared ledger database.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) RecentClosed(ctx context.Context, after time.Time, limit int) ([]model.DecisionRecord, error) {
	query := p.db.WithContext(ctx).
		Where("closed_at IS NOT NULL").
		Order("closed_at DESC").
		Limit(limit)
	if !after.IsZero() {
		query = query.Where("closed_at > ?", after)
	}

	var rows []decisionRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query decisions")
	}

	records := make([]model.DecisionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.DecisionRecord{
			Verdict:    enum.Verdict(row.Verdict),
			Confidence: row.Confidence,
			ClosedAt:   row.ClosedAt,
		})
	}
	return records, nil
}
