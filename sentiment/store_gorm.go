package sentiment

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/tandemlab/converse/errors"
)

// GormStore implements Store over a GORM database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models returns the models this store migrates.
func Models() []any {
	return []any{&Result{}}
}

func (s *GormStore) GetByConversation(ctx context.Context, conversationID string) (*Result, error) {
	var r Result
	err := s.db.WithContext(ctx).First(&r, "conversation_id = ?", conversationID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("sentiment result", conversationID)
		}
		return nil, apperrors.DatabaseError(err)
	}
	return &r, nil
}

// Save upserts on the conversation unique key so a forced re-analysis
// overwrites the earlier row in place.
func (s *GormStore) Save(ctx context.Context, r *Result) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}},
			UpdateAll: true,
		}).
		Create(r).Error
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *GormStore) ListPriorCompleted(ctx context.Context, speaker1ID, speaker2ID, excludeConversationID string, limit int) ([]Result, error) {
	var results []Result
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusCompleted).
		Where("conversation_id <> ?", excludeConversationID).
		Where(
			s.db.Where("speaker1_id = ? AND speaker2_id = ?", speaker1ID, speaker2ID).
				Or("speaker1_id = ? AND speaker2_id = ?", speaker2ID, speaker1ID),
		).
		Order("analyzed_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return results, nil
}

var _ Store = (*GormStore)(nil)
