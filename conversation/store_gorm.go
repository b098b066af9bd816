package conversation

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

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
	return []any{&Conversation{}, &TranscriptLine{}}
}

func (s *GormStore) CreateConversation(ctx context.Context, c *Conversation) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *GormStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("conversation", id)
		}
		return nil, apperrors.DatabaseError(err)
	}
	return &c, nil
}

// ApplyStateChange runs the guarded UPDATE that serializes concurrent
// transitions: the row changes only while it still matches the expected
// pre-state, and the affected-row count reveals whether this caller won.
func (s *GormStore) ApplyStateChange(ctx context.Context, id string, change StateChange) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&Conversation{}).Where("id = ?", id)
	if len(change.ExpectStatus) > 0 {
		tx = tx.Where("status IN ?", change.ExpectStatus)
	}
	if change.ExpectSummary != nil {
		tx = tx.Where("summary_status IN ?", change.ExpectSummary)
	}

	res := tx.Updates(change.Set)
	if res.Error != nil {
		return false, apperrors.DatabaseError(res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish "guard missed" from "no such conversation".
		if _, err := s.GetConversation(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *GormStore) AppendTranscriptLine(ctx context.Context, line *TranscriptLine) error {
	if err := s.db.WithContext(ctx).Create(line).Error; err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *GormStore) ListTranscriptLines(ctx context.Context, conversationID string) ([]TranscriptLine, error) {
	var lines []TranscriptLine
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp_ms ASC, created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return lines, nil
}

func (s *GormStore) GetTranscriptLine(ctx context.Context, lineID string) (*TranscriptLine, error) {
	var line TranscriptLine
	err := s.db.WithContext(ctx).First(&line, "id = ?", lineID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("transcript line", lineID)
		}
		return nil, apperrors.DatabaseError(err)
	}
	return &line, nil
}

func (s *GormStore) SetLineSpeaker(ctx context.Context, lineID string, tag *int) error {
	res := s.db.WithContext(ctx).Model(&TranscriptLine{}).
		Where("id = ?", lineID).
		Update("speaker_tag", tag)
	if res.Error != nil {
		return apperrors.DatabaseError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("transcript line", lineID)
	}
	return nil
}

func (s *GormStore) SwapSpeakers(ctx context.Context, conversationID string) (SwapOutcome, error) {
	var examined int64
	if err := s.db.WithContext(ctx).Model(&TranscriptLine{}).
		Where("conversation_id = ?", conversationID).
		Count(&examined).Error; err != nil {
		return SwapOutcome{}, apperrors.DatabaseError(err)
	}

	res := s.db.WithContext(ctx).Model(&TranscriptLine{}).
		Where("conversation_id = ? AND speaker_tag IS NOT NULL", conversationID).
		Update("speaker_tag", gorm.Expr("CASE speaker_tag WHEN 1 THEN 2 WHEN 2 THEN 1 ELSE speaker_tag END"))
	if res.Error != nil {
		return SwapOutcome{}, apperrors.DatabaseError(res.Error)
	}

	return SwapOutcome{Changed: res.RowsAffected, Examined: examined}, nil
}

func (s *GormStore) MaxFinalTimestamp(ctx context.Context, conversationID string) (int64, error) {
	var max int64
	err := s.db.WithContext(ctx).Model(&TranscriptLine{}).
		Where("conversation_id = ? AND is_final = ?", conversationID, true).
		Select("COALESCE(MAX(timestamp_ms), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}
	return max, nil
}

// Store interface compliance.
var _ Store = (*GormStore)(nil)
