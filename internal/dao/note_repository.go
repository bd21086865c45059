// Package dao 实现数据访问层
package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/haierkeys/block-note-service/internal/domain"
	"github.com/haierkeys/block-note-service/internal/model"
	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/logger"
	"github.com/haierkeys/block-note-service/pkg/timex"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const noteOrder = "updated_timestamp DESC, id DESC"

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

// note 获取笔记表会话
func (r *noteRepository) note(ctx context.Context) (*gorm.DB, error) {
	return r.dao.UseWithOnceFunc(ctx, func(g *gorm.DB) error {
		return model.AutoMigrate(g, "Note")
	}, "note#note")
}

// toDomain 将数据库模型转换为领域模型
func (r *noteRepository) toDomain(m *model.Note) *domain.Note {
	if m == nil {
		return nil
	}
	return &domain.Note{
		ID:        m.ID,
		UID:       m.UID,
		Path:      m.Path,
		Title:     m.Title,
		Blocks:    block.Normalize(m.Blocks),
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *noteRepository) toModel(n *domain.Note) *model.Note {
	if n == nil {
		return nil
	}
	blocks := block.Normalize(n.Blocks)
	return &model.Note{
		ID:               n.ID,
		UID:              n.UID,
		Path:             n.Path,
		Title:            n.Title,
		Blocks:           model.Blocks(blocks),
		SearchText:       searchText(blocks),
		UpdatedTimestamp: n.UpdatedAt.UnixMilli(),
		CreatedAt:        timex.Time(n.CreatedAt),
		UpdatedAt:        timex.Time(n.UpdatedAt),
	}
}

func (r *noteRepository) toSummary(m *model.Note) *domain.NoteSummary {
	return &domain.NoteSummary{
		ID:        m.ID,
		Title:     m.Title,
		Path:      m.Path,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

func searchText(blocks []block.Block) string {
	return strings.ToLower(block.Text(blocks))
}

// nextUpdated returns now, or prev+1ms when the clock has not moved past prev
// nextUpdated 保证更新时间严格递增
func nextUpdated(prev int64) timex.Time {
	now := timex.Now()
	if now.UnixMilli() <= prev {
		return timex.FromUnixMilli(prev + 1)
	}
	return now
}

// FindByOwnerAndPath 根据用户和路径获取笔记
func (r *noteRepository) FindByOwnerAndPath(ctx context.Context, uid int64, path string) (*domain.Note, error) {
	db, err := r.note(ctx)
	if err != nil {
		return nil, err
	}
	var m model.Note
	if err := db.Where("uid = ? AND path = ?", uid, path).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, pkgerrors.Wrap(err, "noteRepository.FindByOwnerAndPath")
	}
	return r.toDomain(&m), nil
}

// ListByOwner 获取用户全部笔记摘要，按更新时间倒序
func (r *noteRepository) ListByOwner(ctx context.Context, uid int64) ([]*domain.NoteSummary, error) {
	db, err := r.note(ctx)
	if err != nil {
		return nil, err
	}
	var ms []*model.Note
	err = db.Select("id", "title", "path", "created_at", "updated_at").
		Where("uid = ?", uid).
		Order(noteOrder).
		Find(&ms).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "noteRepository.ListByOwner")
	}
	out := make([]*domain.NoteSummary, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.toSummary(m))
	}
	return out, nil
}

// Insert 创建笔记
func (r *noteRepository) Insert(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	db, err := r.note(ctx)
	if err != nil {
		return nil, err
	}
	m := r.toModel(note)
	m.ID = 0
	now := timex.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.UpdatedTimestamp = now.UnixMilli()

	err = r.dao.ExecuteWrite(ctx, note.UID, func() error {
		var n int64
		if err := db.Model(&model.Note{}).Where("uid = ? AND path = ?", m.UID, m.Path).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrNotePathConflict
		}
		return db.Create(m).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotePathConflict) || isDuplicateKey(err) {
			return nil, domain.ErrNotePathConflict
		}
		return nil, pkgerrors.Wrap(err, "noteRepository.Insert")
	}
	return r.toDomain(m), nil
}

// ReplaceFields 更新指定字段并刷新更新时间
func (r *noteRepository) ReplaceFields(ctx context.Context, uid int64, path string, fields domain.NoteFields) (*domain.Note, error) {
	db, err := r.note(ctx)
	if err != nil {
		return nil, err
	}

	var m model.Note
	err = r.dao.ExecuteWrite(ctx, uid, func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("uid = ? AND path = ?", uid, path).First(&m).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNoteNotFound
				}
				return err
			}

			updates := map[string]interface{}{}
			if fields.Title != nil {
				m.Title = *fields.Title
				updates["title"] = m.Title
			}
			if fields.Path != nil && *fields.Path != m.Path {
				var n int64
				if err := tx.Model(&model.Note{}).Where("uid = ? AND path = ?", uid, *fields.Path).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return domain.ErrNotePathConflict
				}
				m.Path = *fields.Path
				updates["path"] = m.Path
			}
			if fields.Blocks != nil {
				blocks := block.Normalize(*fields.Blocks)
				m.Blocks = model.Blocks(blocks)
				m.SearchText = searchText(blocks)
				updates["blocks"] = m.Blocks
				updates["search_text"] = m.SearchText
			}

			m.UpdatedAt = nextUpdated(m.UpdatedTimestamp)
			m.UpdatedTimestamp = m.UpdatedAt.UnixMilli()
			updates["updated_at"] = m.UpdatedAt
			updates["updated_timestamp"] = m.UpdatedTimestamp

			return tx.Model(&model.Note{}).Where("id = ?", m.ID).Updates(updates).Error
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoteNotFound):
			return nil, domain.ErrNoteNotFound
		case errors.Is(err, domain.ErrNotePathConflict), isDuplicateKey(err):
			return nil, domain.ErrNotePathConflict
		}
		return nil, pkgerrors.Wrap(err, "noteRepository.ReplaceFields")
	}

	r.dao.Logger().Debug("note updated",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldPath, m.Path),
		zap.Int64(logger.FieldNoteID, m.ID))

	return r.toDomain(&m), nil
}

// Delete 删除笔记
func (r *noteRepository) Delete(ctx context.Context, uid int64, path string) (bool, error) {
	db, err := r.note(ctx)
	if err != nil {
		return false, err
	}
	var affected int64
	err = r.dao.ExecuteWrite(ctx, uid, func() error {
		res := db.Where("uid = ? AND path = ?", uid, path).Delete(&model.Note{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, pkgerrors.Wrap(err, "noteRepository.Delete")
	}
	return affected > 0, nil
}

// SearchText 按字面子串搜索文本块
// LIKE narrows the candidates, each candidate is then checked block by block
// so a match never spans two blocks
func (r *noteRepository) SearchText(ctx context.Context, uid int64, query string, limit int) ([]*domain.NoteSummary, error) {
	db, err := r.note(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.Model(&model.Note{}).
		Select("id", "title", "path", "blocks", "created_at", "updated_at").
		Where("uid = ? AND search_text LIKE ? ESCAPE '!'", uid, containsPattern(strings.ToLower(query))).
		Order(noteOrder).
		Rows()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "noteRepository.SearchText")
	}
	defer rows.Close()

	out := make([]*domain.NoteSummary, 0, limit)
	for rows.Next() && len(out) < limit {
		var m model.Note
		if err := db.ScanRows(rows, &m); err != nil {
			return nil, pkgerrors.Wrap(err, "noteRepository.SearchText scan")
		}
		if block.ContainsText(m.Blocks, query) {
			out = append(out, r.toSummary(&m))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "noteRepository.SearchText rows")
	}
	return out, nil
}

// CountByOwner 统计每个用户的笔记数量
func (r *noteRepository) CountByOwner(ctx context.Context) (map[int64]int64, error) {
	db, err := r.note(ctx)
	if err != nil {
		return nil, err
	}
	type row struct {
		UID   int64
		Total int64
	}
	var rs []row
	if err := db.Model(&model.Note{}).Select("uid, COUNT(*) AS total").Group("uid").Scan(&rs).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "noteRepository.CountByOwner")
	}
	out := make(map[int64]int64, len(rs))
	for _, x := range rs {
		out[x.UID] = x.Total
	}
	return out, nil
}
