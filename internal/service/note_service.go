package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/haierkeys/block-note-service/internal/domain"
	"github.com/haierkeys/block-note-service/internal/dto"
	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/code"
	"github.com/haierkeys/block-note-service/pkg/logger"
	"github.com/haierkeys/block-note-service/pkg/notepath"
	"github.com/haierkeys/block-note-service/pkg/timex"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TitleMaxLength 标题最大字符数
const TitleMaxLength = 255

// NoteService 定义笔记业务服务接口
// Every method is scoped to the authenticated owner uid
type NoteService interface {
	// Create 创建笔记
	Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error)

	// List 获取笔记列表（仅标题与路径）
	List(ctx context.Context, uid int64) ([]*dto.NoteSummaryDTO, error)

	// Get 根据路径获取笔记
	Get(ctx context.Context, uid int64, path string) (*dto.NoteDTO, error)

	// Update 根据路径局部更新笔记
	Update(ctx context.Context, uid int64, path string, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error)

	// Delete 根据路径删除笔记
	Delete(ctx context.Context, uid int64, path string) error

	// Search 在文本块中搜索
	Search(ctx context.Context, uid int64, q string) ([]*dto.NoteSearchDTO, error)

	// CountByOwner 统计每个用户的笔记数量
	CountByOwner(ctx context.Context) (map[int64]int64, error)
}

// noteService 实现 NoteService 接口
type noteService struct {
	noteRepo domain.NoteRepository
	logger   *zap.Logger
	config   *ServiceConfig
	sf       *singleflight.Group
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(noteRepo domain.NoteRepository, logger *zap.Logger, config *ServiceConfig) NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		config = DefaultServiceConfig()
	}
	return &noteService{
		noteRepo: noteRepo,
		logger:   logger,
		config:   config,
		sf:       &singleflight.Group{},
	}
}

// domainToDTO 将领域模型转换为 DTO
func (s *noteService) domainToDTO(note *domain.Note) *dto.NoteDTO {
	if note == nil {
		return nil
	}
	return &dto.NoteDTO{
		ID:        note.ID,
		UserID:    note.UID,
		Title:     note.Title,
		Path:      note.Path,
		Blocks:    block.Normalize(note.Blocks),
		CreatedAt: timex.Time(note.CreatedAt),
		UpdatedAt: timex.Time(note.UpdatedAt),
	}
}

// storeError maps a store error onto a response code
// storeError 将存储层错误转换为业务错误码
func (s *noteService) storeError(method string, err error, path string) error {
	switch {
	case errors.Is(err, domain.ErrNoteNotFound):
		return code.ErrorNoteNotFound
	case errors.Is(err, domain.ErrNotePathConflict):
		return code.ErrorNotePathConflict.WithDetails(path)
	}
	s.logger.Error(method,
		zap.String(logger.FieldPath, path),
		zap.Error(err))
	return code.ErrorDBQuery
}

// normalizeTitle 去除首尾空白并校验长度
func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", code.ErrorNoteTitleRequired
	}
	if utf8.RuneCountInString(title) > TitleMaxLength {
		return "", code.ErrorNoteTitleTooLong.WithDetails(fmt.Sprintf("max %d", TitleMaxLength))
	}
	return title, nil
}

// normalizePath 规范化路径
func normalizePath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", code.ErrorNotePathRequired
	}
	p, err := notepath.Normalize(raw)
	if err != nil {
		return "", code.ErrorNotePathInvalid.WithDetails(err.Error())
	}
	return p.String(), nil
}

func validateBlocks(blocks []block.Block) error {
	if err := block.ValidateAll(blocks); err != nil {
		return code.ErrorNoteBlockInvalid.WithDetails(err.Error())
	}
	return nil
}

// Create 创建笔记
func (s *noteService) Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	title, err := normalizeTitle(params.Title)
	if err != nil {
		return nil, err
	}
	path, err := normalizePath(params.Path)
	if err != nil {
		return nil, err
	}
	if err := validateBlocks(params.Blocks); err != nil {
		return nil, err
	}

	note, err := s.noteRepo.Insert(ctx, &domain.Note{
		UID:    uid,
		Path:   path,
		Title:  title,
		Blocks: block.Normalize(params.Blocks),
	})
	if err != nil {
		return nil, s.storeError("noteService.Create", err, path)
	}

	s.logger.Debug("note created",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldPath, note.Path),
		zap.Int64(logger.FieldNoteID, note.ID))
	return s.domainToDTO(note), nil
}

// List 获取笔记列表，同一用户的并发请求合并
func (s *noteService) List(ctx context.Context, uid int64) ([]*dto.NoteSummaryDTO, error) {
	v, err, _ := s.sf.Do(fmt.Sprintf("note:list:%d", uid), func() (any, error) {
		return s.noteRepo.ListByOwner(ctx, uid)
	})
	if err != nil {
		return nil, s.storeError("noteService.List", err, "")
	}

	out, err := copyEach[dto.NoteSummaryDTO](v.([]*domain.NoteSummary))
	if err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	return out, nil
}

// Get 根据路径获取笔记
// Another owner's note at the same path is reported as not found
func (s *noteService) Get(ctx context.Context, uid int64, path string) (*dto.NoteDTO, error) {
	p, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	note, err := s.noteRepo.FindByOwnerAndPath(ctx, uid, p)
	if err != nil {
		return nil, s.storeError("noteService.Get", err, p)
	}
	return s.domainToDTO(note), nil
}

// Update 根据路径局部更新笔记
func (s *noteService) Update(ctx context.Context, uid int64, path string, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	p, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	var fields domain.NoteFields
	if params.Title != nil {
		title, err := normalizeTitle(*params.Title)
		if err != nil {
			return nil, err
		}
		fields.Title = &title
	}
	if params.Path != nil {
		newPath, err := normalizePath(*params.Path)
		if err != nil {
			return nil, err
		}
		fields.Path = &newPath
	}
	if params.Blocks != nil {
		if err := validateBlocks(*params.Blocks); err != nil {
			return nil, err
		}
		blocks := block.Normalize(*params.Blocks)
		fields.Blocks = &blocks
	}
	if fields.Empty() {
		return nil, code.ErrorNoteUpdateEmpty
	}

	target := p
	if fields.Path != nil {
		target = *fields.Path
	}
	note, err := s.noteRepo.ReplaceFields(ctx, uid, p, fields)
	if err != nil {
		return nil, s.storeError("noteService.Update", err, target)
	}
	return s.domainToDTO(note), nil
}

// Delete 根据路径删除笔记
func (s *noteService) Delete(ctx context.Context, uid int64, path string) error {
	p, err := normalizePath(path)
	if err != nil {
		return err
	}
	deleted, err := s.noteRepo.Delete(ctx, uid, p)
	if err != nil {
		return s.storeError("noteService.Delete", err, p)
	}
	if !deleted {
		return code.ErrorNoteNotFound
	}

	s.logger.Debug("note deleted",
		zap.Int64(logger.FieldUID, uid),
		zap.String(logger.FieldPath, p))
	return nil
}

// Search 在段落与标题块中搜索，关键词按字面匹配
func (s *noteService) Search(ctx context.Context, uid int64, q string) ([]*dto.NoteSearchDTO, error) {
	query := strings.TrimSpace(q)
	if query == "" {
		return nil, code.ErrorSearchQueryEmpty
	}

	hits, err := s.noteRepo.SearchText(ctx, uid, query, s.config.searchLimit())
	if err != nil {
		s.logger.Error("noteService.Search",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldQuery, query),
			zap.Error(err))
		return nil, code.ErrorDBQuery
	}

	out, err := copyEach[dto.NoteSearchDTO](hits)
	if err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	return out, nil
}

// CountByOwner 统计每个用户的笔记数量
func (s *noteService) CountByOwner(ctx context.Context) (map[int64]int64, error) {
	counts, err := s.noteRepo.CountByOwner(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return counts, nil
}
