package api_router

import (
	"strings"

	"github.com/haierkeys/block-note-service/internal/app"
	"github.com/haierkeys/block-note-service/internal/dto"
	pkgapp "github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/code"
	apperrors "github.com/haierkeys/block-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SearchSegment GET /api/notes/search is answered by Search, not by Get
const SearchSegment = "/search"

// NoteHandler note API router handler
// NoteHandler 笔记 API 路由处理器
type NoteHandler struct {
	*Handler
}

// NewNoteHandler creates NoteHandler instance
// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{Handler: NewHandler(a)}
}

// notePath the wildcard path of the request, always with a leading "/"
// notePath 通配符路径，总以 "/" 开头
func notePath(c *gin.Context) string {
	p := c.Param("path")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Create POST /api/notes {title, path, blocks} -> 201 Note
func (h *NoteHandler) Create(c *gin.Context) {
	params := &dto.NoteCreateRequest{}
	if !h.bind(c, "NoteHandler.Create", params) {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Create(ctx, pkgapp.GetUID(c), params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToJSON(code.SuccessCreate, note)
}

// List GET /api/notes -> [{title, path}]
func (h *NoteHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.App.NoteService.List(ctx, pkgapp.GetUID(c))
	if err != nil {
		h.logError(ctx, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToJSON(code.Success, list)
}

// Get GET /api/notes/*path -> Note
// The search segment is dispatched to Search
func (h *NoteHandler) Get(c *gin.Context) {
	path := notePath(c)
	if strings.TrimSuffix(path, "/") == SearchSegment {
		h.Search(c)
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Get(ctx, pkgapp.GetUID(c), path)
	if err != nil {
		h.logError(ctx, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToJSON(code.Success, note)
}

// Update PUT /api/notes/*path {title?, blocks?, path?} -> Note
func (h *NoteHandler) Update(c *gin.Context) {
	params := &dto.NoteUpdateRequest{}
	if !h.bind(c, "NoteHandler.Update", params) {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Update(ctx, pkgapp.GetUID(c), notePath(c), params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToJSON(code.Success, note)
}

// Delete DELETE /api/notes/*path -> {message}
func (h *NoteHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.App.NoteService.Delete(ctx, pkgapp.GetUID(c), notePath(c)); err != nil {
		h.logError(ctx, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToMessage(code.SuccessDelete)
}

// Search GET /api/notes/search?q= -> [summary]
func (h *NoteHandler) Search(c *gin.Context) {
	params := &dto.NoteSearchRequest{}
	if !h.bind(c, "NoteHandler.Search", params) {
		return
	}

	ctx := c.Request.Context()
	hits, err := h.App.NoteService.Search(ctx, pkgapp.GetUID(c), params.Q)
	if err != nil {
		h.logError(ctx, "NoteHandler.Search", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToJSON(code.Success, hits)
}
