package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitab/internal/cache"
	"kitab/internal/comments"
	"kitab/internal/middleware"
	"kitab/internal/models"
)

const adminPageSize = 20

type CommentHandler struct {
	svc    *comments.Service
	pages  *cache.Pages
	logger *zap.Logger
}

// NewCommentHandler wires the comment endpoints. pages may be nil to disable page caching.
func NewCommentHandler(svc *comments.Service, pages *cache.Pages, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		svc:    svc,
		pages:  pages,
		logger: logger.Named("comment_handler"),
	}
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// List 评论列表。匿名和访客的结果不含个人状态，可以缓存
func (h *CommentHandler) List(c *gin.Context) {
	postID := c.Param("id")
	viewer := middleware.CurrentViewer(c)
	opts := h.svc.Normalize(comments.PageOptions{
		Sort:   comments.ParseSort(c.Query("sort")),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	})

	readerID := viewer.ReaderID()
	cacheable := h.pages != nil && readerID == ""
	key := cache.Key(postID, opts)
	var stamp cache.Stamp
	if cacheable {
		if page, ok := h.pages.Get(key); ok {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, page)
			return
		}
		stamp = h.pages.Stamp(postID)
	}

	page := h.svc.Page(c.Request.Context(), postID, opts, readerID)

	if cacheable {
		if !h.pages.Set(key, stamp, page) {
			h.logger.Debug("Dropped stale comment page", zap.String("postID", postID))
		}
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, page)
}

type createRequest struct {
	ParentID    string `json:"parent_id"`
	Content     string `json:"content"`
	ContentHTML string `json:"content_html"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), middleware.CurrentViewer(c), comments.CreateInput{
		PostID:      c.Param("id"),
		ParentID:    req.ParentID,
		Content:     req.Content,
		ContentHTML: req.ContentHTML,
	})
	if err != nil {
		RespondError(c, err, "Failed to create comment")
		return
	}
	OK(c, comment)
}

type updateRequest struct {
	Content     string `json:"content"`
	ContentHTML string `json:"content_html"`
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.svc.UpdateComment(c.Request.Context(), middleware.CurrentViewer(c), c.Param("id"), comments.UpdateInput{
		Content:     req.Content,
		ContentHTML: req.ContentHTML,
	})
	if err != nil {
		RespondError(c, err, "Failed to update comment")
		return
	}
	OK(c, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteComment(c.Request.Context(), middleware.CurrentViewer(c), c.Param("id")); err != nil {
		RespondError(c, err, "Failed to delete comment")
		return
	}
	OK(c, nil)
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

func (h *CommentHandler) Pin(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.svc.TogglePin(c.Request.Context(), middleware.CurrentViewer(c), c.Param("id"), req.Pinned)
	if err != nil {
		RespondError(c, err, "Failed to toggle pin")
		return
	}
	OK(c, comment)
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (h *CommentHandler) React(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := h.svc.ToggleReaction(c.Request.Context(), middleware.CurrentViewer(c), c.Param("id"), req.Emoji)
	if err != nil {
		RespondError(c, err, "Failed to toggle reaction")
		return
	}
	OK(c, state)
}

// Moderate 后台评论列表，page 从 1 开始
// moderatedComment is an admin listing row. Guests can read the listing, so the author
// is reduced to public fields.
type moderatedComment struct {
	models.Comment
	Author *models.Author `json:"user,omitempty"`
}

func (h *CommentHandler) Moderate(c *gin.Context) {
	page := queryInt(c, "page")
	if page < 1 {
		page = 1
	}

	rows, total, err := h.svc.Moderate(c.Request.Context(), middleware.CurrentViewer(c), comments.ModerationQuery{
		Status: comments.ParseStatus(c.Query("status")),
		Search: c.Query("search"),
		Sort:   comments.ParseSort(c.Query("sort")),
		Limit:  adminPageSize,
		Offset: (page - 1) * adminPageSize,
	})
	if err != nil {
		RespondError(c, err, "Failed to load comments")
		return
	}

	listing := make([]moderatedComment, len(rows))
	for i, row := range rows {
		listing[i] = moderatedComment{Comment: row, Author: row.User.Author()}
	}

	OK(c, gin.H{
		"comments":    listing,
		"total":       total,
		"page":        page,
		"total_pages": (total + adminPageSize - 1) / adminPageSize,
	})
}
