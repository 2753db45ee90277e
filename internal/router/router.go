package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kitab/internal/handlers"
	"kitab/internal/middleware"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Comments *handlers.CommentHandler
}

// RegisterRoutes mounts the JSON API. LoadViewer must already be in the chain.
func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// 公共路由
	api.GET("/posts/:id/comments", h.Comments.List) // 评论树
	api.POST("/auth/login", h.Auth.Login)           // 登录
	api.POST("/auth/logout", h.Auth.Logout)         // 退出
	api.POST("/auth/guest", h.Auth.EnterGuest)      // 进入访客模式
	api.DELETE("/auth/guest", h.Auth.LeaveGuest)    // 退出访客模式

	// 管理后台，访客可只读
	api.GET("/admin/comments", h.Comments.Moderate)

	// 需要登录
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts/:id/comments", h.Comments.Create)    // 发表评论或回复
		authorized.PATCH("/comments/:id", h.Comments.Update)         // 编辑评论
		authorized.DELETE("/comments/:id", h.Comments.Delete)        // 删除评论（软删除）
		authorized.POST("/comments/:id/pin", h.Comments.Pin)         // 置顶
		authorized.POST("/comments/:id/reactions", h.Comments.React) // 表情回应
	}
}
