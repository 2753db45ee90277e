package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitab/internal/cache"
	"kitab/internal/comments"
	"kitab/internal/config"
	"kitab/internal/db"
	"kitab/internal/handlers"
	"kitab/internal/logging"
	"kitab/internal/middleware"
	"kitab/internal/models"
	"kitab/internal/router"
	"kitab/internal/store"
	"kitab/internal/store/memstore"
	"kitab/internal/utils"
)

type stores struct {
	comments  comments.CommentStore
	reactions comments.ReactionStore
	posts     comments.PostStore
	users     interface {
		middleware.UserLookup
		handlers.UserStore
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}

	local, err := cache.NewLocal(cfg.Cache.Size)
	if err != nil {
		logger.Fatal("Failed to create page cache", zap.Error(err))
	}
	pages := cache.NewPages(local, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	var invalidator comments.Invalidator = pages
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()

		bus := cache.NewBus(client, cfg.Redis.Channel, pages, logger)
		invalidator = cache.Chain{pages, bus}
		go func() {
			if err := bus.Listen(ctx); err != nil {
				logger.Error("Cache bus stopped", zap.Error(err))
			}
		}()
	}

	svc := comments.NewService(st.comments, st.reactions, st.posts, invalidator, comments.Config{
		DefaultLimit: cfg.Comments.DefaultLimit,
		MaxLimit:     cfg.Comments.MaxLimit,
		Concurrency:  cfg.Comments.Concurrency,
		RestrictPin:  cfg.Comments.RestrictPin,
	}, logger)

	if cfg.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))

	// Setup Sessions
	r.Use(sessions.Sessions(cfg.Server.SessionName, cookie.NewStore([]byte(cfg.Server.SessionSecret))))
	r.Use(middleware.LoadViewer(st.users, logger))

	router.RegisterRoutes(r, router.Handlers{
		Auth:     handlers.NewAuthHandler(st.users, cfg.Server.Release, logger),
		Comments: handlers.NewCommentHandler(svc, pages, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Kitab server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func openStores(cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.DriverPostgres {
		gdb, err := db.Open(cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			comments:  store.NewCommentStore(gdb),
			reactions: store.NewReactionStore(gdb),
			posts:     store.NewPostStore(gdb),
			users:     store.NewUserStore(gdb),
		}, nil
	}

	mem := memstore.New()
	seedMemory(mem, logger)
	return &stores{
		comments:  mem.Comments(),
		reactions: mem.Reactions(),
		posts:     mem.Posts(),
		users:     mem.Users(),
	}, nil
}

// seedMemory creates an admin account and a welcome post so the memory driver is usable.
// The admin password comes from ADMIN_PASSWORD.
func seedMemory(mem *memstore.DB, logger *zap.Logger) {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		logger.Info("ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash admin password", zap.Error(err))
		return
	}

	admin := mem.AddUser(models.User{
		Name:     "Admin",
		Email:    "admin@kitab.local",
		Password: hash,
		Role:     models.RoleAdmin,
	})
	post := mem.AddPost(models.Post{
		Slug:     "welcome",
		Locale:   "en",
		Title:    "Welcome",
		Status:   "published",
		AuthorID: &admin.ID,
	})
	logger.Info("Seeded memory storage", zap.String("adminEmail", admin.Email), zap.String("postID", post.ID))
}
