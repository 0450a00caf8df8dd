package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"edupoint/config"
	"edupoint/models"
	"edupoint/services"
	"edupoint/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	articlesCreatedCounter prometheus.Counter
	articlesUpdatedCounter prometheus.Counter
	articlesDeletedCounter prometheus.Counter
)

func init() {
	articlesCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_created_total",
			Help: "Total number of articles created via the admin API.",
		},
	)
	articlesUpdatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_updated_total",
			Help: "Total number of article updates via the admin API.",
		},
	)
	articlesDeletedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_deleted_total",
			Help: "Total number of articles deleted via the admin API.",
		},
	)
	prometheus.MustRegister(articlesCreatedCounter, articlesUpdatedCounter, articlesDeletedCounter)
}

const accountContextKey = "account"

// bearerToken extrahiert das Token aus dem Authorization-Header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func authRequiredMiddleware(auth *services.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing token"})
			return
		}
		account, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid token"})
			return
		}
		c.Set(accountContextKey, account)
		c.Next()
	}
}

// adminRequiredMiddleware setzt authRequiredMiddleware voraus. Die
// Berechtigung wird per E-Mail gegen den admins-Bestand geprüft.
func adminRequiredMiddleware(auth *services.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := c.MustGet(accountContextKey).(*models.Admin)
		if !auth.IsAdmin(c.Request.Context(), account.Email) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: admin role required"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Gateway je nach konfiguriertem Backend
	var gw storage.Gateway
	switch cfg.StorageBackend {
	case "postgres":
		gw, err = storage.NewPostgres(cfg)
	case "mongo":
		gw, err = storage.NewMongo(context.Background(), cfg)
	default:
		logging.Fatal("Unknown storage backend", zap.String("backend", cfg.StorageBackend))
	}
	if err != nil {
		logging.Fatal("Failed to connect to storage backend", zap.Error(err))
	}
	defer gw.Close(context.Background())
	logging.Info("Storage backend connected", zap.String("backend", cfg.StorageBackend))

	seedDefaultCategories(gw, logging)

	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	// Setup Services
	auth := services.NewAuth(gw, logging, cfg.JWTSecret, cfg.TokenTTL)
	resolver := services.NewDetailResolver(gw, logging)
	catalog := services.NewCatalog(gw, logging)
	if err := catalog.Load(context.Background()); err != nil {
		logging.Fatal("Failed to load admin catalog", zap.Error(err))
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "edupoint", "backend": cfg.StorageBackend})
	})

	setupArticleRoutes(router, gw, resolver, logging)
	setupCategoryRoutes(router, gw, logging)
	setupAuthRoutes(router, auth, logging)
	setupAdminRoutes(router, catalog, auth, cfg, logging)
	setupUploadRoutes(router, s3Client, auth, cfg, logging)

	// Setup Cron: abgelaufene Sessions regelmäßig wegräumen
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		count, err := auth.PurgeExpiredSessions(context.Background())
		if err != nil {
			logging.Error("Session purge failed", zap.Error(err))
		} else if count > 0 {
			logging.Info("Expired sessions purged", zap.Int64("count", count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// setupArticleRoutes konfiguriert die öffentlichen Artikel-Endpunkte.
func setupArticleRoutes(router *gin.Engine, gw storage.Gateway, resolver *services.DetailResolver, log *zap.Logger) {
	rg := router.Group("/articles")

	// GET /articles?category=&limit=
	rg.GET("", func(c *gin.Context) {
		q := storage.ArticleQuery{CategoryName: c.Query("category")}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			q.Limit = limit
		}

		articles, err := gw.ListArticles(c.Request.Context(), q)
		if err != nil {
			log.Error("Database query for articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":       articles,
			"categories": services.CategoryIndex(articles),
		})
	})

	// GET /articles/:id liefert den Artikel samt verwandter Artikel
	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		detail, err := resolver.Resolve(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			log.Error("Failed to resolve article", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, detail)
	})
}

// setupCategoryRoutes konfiguriert den öffentlichen Kategorie-Endpunkt.
func setupCategoryRoutes(router *gin.Engine, gw storage.Gateway, log *zap.Logger) {
	router.GET("/categories", func(c *gin.Context) {
		categories, err := gw.ListCategories(c.Request.Context())
		if err != nil {
			log.Error("Database query for categories failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, categories)
	})
}

// setupAuthRoutes konfiguriert Registrierung, Login, Profil und Logout.
func setupAuthRoutes(router *gin.Engine, auth *services.Auth, log *zap.Logger) {
	rg := router.Group("/auth")

	rg.POST("/register", func(c *gin.Context) {
		var creds services.Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		account, err := auth.Register(c.Request.Context(), creds)
		if err != nil {
			var verrs services.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verrs})
				return
			}
			if errors.Is(err, storage.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
				return
			}
			log.Error("Registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
			return
		}
		c.JSON(http.StatusCreated, account)
	})

	rg.POST("/login", func(c *gin.Context) {
		var creds services.Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		session, err := auth.Login(c.Request.Context(), creds.Username, creds.Password)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
				return
			}
			log.Error("Login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": session.Token, "username": session.Username})
	})

	rg.GET("/profile", authRequiredMiddleware(auth), func(c *gin.Context) {
		account := c.MustGet(accountContextKey).(*models.Admin)
		c.JSON(http.StatusOK, account)
	})

	rg.POST("/logout", authRequiredMiddleware(auth), func(c *gin.Context) {
		if err := auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
			log.Error("Logout failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})
}

// setupAdminRoutes konfiguriert die Admin-Endpunkte über den Catalog:
// Mutationen plus die gefilterte, paginierte Admin-Liste.
func setupAdminRoutes(router *gin.Engine, catalog *services.Catalog, auth *services.Auth, cfg *config.Config, log *zap.Logger) {
	admin := router.Group("/", authRequiredMiddleware(auth), adminRequiredMiddleware(auth))

	// GET /admin/articles?category=&search=&page=
	admin.GET("/admin/articles", func(c *gin.Context) {
		listing := services.NewListing(catalog.Articles(), cfg.PageSize)
		if category := c.Query("category"); category != "" {
			listing.SetCategory(category)
		}
		if search := c.Query("search"); search != "" {
			listing.SetKeyword(search)
		}
		if raw := c.Query("page"); raw != "" {
			target, err := strconv.Atoi(raw)
			if err != nil || target < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
				return
			}
			// Nur über Next erreichbare Seiten sind zulässig (Klammerung)
			for listing.CurrentPage() < target && listing.CurrentPage() < listing.TotalPages() {
				listing.Next()
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"articles":    listing.Page(),
			"page":        listing.CurrentPage(),
			"total_pages": listing.TotalPages(),
			"categories":  services.CategoryIndex(catalog.Articles()),
			"no_results":  listing.Empty(),
		})
	})

	admin.GET("/admin/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, catalog.Categories())
	})

	admin.POST("/articles", func(c *gin.Context) {
		var in services.ArticleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(in.ImageURL) == "" {
			in.ImageURL = cfg.DefaultImageURL
		}

		account := c.MustGet(accountContextKey).(*models.Admin)
		author := models.AuthorRef{ID: account.ID, Username: account.Username}

		article, err := catalog.CreateArticle(c.Request.Context(), in, author)
		if err != nil {
			var verrs services.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verrs})
				return
			}
			log.Error("Failed to create article", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save article"})
			return
		}

		articlesCreatedCounter.Inc()
		c.JSON(http.StatusCreated, article)
	})

	admin.PUT("/articles/:id", func(c *gin.Context) {
		id := c.Param("id")
		var in services.ArticleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := catalog.UpdateArticle(c.Request.Context(), id, in); err != nil {
			var verrs services.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verrs})
				return
			}
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			log.Error("Failed to update article", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update article"})
			return
		}

		articlesUpdatedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "updated"})
	})

	admin.DELETE("/articles/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := catalog.DeleteArticle(c.Request.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			log.Error("Failed to delete article", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
			return
		}

		articlesDeletedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})

	admin.POST("/categories", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body (name required)"})
			return
		}

		category, err := catalog.CreateCategory(c.Request.Context(), req.Name)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "Category name already exists"})
				return
			}
			var verrs services.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verrs})
				return
			}
			log.Error("Failed to create category", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}
		c.JSON(http.StatusCreated, category)
	})

	admin.DELETE("/categories/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := catalog.DeleteCategory(c.Request.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
				return
			}
			log.Error("Failed to delete category", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}

// setupUploadRoutes konfiguriert den Bild-Upload nach S3.
func setupUploadRoutes(router *gin.Engine, s3Client *s3.Client, auth *services.Auth, cfg *config.Config, log *zap.Logger) {
	allowedExtensions := map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}

	router.POST("/upload", authRequiredMiddleware(auth), adminRequiredMiddleware(auth), func(c *gin.Context) {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'image' form file"})
			return
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !allowedExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			log.Error("Failed to read uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		key := fmt.Sprintf("uploads/%s%s", uuid.NewString(), ext)
		link, err := storage.UploadImage(c.Request.Context(), s3Client, cfg, key, data, contentType)
		if err != nil {
			log.Error("Failed to upload image to S3", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}

		log.Info("Image uploaded", zap.String("key", key), zap.Int("size", len(data)))
		c.JSON(http.StatusOK, gin.H{"url": link})
	})
}

func seedDefaultCategories(gw storage.Gateway, logger *zap.Logger) {
	ctx := context.Background()
	existing, err := gw.ListCategories(ctx)
	if err != nil {
		logger.Warn("Failed to check existing categories", zap.Error(err))
		return
	}
	if len(existing) > 0 {
		return
	}

	now := time.Now().UTC()
	defaults := []models.Category{
		{ID: "pendidikan", Name: "Pendidikan"},
		{ID: "teknologi", Name: "Teknologi"},
		{ID: "kesehatan", Name: "Kesehatan"},
		{ID: "bisnis", Name: "Bisnis"},
		{ID: "lifestyle", Name: "Lifestyle"},
	}
	for i := range defaults {
		defaults[i].CreatedAt = now
		defaults[i].UpdatedAt = now
		if err := gw.CreateCategory(ctx, &defaults[i]); err != nil {
			logger.Warn("Failed to seed default category", zap.String("name", defaults[i].Name), zap.Error(err))
			return
		}
	}
	logger.Info("Default categories seeded.")
}
