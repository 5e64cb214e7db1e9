package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"resize4me/internal/models"
)

type Uploader interface {
	Upload(ctx context.Context, filename string, body []byte) (models.Manifest, error)
}

type VariantLister interface {
	ListVariants(ctx context.Context, bucket, key string) ([]models.Variant, error)
}

type Server struct {
	router       *gin.Engine
	http         *http.Server
	uploader     Uploader
	variants     VariantLister
	sourceBucket string
	log          zerolog.Logger
}

// NewServer builds the HTTP boundary. variants may be nil, in which case
// the listing endpoint answers 503.
func NewServer(addr, sourceBucket string, uploader Uploader, variants VariantLister, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())

	s := &Server{
		router:       r,
		uploader:     uploader,
		variants:     variants,
		sourceBucket: sourceBucket,
		log:          log,
	}
	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	r.POST("/", s.handleUpload)
	r.POST("/upload", s.handleUpload)
	r.GET("/variants", s.handleListVariants)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "No file uploaded")
		return
	}

	src, err := file.Open()
	if err != nil {
		c.String(http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer src.Close()

	body, err := io.ReadAll(src)
	if err != nil {
		c.String(http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	manifest, err := s.uploader.Upload(c.Request.Context(), file.Filename, body)
	if err != nil {
		s.log.Error().Err(err).Str("file", file.Filename).Msg("upload failed")
		c.String(statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, manifest)
}

func (s *Server) handleListVariants(c *gin.Context) {
	if s.variants == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "variant ledger disabled"})
		return
	}

	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	bucket := c.DefaultQuery("bucket", s.sourceBucket)

	variants, err := s.variants.ListVariants(c.Request.Context(), bucket, key)
	if err != nil {
		s.log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("list variants")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bucket": bucket, "key": key, "variants": variants})
}

func statusFor(err error) int {
	var (
		fmtErr *models.UnsupportedFormatError
		decErr *models.DecodeError
		upErr  *models.UploadError
	)
	switch {
	case errors.As(err, &fmtErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &decErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
