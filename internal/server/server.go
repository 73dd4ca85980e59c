package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/azaliaz/library-management/internal/config"
	"github.com/azaliaz/library-management/internal/domain/models"
	"github.com/azaliaz/library-management/internal/logger"
)

//go:generate mockgen -source=server.go -destination=./mocks/service_mock.go -package=mocks

type Storage interface {
	SaveBook(models.Book) (models.Book, error)
	GetBooks(models.BookQuery) ([]models.Book, error)
	GetBook(string) (models.Book, error)
	UpdateBook(string, models.BookPatch) (models.Book, error)
	DeleteBook(string) error
	BorrowBook(bid string, quantity int, dueDate time.Time) (models.Borrow, error)
	BorrowSummary() ([]models.BorrowSummary, error)
}

type Server struct {
	serv    *http.Server
	valid   *validator.Validate
	Storage Storage
	ErrChan chan error
}

func New(cfg config.Config, stor Storage) *Server {
	server := http.Server{ //nolint:gosec // not today
		Addr: cfg.Addr,
	}
	return &Server{
		serv:    &server,
		valid:   newValidator(),
		Storage: stor,
		ErrChan: make(chan error),
	}
}

func (s *Server) ShutdownServer() error {
	return s.serv.Shutdown(context.Background())
}

func (s *Server) Run(ctx context.Context) error {
	log := logger.Get()
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))
	router.GET("/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "welcome to Library Management") })
	api := router.Group("/api")
	{
		api.POST("/books", s.CreateBook)
		api.GET("/books", s.AllBooks)
		api.GET("/books/:bookId", s.BookInfo)
		api.PATCH("/books/:bookId", s.UpdateBook)
		api.DELETE("/books/:bookId", s.RemoveBook)
		api.POST("/borrow", s.BorrowBook)
		api.GET("/borrow", s.BorrowSummary)
	}

	s.serv.Handler = router
	log.Info().Str("host", s.serv.Addr).Msg("server started")
	if err := s.serv.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	return s.serv.Shutdown(context.TODO())
}
