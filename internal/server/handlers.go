package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/azaliaz/library-management/internal/domain/consts"
	"github.com/azaliaz/library-management/internal/domain/models"
	"github.com/azaliaz/library-management/internal/logger"
	storerrros "github.com/azaliaz/library-management/internal/storage/errors"
)

func (s *Server) CreateBook(ctx *gin.Context) {
	log := logger.Get()

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		log.Error().Err(err).Msg("read body failed")
		respondError(ctx, http.StatusInternalServerError, "Server error", err.Error())
		return
	}
	// keep the raw payload around so field errors can echo the rejected values
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)

	var req bookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			respondValidationFailed(ctx, map[string]FieldError{
				typeErr.Field: {
					Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type),
					Kind:    "type",
					Path:    typeErr.Field,
					Value:   payload[typeErr.Field],
				},
			})
			return
		}
		respondError(ctx, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	if err := s.valid.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondValidationFailed(ctx, fieldErrors(verrs, payload))
			return
		}
		respondError(ctx, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	book := models.Book{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Isbn:        req.Isbn,
		Description: req.Description,
		Copies:      *req.Copies,
		Available:   true,
	}
	if req.Available != nil {
		book.Available = *req.Available
	}

	saved, err := s.Storage.SaveBook(book)
	if err != nil {
		log.Error().Err(err).Msg("save book failed")
		respondError(ctx, http.StatusInternalServerError, "Server error", err.Error())
		return
	}
	respondOK(ctx, http.StatusCreated, "Book created successfully", saved)
}

func (s *Server) AllBooks(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(consts.DefaultLimit)))
	if err != nil {
		limit = consts.DefaultLimit
	}
	query := models.BookQuery{
		Genre:     ctx.Query("filter"),
		SortBy:    ctx.DefaultQuery("sortBy", consts.DefaultSortBy),
		Ascending: ctx.DefaultQuery("sort", "desc") == "asc",
		Limit:     limit,
	}

	books, err := s.Storage.GetBooks(query)
	if err != nil {
		respondError(ctx, http.StatusNotFound, "Failed to fetch books", err.Error())
		return
	}
	respondOK(ctx, http.StatusOK, "Books retrieved successfully", books)
}

func (s *Server) BookInfo(ctx *gin.Context) {
	bid := ctx.Param("bookId")
	book, err := s.Storage.GetBook(bid)
	if err != nil {
		if errors.Is(err, storerrros.ErrBookNoExist) {
			respondError(ctx, http.StatusNotFound, "Book not found", nil)
			return
		}
		respondError(ctx, http.StatusNotFound, "Failed to fetch book", err.Error())
		return
	}
	respondOK(ctx, http.StatusOK, "Book retrieved successfully", book)
}

func (s *Server) UpdateBook(ctx *gin.Context) {
	log := logger.Get()
	bid := ctx.Param("bookId")

	var patch models.BookPatch
	if err := ctx.ShouldBindBodyWithJSON(&patch); err != nil {
		log.Error().Err(err).Msg("unmarshal body failed")
		respondError(ctx, http.StatusNotFound, "Failed to update book", err.Error())
		return
	}

	book, err := s.Storage.UpdateBook(bid, patch)
	if err != nil {
		if errors.Is(err, storerrros.ErrBookNoExist) {
			respondError(ctx, http.StatusNotFound, "Book not found", nil)
			return
		}
		respondError(ctx, http.StatusNotFound, "Failed to update book", err.Error())
		return
	}
	respondOK(ctx, http.StatusOK, "Book updated successfully", book)
}

func (s *Server) RemoveBook(ctx *gin.Context) {
	bid := ctx.Param("bookId")
	if err := s.Storage.DeleteBook(bid); err != nil {
		if errors.Is(err, storerrros.ErrBookNoExist) {
			respondError(ctx, http.StatusNotFound, "Book not found", nil)
			return
		}
		respondError(ctx, http.StatusNotFound, "Failed to delete book", err.Error())
		return
	}
	respondOK(ctx, http.StatusOK, "Book deleted successfully", nil)
}
