package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azaliaz/library-management/internal/logger"
	storerrros "github.com/azaliaz/library-management/internal/storage/errors"
)

var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

// BorrowBook validates the request field by field, in a fixed order:
// book id, then quantity, then due date. The first violated rule wins.
func (s *Server) BorrowBook(ctx *gin.Context) {
	log := logger.Get()

	var payload map[string]any
	if err := ctx.ShouldBindBodyWithJSON(&payload); err != nil {
		log.Error().Err(err).Msg("unmarshal body failed")
		respondError(ctx, http.StatusBadRequest, "Book ID must be a valid string.", nil)
		return
	}

	book, ok := payload["book"].(string)
	if !ok || book == "" {
		respondError(ctx, http.StatusBadRequest, "Book ID must be a valid string.", nil)
		return
	}

	quantity := parseQuantity(payload["quantity"])
	if quantity <= 0 {
		respondError(ctx, http.StatusBadRequest, "Quantity must be a positive number.", nil)
		return
	}

	dueDate, err := parseDueDate(payload["dueDate"])
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid due date format.", nil)
		return
	}

	borrow, err := s.Storage.BorrowBook(book, quantity, dueDate)
	if err != nil {
		if errors.Is(err, storerrros.ErrBookNoExist) {
			respondError(ctx, http.StatusNotFound, "Book not found", nil)
			return
		}
		var insufficient *storerrros.NotEnoughCopiesError
		if errors.As(err, &insufficient) {
			respondError(ctx, http.StatusBadRequest,
				fmt.Sprintf("Not enough copies available. Available: %d", insufficient.Available), nil)
			return
		}
		log.Error().Err(err).Str("bid", book).Msg("borrow failed")
		respondError(ctx, http.StatusInternalServerError, "Borrow failed", gin.H{
			"message": err.Error(),
			"name":    fmt.Sprintf("%T", err),
		})
		return
	}
	respondOK(ctx, http.StatusCreated, "Book borrowed successfully", borrow)
}

func (s *Server) BorrowSummary(ctx *gin.Context) {
	summary, err := s.Storage.BorrowSummary()
	if err != nil {
		respondError(ctx, http.StatusInternalServerError, "Failed to get borrowed books summary", err.Error())
		return
	}
	respondOK(ctx, http.StatusOK, "Borrowed books summary retrieved successfully", summary)
}

func parseQuantity(value any) int {
	switch q := value.(type) {
	case float64:
		if q != math.Trunc(q) {
			return 0
		}
		return int(q)
	case string:
		n, err := strconv.Atoi(q)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func parseDueDate(value any) (time.Time, error) {
	str, ok := value.(string)
	if !ok {
		return time.Time{}, errors.New("due date is not a string")
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid due date format")
}
