package tests

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/azaliaz/library-management/internal/config"
	"github.com/azaliaz/library-management/internal/domain/models"
	"github.com/azaliaz/library-management/internal/server"
	"github.com/azaliaz/library-management/internal/server/mocks"
	storerrros "github.com/azaliaz/library-management/internal/storage/errors"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func newTestServer(t *testing.T) (*server.Server, *mocks.MockStorage) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockStorage := mocks.NewMockStorage(ctrl)
	return server.New(config.Config{}, mockStorage), mockStorage
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestServer_createBook(t *testing.T) {
	s, mockStorage := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		want := models.Book{
			Title:     "The Selfish Gene",
			Author:    "Richard Dawkins",
			Genre:     "SCIENCE",
			Isbn:      "9780199291151",
			Copies:    5,
			Available: true,
		}
		saved := want
		saved.BID = "bid123"
		mockStorage.EXPECT().SaveBook(want).Return(saved, nil)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPost, "/api/books",
			`{"title":"The Selfish Gene","author":"Richard Dawkins","genre":"SCIENCE","isbn":"9780199291151","copies":5}`)

		s.CreateBook(ctx)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Book created successfully")
		assert.Contains(t, w.Body.String(), "bid123")
	})

	t.Run("negative copies", func(t *testing.T) {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPost, "/api/books",
			`{"title":"T","author":"A","genre":"SCIENCE","isbn":"1","copies":-2}`)

		s.CreateBook(ctx)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Validation failed")
		assert.Contains(t, w.Body.String(), "ValidationError")
		assert.Contains(t, w.Body.String(), "Copies must be a positive number")
		assert.Contains(t, w.Body.String(), `"value":-2`)
	})

	t.Run("missing title", func(t *testing.T) {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPost, "/api/books",
			`{"author":"A","genre":"SCIENCE","isbn":"1","copies":1}`)

		s.CreateBook(ctx)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "title is required")
	})

	t.Run("unknown genre", func(t *testing.T) {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPost, "/api/books",
			`{"title":"T","author":"A","genre":"COOKING","isbn":"1","copies":1}`)

		s.CreateBook(ctx)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Genre must be one of")
		assert.Contains(t, w.Body.String(), `"value":"COOKING"`)
	})

	t.Run("copies wrong type", func(t *testing.T) {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPost, "/api/books",
			`{"title":"T","author":"A","genre":"SCIENCE","isbn":"1","copies":"five"}`)

		s.CreateBook(ctx)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Validation failed")
		assert.Contains(t, w.Body.String(), "copies")
	})

	t.Run("storage error", func(t *testing.T) {
		mockStorage.EXPECT().SaveBook(gomock.Any()).Return(models.Book{}, errors.New("db error"))

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPost, "/api/books",
			`{"title":"T","author":"A","genre":"SCIENCE","isbn":"1","copies":1}`)

		s.CreateBook(ctx)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Server error")
		assert.Contains(t, w.Body.String(), "db error")
	})
}

func TestServer_allBooks(t *testing.T) {
	s, mockStorage := newTestServer(t)

	t.Run("defaults", func(t *testing.T) {
		books := []models.Book{{Title: "Book1"}, {Title: "Book2"}}
		mockStorage.EXPECT().
			GetBooks(models.BookQuery{SortBy: "createdAt", Ascending: false, Limit: 10}).
			Return(books, nil)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/books", nil)

		s.AllBooks(ctx)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Books retrieved successfully")
		assert.Contains(t, w.Body.String(), "Book1")
		assert.Contains(t, w.Body.String(), "Book2")
	})

	t.Run("filter sort limit", func(t *testing.T) {
		mockStorage.EXPECT().
			GetBooks(models.BookQuery{Genre: "SCIENCE", SortBy: "title", Ascending: true, Limit: 2}).
			Return([]models.Book{{Title: "A"}, {Title: "B"}}, nil)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet,
			"/api/books?filter=SCIENCE&sortBy=title&sort=asc&limit=2", nil)

		s.AllBooks(ctx)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("storage failure maps to 404", func(t *testing.T) {
		mockStorage.EXPECT().GetBooks(gomock.Any()).Return(nil, errors.New("db error"))

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/books", nil)

		s.AllBooks(ctx)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to fetch books")
	})
}

func TestServer_bookInfo(t *testing.T) {
	s, mockStorage := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		mockStorage.EXPECT().GetBook("bid123").Return(models.Book{Title: "Book1"}, nil)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/books/bid123", nil)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.BookInfo(ctx)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Book retrieved successfully")
		assert.Contains(t, w.Body.String(), "Book1")
	})

	t.Run("not found", func(t *testing.T) {
		mockStorage.EXPECT().GetBook("bid123").Return(models.Book{}, storerrros.ErrBookNoExist)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/books/bid123", nil)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.BookInfo(ctx)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Book not found")
	})

	t.Run("storage failure maps to 404", func(t *testing.T) {
		mockStorage.EXPECT().GetBook("bid123").Return(models.Book{}, errors.New("db error"))

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/books/bid123", nil)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.BookInfo(ctx)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to fetch book")
	})
}

func TestServer_updateBook(t *testing.T) {
	s, mockStorage := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		copies := 0
		updated := models.Book{BID: "bid123", Title: "Book1", Copies: 0, Available: false}
		mockStorage.EXPECT().
			UpdateBook("bid123", models.BookPatch{Copies: &copies}).
			Return(updated, nil)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPatch, "/api/books/bid123", `{"copies":0}`)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.UpdateBook(ctx)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Book updated successfully")
		assert.Contains(t, w.Body.String(), `"available":false`)
	})

	t.Run("not found", func(t *testing.T) {
		mockStorage.EXPECT().
			UpdateBook("bid123", gomock.Any()).
			Return(models.Book{}, storerrros.ErrBookNoExist)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPatch, "/api/books/bid123", `{"copies":1}`)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.UpdateBook(ctx)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Book not found")
	})

	t.Run("storage failure maps to 404", func(t *testing.T) {
		mockStorage.EXPECT().
			UpdateBook("bid123", gomock.Any()).
			Return(models.Book{}, errors.New("db error"))

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = jsonRequest(http.MethodPatch, "/api/books/bid123", `{"copies":1}`)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.UpdateBook(ctx)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to update book")
	})
}

func TestServer_removeBook(t *testing.T) {
	s, mockStorage := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		mockStorage.EXPECT().DeleteBook("bid123").Return(nil)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodDelete, "/api/books/bid123", nil)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.RemoveBook(ctx)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Book deleted successfully")
		assert.Contains(t, w.Body.String(), `"data":null`)
	})

	t.Run("not found", func(t *testing.T) {
		mockStorage.EXPECT().DeleteBook("bid123").Return(storerrros.ErrBookNoExist)

		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodDelete, "/api/books/bid123", nil)
		ctx.Params = gin.Params{{Key: "bookId", Value: "bid123"}}

		s.RemoveBook(ctx)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Book not found")
	})
}
