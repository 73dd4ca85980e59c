package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/azaliaz/library-management/internal/domain/models"
	"github.com/azaliaz/library-management/internal/logger"
	storerrros "github.com/azaliaz/library-management/internal/storage/errors"
)

type MemStorage struct {
	mu         sync.Mutex
	bookStor   map[string]models.Book
	borrowStor map[string]models.Borrow
}

func New() *MemStorage {
	return &MemStorage{
		bookStor:   make(map[string]models.Book),
		borrowStor: make(map[string]models.Borrow),
	}
}

func (ms *MemStorage) SaveBook(book models.Book) (models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, b := range ms.bookStor {
		if b.Isbn == book.Isbn {
			return models.Book{}, storerrros.ErrIsbnExists
		}
	}
	book.UpdateAvailability()
	book.BID = uuid.New().String()
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	ms.bookStor[book.BID] = book
	return book, nil
}

func (ms *MemStorage) GetBooks(query models.BookQuery) ([]models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	books := []models.Book{}
	for _, book := range ms.bookStor {
		if query.Genre != "" && book.Genre != query.Genre {
			continue
		}
		books = append(books, book)
	}

	sort.Slice(books, func(i, j int) bool {
		var less bool
		switch query.SortBy {
		case "title":
			less = books[i].Title < books[j].Title
		case "author":
			less = books[i].Author < books[j].Author
		case "genre":
			less = books[i].Genre < books[j].Genre
		case "isbn":
			less = books[i].Isbn < books[j].Isbn
		case "copies":
			less = books[i].Copies < books[j].Copies
		case "updatedAt":
			less = books[i].UpdatedAt.Before(books[j].UpdatedAt)
		default:
			less = books[i].CreatedAt.Before(books[j].CreatedAt)
		}
		if query.Ascending {
			return less
		}
		return !less
	})

	if query.Limit > 0 && len(books) > query.Limit {
		books = books[:query.Limit]
	}
	return books, nil
}

func (ms *MemStorage) GetBook(bid string) (models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.getBook(bid)
}

func (ms *MemStorage) getBook(bid string) (models.Book, error) {
	log := logger.Get()
	book, ok := ms.bookStor[bid]
	if !ok {
		log.Error().Str("bid", bid).Msg("book not found")
		return models.Book{}, storerrros.ErrBookNoExist
	}
	return book, nil
}

func (ms *MemStorage) UpdateBook(bid string, patch models.BookPatch) (models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	book, err := ms.getBook(bid)
	if err != nil {
		return models.Book{}, err
	}
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Genre != nil {
		book.Genre = *patch.Genre
	}
	if patch.Isbn != nil {
		book.Isbn = *patch.Isbn
	}
	if patch.Description != nil {
		book.Description = *patch.Description
	}
	if patch.Copies != nil {
		book.Copies = *patch.Copies
	}
	if patch.Available != nil {
		book.Available = *patch.Available
	}
	book.UpdatedAt = time.Now()
	book.UpdateAvailability()
	ms.bookStor[bid] = book
	return book, nil
}

func (ms *MemStorage) DeleteBook(bid string) error {
	log := logger.Get()
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.bookStor[bid]; !exists {
		log.Warn().Str("bid", bid).Msg("book not found")
		return storerrros.ErrBookNoExist
	}
	delete(ms.bookStor, bid)
	log.Info().Str("bid", bid).Msg("book deleted successfully")
	return nil
}

// BorrowBook checks, decrements and records under one lock, so the
// availability check cannot be invalidated by a concurrent borrow.
func (ms *MemStorage) BorrowBook(bid string, quantity int, dueDate time.Time) (models.Borrow, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	book, err := ms.getBook(bid)
	if err != nil {
		return models.Borrow{}, err
	}
	if book.Copies < quantity {
		return models.Borrow{}, &storerrros.NotEnoughCopiesError{Available: book.Copies}
	}
	book.Copies -= quantity
	book.UpdateAvailability()
	book.UpdatedAt = time.Now()
	ms.bookStor[bid] = book

	now := time.Now()
	borrow := models.Borrow{
		BRID:      uuid.New().String(),
		Book:      bid,
		Quantity:  quantity,
		DueDate:   dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ms.borrowStor[borrow.BRID] = borrow
	return borrow, nil
}

func (ms *MemStorage) BorrowSummary() ([]models.BorrowSummary, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	totals := make(map[string]int)
	for _, borrow := range ms.borrowStor {
		totals[borrow.Book] += borrow.Quantity
	}

	summary := []models.BorrowSummary{}
	for bid, total := range totals {
		book, ok := ms.bookStor[bid]
		if !ok {
			continue
		}
		summary = append(summary, models.BorrowSummary{
			Book:          models.BookRef{Title: book.Title, Isbn: book.Isbn},
			TotalQuantity: total,
		})
	}
	return summary, nil
}
