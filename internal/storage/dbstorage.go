package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/azaliaz/library-management/internal/domain/consts"
	"github.com/azaliaz/library-management/internal/domain/models"
	"github.com/azaliaz/library-management/internal/logger"
	storerrros "github.com/azaliaz/library-management/internal/storage/errors"
)

const dialectPostgres = "postgres"

const bookColumns = `bid, title, author, genre, isbn, description, copies, available, created_at, updated_at`

// sortColumns whitelists the sortBy values the list endpoint accepts;
// anything else falls back to created_at.
var sortColumns = map[string]string{
	"title":       "title",
	"author":      "author",
	"genre":       "genre",
	"isbn":        "isbn",
	"description": "description",
	"copies":      "copies",
	"available":   "available",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

type DBStorage struct {
	pool *pgxpool.Pool
}

func NewDB(ctx context.Context, addr string) (*DBStorage, error) {
	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return &DBStorage{pool: pool}, nil
}

func (dbs *DBStorage) SaveBook(book models.Book) (models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	// available is derived state, never trusted from the caller
	book.UpdateAvailability()
	book.BID = uuid.New().String()
	row := dbs.pool.QueryRow(ctx,
		`INSERT INTO books (bid, title, author, genre, isbn, description, copies, available)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`,
		book.BID, book.Title, book.Author, book.Genre, book.Isbn, book.Description, book.Copies, book.Available)
	if err := row.Scan(&book.CreatedAt, &book.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			log.Warn().Str("isbn", book.Isbn).Msg("isbn already exists")
			return models.Book{}, storerrros.ErrIsbnExists
		}
		log.Error().Err(err).Msg("save book failed")
		return models.Book{}, err
	}
	return book, nil
}

func (dbs *DBStorage) GetBooks(query models.BookQuery) ([]models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	sortCol, ok := sortColumns[query.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := goqu.I(sortCol).Desc()
	if query.Ascending {
		order = goqu.I(sortCol).Asc()
	}

	stmt := goqu.Dialect(dialectPostgres).
		From("books").
		Select("bid", "title", "author", "genre", "isbn", "description", "copies", "available", "created_at", "updated_at").
		Order(order)
	if query.Genre != "" {
		stmt = stmt.Where(goqu.Ex{"genre": query.Genre})
	}
	if query.Limit > 0 {
		stmt = stmt.Limit(uint(query.Limit))
	}

	sql, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := dbs.pool.Query(ctx, sql, args...)
	if err != nil {
		log.Error().Err(err).Msg("failed get books from db")
		return nil, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.BID, &book.Title, &book.Author, &book.Genre, &book.Isbn,
			&book.Description, &book.Copies, &book.Available, &book.CreatedAt, &book.UpdatedAt); err != nil {
			log.Error().Err(err).Msg("failed to scan data from db")
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (dbs *DBStorage) GetBook(bid string) (models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()
	row := dbs.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM books WHERE bid = $1`, bookColumns), bid)

	var book models.Book
	if err := row.Scan(&book.BID, &book.Title, &book.Author, &book.Genre, &book.Isbn,
		&book.Description, &book.Copies, &book.Available, &book.CreatedAt, &book.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storerrros.ErrBookNoExist
		}
		log.Error().Err(err).Msg("failed to scan data from db")
		return models.Book{}, err
	}
	return book, nil
}

func (dbs *DBStorage) UpdateBook(bid string, patch models.BookPatch) (models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	record := goqu.Record{}
	if patch.Title != nil {
		record["title"] = *patch.Title
	}
	if patch.Author != nil {
		record["author"] = *patch.Author
	}
	if patch.Genre != nil {
		record["genre"] = *patch.Genre
	}
	if patch.Isbn != nil {
		record["isbn"] = *patch.Isbn
	}
	if patch.Description != nil {
		record["description"] = *patch.Description
	}
	if patch.Copies != nil {
		record["copies"] = *patch.Copies
	}
	if patch.Available != nil {
		record["available"] = *patch.Available
	}

	var book models.Book
	if len(record) == 0 {
		return dbs.GetBook(bid)
	}
	record["updated_at"] = goqu.L("now()")

	sql, args, err := goqu.Dialect(dialectPostgres).
		Update("books").
		Set(record).
		Where(goqu.Ex{"bid": bid}).
		Returning("bid", "title", "author", "genre", "isbn", "description", "copies", "available", "created_at", "updated_at").
		Prepared(true).ToSQL()
	if err != nil {
		return models.Book{}, err
	}

	row := dbs.pool.QueryRow(ctx, sql, args...)
	if err := row.Scan(&book.BID, &book.Title, &book.Author, &book.Genre, &book.Isbn,
		&book.Description, &book.Copies, &book.Available, &book.CreatedAt, &book.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storerrros.ErrBookNoExist
		}
		log.Error().Err(err).Msg("update book failed")
		return models.Book{}, err
	}

	// availability is recomputed from the stored copies in a second write
	if err := dbs.pool.QueryRow(ctx,
		`UPDATE books SET available = copies > 0 WHERE bid = $1 RETURNING available`, bid).
		Scan(&book.Available); err != nil {
		log.Error().Err(err).Msg("update availability failed")
		return models.Book{}, err
	}
	return book, nil
}

func (dbs *DBStorage) DeleteBook(bid string) error {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	res, err := dbs.pool.Exec(ctx, "DELETE FROM books WHERE bid = $1", bid)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete book")
		return err
	}
	if res.RowsAffected() == 0 {
		log.Warn().Str("bid", bid).Msg("book not found")
		return storerrros.ErrBookNoExist
	}
	log.Info().Str("bid", bid).Msg("book deleted successfully")
	return nil
}

// BorrowBook decrements the book's copies and records the loan in one
// transaction. The book row is locked for the duration, so two borrows
// of the same book cannot both pass the availability check.
func (dbs *DBStorage) BorrowBook(bid string, quantity int, dueDate time.Time) (models.Borrow, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := dbs.pool.Begin(ctx)
	if err != nil {
		return models.Borrow{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var copies int
	err = tx.QueryRow(ctx, `SELECT copies FROM books WHERE bid = $1 FOR UPDATE`, bid).Scan(&copies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Borrow{}, storerrros.ErrBookNoExist
		}
		log.Error().Err(err).Msg("get book for borrow failed")
		return models.Borrow{}, err
	}
	if copies < quantity {
		err = &storerrros.NotEnoughCopiesError{Available: copies}
		return models.Borrow{}, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE books SET copies = copies - $2, available = copies - $2 > 0, updated_at = now() WHERE bid = $1`,
		bid, quantity)
	if err != nil {
		log.Error().Err(err).Msg("decrement copies failed")
		return models.Borrow{}, err
	}

	borrow := models.Borrow{
		BRID:     uuid.New().String(),
		Book:     bid,
		Quantity: quantity,
		DueDate:  dueDate,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO borrows (brid, book_bid, quantity, due_date) VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`,
		borrow.BRID, borrow.Book, borrow.Quantity, borrow.DueDate).
		Scan(&borrow.CreatedAt, &borrow.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Msg("save borrow failed")
		return models.Borrow{}, err
	}
	log.Debug().Str("bid", bid).Int("quantity", quantity).Msg("book borrowed")
	return borrow, nil
}

func (dbs *DBStorage) BorrowSummary() ([]models.BorrowSummary, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	sql, args, err := goqu.Dialect(dialectPostgres).
		From(goqu.T("borrows").As("br")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.bid").Eq(goqu.I("br.book_bid")))).
		Select(goqu.I("b.title"), goqu.I("b.isbn"), goqu.SUM(goqu.I("br.quantity")).As("total_quantity")).
		GroupBy(goqu.I("b.bid"), goqu.I("b.title"), goqu.I("b.isbn")).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := dbs.pool.Query(ctx, sql, args...)
	if err != nil {
		log.Error().Err(err).Msg("failed to get borrow summary")
		return nil, err
	}
	defer rows.Close()

	summary := []models.BorrowSummary{}
	for rows.Next() {
		var item models.BorrowSummary
		if err := rows.Scan(&item.Book.Title, &item.Book.Isbn, &item.TotalQuantity); err != nil {
			log.Error().Err(err).Msg("failed to scan data from db")
			return nil, err
		}
		summary = append(summary, item)
	}
	return summary, rows.Err()
}

func Migrations(dbDsn string, migrationsPath string) error {
	log := logger.Get()
	migratePath := fmt.Sprintf("file://%s", migrationsPath)
	m, err := migrate.New(migratePath, dbDsn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no migrations apply")
			return nil
		}
		return err
	}
	log.Info().Msg("all migrations apply")
	return nil
}
