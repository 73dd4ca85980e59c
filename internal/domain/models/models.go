package models

import "time"

// Genres a book may be created with.
var Genres = []string{"FICTION", "NON_FICTION", "SCIENCE", "HISTORY", "BIOGRAPHY", "FANTASY"}

type Book struct {
	BID         string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Isbn        string    `json:"isbn"`
	Description string    `json:"description"`
	Copies      int       `json:"copies"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpdateAvailability recomputes the derived available flag from the copy count.
func (b *Book) UpdateAvailability() {
	b.Available = b.Copies > 0
}

type Borrow struct {
	BRID      string    `json:"id,omitempty"`
	Book      string    `json:"book"`
	Quantity  int       `json:"quantity"`
	DueDate   time.Time `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BookRef struct {
	Title string `json:"title"`
	Isbn  string `json:"isbn"`
}

type BorrowSummary struct {
	Book          BookRef `json:"book"`
	TotalQuantity int     `json:"totalQuantity"`
}

// BookQuery describes the list endpoint's query parameters.
type BookQuery struct {
	Genre     string
	SortBy    string
	Ascending bool
	Limit     int
}

// BookPatch carries the fields of a partial update, nil meaning "not passed".
type BookPatch struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Genre       *string `json:"genre"`
	Isbn        *string `json:"isbn"`
	Description *string `json:"description"`
	Copies      *int    `json:"copies"`
	Available   *bool   `json:"available"`
}
