package domain

import "time"

// UnratedScore marks a book that has no completed, scored loans yet.
const UnratedScore float64 = -1

// Book represents the canonical book entity in the database/service.
type Book struct {
	ID           int64
	Name         string
	AverageScore float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Rated reports whether at least one returned loan has scored the book.
func (b Book) Rated() bool {
	return b.AverageScore != UnratedScore
}
