package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/library-service/internal/domain"
)

type bookResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookDetailResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.ListBooks(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	items := make([]bookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, toBookResponse(b))
	}
	s.respondJSON(w, r, http.StatusOK, items)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, msgInvalidBookID)
		return
	}

	book, err := s.books.GetBook(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, bookDetailResponse{
		ID:    book.ID,
		Name:  book.Name,
		Score: book.AverageScore,
	})
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(w, r)
	if err != nil {
		s.respondDecodeError(w, r, err)
		return
	}
	req, err := validateCreateBook(fields)
	if err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	book, err := s.books.CreateBook(r.Context(), req.Name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, toBookResponse(book))
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{ID: b.ID, Name: b.Name}
}
