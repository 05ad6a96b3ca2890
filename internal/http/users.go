package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/library-service/internal/domain"
	"github.com/Clark-Hu/library-service/internal/service"
)

type userResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type pastBookResponse struct {
	Name      string `json:"name"`
	UserScore *int   `json:"userScore"`
}

type presentBookResponse struct {
	Name string `json:"name"`
}

type userBooksResponse struct {
	Past    []pastBookResponse    `json:"past"`
	Present []presentBookResponse `json:"present"`
}

type userDetailResponse struct {
	ID    int64             `json:"id"`
	Name  string            `json:"name"`
	Books userBooksResponse `json:"books"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	s.respondJSON(w, r, http.StatusOK, items)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, msgInvalidUserID)
		return
	}

	detail, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, toUserDetailResponse(detail))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(w, r)
	if err != nil {
		s.respondDecodeError(w, r, err)
		return
	}
	req, err := validateCreateUser(fields)
	if err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleBorrowBook(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := s.loanParams(w, r)
	if !ok {
		return
	}

	if err := s.users.BorrowBook(r.Context(), userID, bookID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReturnBook(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := s.loanParams(w, r)
	if !ok {
		return
	}

	fields, err := decodeObject(w, r)
	if err != nil {
		s.respondDecodeError(w, r, err)
		return
	}
	req, err := validateReturnBook(fields)
	if err != nil {
		s.respondDecodeError(w, r, err)
		return
	}

	if err := s.users.ReturnBook(r.Context(), userID, bookID, req.Score); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loanParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := parseID(chi.URLParam(r, "userId"))
	if !ok {
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, msgInvalidUserID)
		return 0, 0, false
	}
	bookID, ok := parseID(chi.URLParam(r, "bookId"))
	if !ok {
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, msgInvalidBookID)
		return 0, 0, false
	}
	return userID, bookID, true
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name}
}

func toUserDetailResponse(detail service.UserDetail) userDetailResponse {
	books := userBooksResponse{
		Past:    make([]pastBookResponse, 0, len(detail.Books.Past)),
		Present: make([]presentBookResponse, 0, len(detail.Books.Present)),
	}
	for _, b := range detail.Books.Past {
		books.Past = append(books.Past, pastBookResponse{Name: b.BookName, UserScore: b.Score})
	}
	for _, b := range detail.Books.Present {
		books.Present = append(books.Present, presentBookResponse{Name: b.BookName})
	}
	return userDetailResponse{
		ID:    detail.User.ID,
		Name:  detail.User.Name,
		Books: books,
	}
}
