package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the authenticated user's full collection, newest first",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Creates a book and assigns a server ID, replacing any client-provisional ID",
		Tags:          []string{"Books"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "putBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}",
		Summary:     "Upsert book",
		Description: "Stores the full book document. The client copy is authoritative.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePutBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAllBooks",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books",
		Summary:     "Delete all books",
		Description: "Removes the user's entire collection. Used by destructive imports.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAllBooks)
}

// === DTOs ===

// BookInput wraps a book document for Huma.
type BookInput struct {
	Body domain.Book
}

// BookByIDInput wraps a book document keyed by path ID.
type BookByIDInput struct {
	ID   string `path:"id" maxLength:"100" doc:"Book ID"`
	Body domain.Book
}

// BookIDInput identifies a book by path parameter.
type BookIDInput struct {
	ID string `path:"id" maxLength:"100" doc:"Book ID"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body domain.Book
}

// BookListResponse contains a user's collection.
type BookListResponse struct {
	Books []domain.Book `json:"books" doc:"Books, newest first"`
	Total int           `json:"total" doc:"Number of books"`
}

// BookListOutput wraps the book list for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*BookListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Library.ListBooks(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list books", "error", err, "user_id", userID)
		return nil, err
	}

	return &BookListOutput{Body: BookListResponse{Books: books, Total: len(books)}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *BookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book := input.Body
	created, err := s.services.Library.CreateBook(ctx, userID, &book)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *created}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Library.GetBook(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: *book}, nil
}

func (s *Server) handlePutBook(ctx context.Context, input *BookByIDInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book := input.Body
	book.ID = input.ID
	if err := s.services.Library.PutBook(ctx, userID, &book); err != nil {
		return nil, err
	}

	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.DeleteBook(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleDeleteAllBooks(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.ReplaceAllBooks(ctx, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "All books deleted"}}, nil
}
