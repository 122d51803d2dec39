package api

import (
	"github.com/lilizblack/bookeareads-server/internal/service"
)

// Services groups the business logic services used by the API server.
// This keeps the NewServer signature small and makes tests easier to wire.
type Services struct {
	Auth    *service.AuthService
	Library *service.LibraryService
	Stats   *service.StatsService
}
