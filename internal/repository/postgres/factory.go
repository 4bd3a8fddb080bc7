package postgres

import (
	repo "github.com/bookpasal/bookpasal-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Users     repo.Users
	Books     repo.Books
	Orders    repo.Orders
	AuditLogs repo.AuditLogs
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:     &usersRepo{pool},
		Books:     &booksRepo{pool},
		Orders:    &ordersRepo{pool},
		AuditLogs: &auditLogsRepo{pool},
	}
}
