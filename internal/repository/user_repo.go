package repository

import (
	"context"
	"strings"

	"github.com/lyipi/4bpchoquecoe/internal/model"
)

// UserRepository read access to the member directory.
type UserRepository interface {
	// List the whole directory ordered by full name, then id.
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// Search matches full name or username, case-insensitively.
	Search(ctx context.Context, q string, limit int) ([]model.User, error)
}

type userRepo struct {
	*store
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var users []model.User
	err := db.Order("full_name ASC").Order("id ASC").Find(&users).Error
	return users, wrap("list", "users", err)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user model.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrap("get", "users", err)
	}
	return &user, nil
}

func (r *userRepo) Search(ctx context.Context, q string, limit int) ([]model.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Model(&model.User{})
	if q = strings.TrimSpace(q); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		query = query.Where("full_name ILIKE ? OR username ILIKE ?", pattern, pattern)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var users []model.User
	err := query.Order("full_name ASC").Order("id ASC").Find(&users).Error
	return users, wrap("search", "users", err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
