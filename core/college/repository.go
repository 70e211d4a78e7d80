package college

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("college not found")

type Repository interface {
	GetCollege(ctx context.Context, id int) (College, error)
}
