package repository

import (
	"errors"
	"math"

	"gorm.io/gorm"
)

// ErrNotFound - запрошенной записи нет в хранилище.
var ErrNotFound = errors.New("record not found")

// PageRequest - параметры постраничной выборки, Page начинается с 1.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	// без переполнения: дальше такой страницы всё равно ничего нет
	if p.Page-1 > math.MaxInt32/p.Limit {
		return math.MaxInt32
	}
	return (p.Page - 1) * p.Limit
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
