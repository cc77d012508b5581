package repository

import "gorm.io/gorm"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page request. Zero values mean "first page, default size".
type Page struct {
	Page  int
	Limit int
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// pick returns tx when the caller is inside a transaction, db otherwise.
func pick(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
