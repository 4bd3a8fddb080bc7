package models

import (
	"errors"
	"strings"
	"time"
)

// Book price is stored in minor units and must not change while a
// payment transaction for it is in flight.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" { return errors.New("title required") }
	if b.Price <= 0 { return errors.New("price must be > 0") }
	return nil
}
