package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the model's custom tags registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks field constraints on a task
func (t Task) Validate() error {
	if err := Validator().Struct(t); err != nil {
		return fmt.Errorf("invalid task %s: %w", t.ID, err)
	}
	return nil
}

// Validate checks field constraints on a board and that every task points back at it
func (b Board) Validate() error {
	if err := Validator().Struct(b); err != nil {
		return fmt.Errorf("invalid board %s: %w", b.ID, err)
	}
	for _, t := range b.Tasks {
		if t.BoardID != b.ID {
			return fmt.Errorf("task %s references board %s but belongs to %s", t.ID, t.BoardID, b.ID)
		}
	}
	return nil
}

// Validate checks every board and task of the dataset
func (d UserDataset) Validate() error {
	for _, b := range d.Boards {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}
