package services

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"usersync/internal/models"
	"usersync/internal/repositories"
)

const (
	ChoiceAll    = "all"
	ChoiceSearch = "search"
)

// ErrInvalidChoice is returned for a display choice other than all or search.
var ErrInvalidChoice = errors.New("invalid choice")

// DisplayService prints rows of the remote Users table.
type DisplayService struct {
	repo repositories.UserRepository
}

// NewDisplayService creates a new DisplayService.
func NewDisplayService(repo repositories.UserRepository) *DisplayService {
	return &DisplayService{
		repo: repo,
	}
}

// FormatUser renders one row in the fixed display field order.
func FormatUser(u models.User) string {
	return fmt.Sprintf("User ID: %s, First Name: %s, Last Name: %s, Age: %d, Gender: %s, Year of Birth: %d",
		u.ID, u.FirstName, u.LastName, u.Age, u.Gender, u.YearOfBirth)
}

// Find returns the rows matching id, or every row when id is empty.
func (s *DisplayService) Find(id string) ([]models.User, error) {
	if id == "" {
		return s.repo.GetAll()
	}
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []models.User{*user}, nil
}

// Show writes one line per matching row to w, or a "no data found" line when
// nothing matches.
func (s *DisplayService) Show(w io.Writer, id string) error {
	users, err := s.Find(id)
	if err != nil {
		return fmt.Errorf("error retrieving data: %w", err)
	}

	if len(users) == 0 {
		if id != "" {
			_, err = fmt.Fprintf(w, "No data found for User ID: %s\n", id)
		} else {
			_, err = fmt.Fprintln(w, "No data found.")
		}
		return err
	}
	for _, u := range users {
		if _, err := fmt.Fprintln(w, FormatUser(u)); err != nil {
			return err
		}
	}
	return nil
}

// Choose runs the display selected by choice. askID is only called for a
// search. Any other choice prints an error line and runs no query.
func (s *DisplayService) Choose(w io.Writer, choice string, askID func() (string, error)) error {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case ChoiceAll:
		return s.Show(w, "")
	case ChoiceSearch:
		id, err := askID()
		if err != nil {
			return fmt.Errorf("failed to read user ID: %w", err)
		}
		return s.Show(w, id)
	default:
		fmt.Fprintln(w, "Invalid choice.")
		return ErrInvalidChoice
	}
}
