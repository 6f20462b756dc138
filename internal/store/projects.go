// ABOUTME: Minimal project and ticket records for session linkage
// ABOUTME: Exists so sessions can validate references and exports can render display names

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateProject inserts a new project row.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("inserting project: %w", err)
	}

	s.logger.Debug("created project", "id", p.ID, "name", p.Name)
	return nil
}

// GetProject retrieves a project by ID.
// Returns ErrProjectNotFound if it doesn't exist.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by name.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := []Project{}
	for rows.Next() {
		var p Project
		var createdAtStr string
		if err := rows.Scan(&p.ID, &p.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// CreateTicket inserts a new ticket row.
func (s *SQLiteStore) CreateTicket(ctx context.Context, t *Ticket) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, project_id, title, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, nullString(t.ProjectID), t.Title, t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("inserting ticket: %w", err)
	}

	s.logger.Debug("created ticket", "id", t.ID, "title", t.Title)
	return nil
}

// GetTicket retrieves a ticket by ID.
// Returns ErrTicketNotFound if it doesn't exist.
func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	var t Ticket
	var projectID sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, created_at FROM tickets WHERE id = ?`, id,
	).Scan(&t.ID, &projectID, &t.Title, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ticket: %w", err)
	}

	t.ProjectID = stringPtr(projectID)
	t.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &t, nil
}

// ListTickets returns all tickets, newest first.
func (s *SQLiteStore) ListTickets(ctx context.Context) ([]Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, title, created_at FROM tickets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tickets := []Ticket{}
	for rows.Next() {
		var t Ticket
		var projectID sql.NullString
		var createdAtStr string
		if err := rows.Scan(&t.ID, &projectID, &t.Title, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}
		t.ProjectID = stringPtr(projectID)
		t.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tickets: %w", err)
	}
	return tickets, nil
}
