package postgres

import (
	"context"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// StudentRepository implements student.Directory on the group_students table.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// Upsert inserts or fully replaces a roster entry. The foreign key on
// group_name enforces that the group is registered.
func (r *StudentRepository) Upsert(ctx context.Context, rec *student.Record) (*student.Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	out := &student.Record{GroupName: rec.GroupName}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO group_students (group_name, roll_number, name, github_username, leetcode_username)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_name, roll_number) DO UPDATE SET
			name              = EXCLUDED.name,
			github_username   = EXCLUDED.github_username,
			leetcode_username = EXCLUDED.leetcode_username,
			updated_at        = NOW()
		RETURNING roll_number, name, github_username, leetcode_username`,
		rec.GroupName, rec.RollNumber, rec.Name, rec.GitHubUsername, rec.LeetCodeUsername).
		Scan(&out.RollNumber, &out.Name, &out.GitHubUsername, &out.LeetCodeUsername)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.ErrGroupNotFound
		}
		return nil, storageErr("student", "Upsert", err)
	}
	return out, nil
}

// GetAll returns the group roster ordered by roll number. An unregistered
// group reads as an empty roster; group existence is the registry's call.
func (r *StudentRepository) GetAll(ctx context.Context, groupName string) ([]*student.Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT roll_number, name, github_username, leetcode_username
		FROM group_students
		WHERE group_name = $1
		ORDER BY roll_number`, groupName)
	if err != nil {
		return nil, storageErr("student", "GetAll", err)
	}
	defer rows.Close()

	records := make([]*student.Record, 0)
	for rows.Next() {
		rec := &student.Record{GroupName: groupName}
		if err := rows.Scan(&rec.RollNumber, &rec.Name, &rec.GitHubUsername, &rec.LeetCodeUsername); err != nil {
			return nil, storageErr("student", "GetAll", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByRoll returns a single roster entry.
func (r *StudentRepository) GetByRoll(ctx context.Context, groupName string, rollNumber int64) (*student.Record, error) {
	rec := &student.Record{GroupName: groupName}
	err := r.conn.QueryRow(ctx, `
		SELECT roll_number, name, github_username, leetcode_username
		FROM group_students
		WHERE group_name = $1 AND roll_number = $2`, groupName, rollNumber).
		Scan(&rec.RollNumber, &rec.Name, &rec.GitHubUsername, &rec.LeetCodeUsername)
	if IsNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, storageErr("student", "GetByRoll", err)
	}
	return rec, nil
}
