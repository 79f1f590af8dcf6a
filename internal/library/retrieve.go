// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for library queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// CourseID filters by course.
	CourseID string

	// Heading filters by exact section heading.
	Heading string

	// MaxResults limits result count. Zero uses store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.CourseID == "" && q.Heading == ""
}

// QueryResult is a course section with its course metadata.
type QueryResult struct {
	SectionID   string `json:"section_id" yaml:"section_id"`
	CourseID    string `json:"course_id" yaml:"course_id"`
	Heading     string `json:"heading" yaml:"heading"`
	Position    int    `json:"position" yaml:"position"`
	Content     string `json:"content" yaml:"content"`
	CourseTitle string `json:"course_title" yaml:"course_title"`
	CourseQuery string `json:"course_query" yaml:"course_query"`
}

// Retrieve queries the library with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or sorted by course and position otherwise.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT sec.id, sec.course_id, sec.heading, sec.position, sec.content,
				c.title, c.query, sections_fts.rank
			FROM sections_fts
			JOIN sections sec ON sec.rowid = sections_fts.rowid
			LEFT JOIN courses c ON sec.course_id = c.id
			WHERE sections_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT sec.id, sec.course_id, sec.heading, sec.position, sec.content,
				c.title, c.query, 0 AS rank
			FROM sections sec
			LEFT JOIN courses c ON sec.course_id = c.id
			WHERE 1=1`)
	}

	if opts.CourseID != "" {
		qb.WriteString(` AND sec.course_id = ?`)
		args = append(args, opts.CourseID)
	}

	if opts.Heading != "" {
		qb.WriteString(` AND sec.heading = ?`)
		args = append(args, opts.Heading)
	}

	if useFTS {
		qb.WriteString(` ORDER BY sections_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY sec.course_id, sec.position`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			courseTitle sql.NullString
			courseQuery sql.NullString
			rank        float64
		)

		if err := rows.Scan(
			&qr.SectionID, &qr.CourseID, &qr.Heading, &qr.Position, &qr.Content,
			&courseTitle, &courseQuery, &rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if courseTitle.Valid {
			qr.CourseTitle = courseTitle.String
		}
		if courseQuery.Valid {
			qr.CourseQuery = courseQuery.String
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}

// CourseInfo is one row of the course listing.
type CourseInfo struct {
	ID          string `json:"id" yaml:"id"`
	Query       string `json:"query" yaml:"query"`
	Title       string `json:"title" yaml:"title"`
	Model       string `json:"model" yaml:"model"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Sections    int    `json:"sections" yaml:"sections"`
}

// Courses lists the indexed courses with their section counts.
func (s *Store) Courses(ctx context.Context) ([]CourseInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.query, c.title, c.model, c.generated_at,
			(SELECT count(*) FROM sections sec WHERE sec.course_id = c.id)
		FROM courses c ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var courses []CourseInfo
	for rows.Next() {
		var ci CourseInfo
		if err := rows.Scan(&ci.ID, &ci.Query, &ci.Title, &ci.Model, &ci.GeneratedAt, &ci.Sections); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		courses = append(courses, ci)
	}
	return courses, rows.Err()
}

// Show returns the full content of a single section by ID.
func (s *Store) Show(ctx context.Context, sectionID string) (QueryResult, error) {
	var (
		qr          QueryResult
		courseTitle sql.NullString
		courseQuery sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT sec.id, sec.course_id, sec.heading, sec.position, sec.content, c.title, c.query
		FROM sections sec
		LEFT JOIN courses c ON sec.course_id = c.id
		WHERE sec.id = ?`, sectionID,
	).Scan(&qr.SectionID, &qr.CourseID, &qr.Heading, &qr.Position, &qr.Content, &courseTitle, &courseQuery)

	if err != nil {
		if err == sql.ErrNoRows {
			return QueryResult{}, fmt.Errorf("section %s not found", sectionID)
		}
		return QueryResult{}, fmt.Errorf("looking up section: %w", err)
	}

	if courseTitle.Valid {
		qr.CourseTitle = courseTitle.String
	}
	if courseQuery.Valid {
		qr.CourseQuery = courseQuery.String
	}
	return qr, nil
}
