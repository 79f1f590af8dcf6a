// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists generated courses and builds a retrieval index
// over their sections.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/project-a/learning-hub/internal/compose"
	"github.com/project-a/learning-hub/pkg/types"
)

const (
	indexDir     = "index"
	dbFile       = "library.db"
	metadataFile = "course.yaml"
)

// Store manages the course library SQLite database.
type Store struct {
	db         *sql.DB
	libraryDir string
	coursesDir string
	maxResults int
}

// NewStore opens or creates the library SQLite database at
// libraryDir/index/library.db, creating the schema if needed.
func NewStore(cfg types.LibraryConfig, coursesDir string) (*Store, error) {
	dbDir := filepath.Join(cfg.LibraryDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		libraryDir: cfg.LibraryDir,
		coursesDir: coursesDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			query TEXT,
			title TEXT,
			model TEXT,
			generated_at TEXT,
			dir TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			course_id TEXT NOT NULL REFERENCES courses(id),
			heading TEXT,
			position INTEGER,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_course_id ON sections(course_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			course_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sections_fts USING fts5(heading, content, content=sections, content_rowid=rowid)`,
			`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, heading, content) VALUES (new.rowid, new.heading, new.content);
			END`,
			`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, heading, content) VALUES('delete', old.rowid, old.heading, old.content);
			END`,
			`CREATE TRIGGER sections_au AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, heading, content) VALUES('delete', old.rowid, old.heading, old.content);
				INSERT INTO sections_fts(rowid, heading, content) VALUES (new.rowid, new.heading, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a library indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of courses processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest scans the courses directory for course.yaml files and populates
// the database. It detects new, changed, and unchanged courses by file
// modification time for incremental updates. On success it refreshes
// export.yaml.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.coursesDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading courses directory %s: %w", s.coursesDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		courseDir := filepath.Join(s.coursesDir, entry.Name())
		metaPath := filepath.Join(courseDir, metadataFile)

		info, err := os.Stat(metaPath)
		if err != nil {
			// Not a course directory.
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		courseID := entry.Name()

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE course_id = ?`, courseID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", courseID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(metaPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", courseID, err)
			summary.Failed++
			continue
		}

		var course types.Course
		if err := yaml.Unmarshal(data, &course); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", courseID, err)
			summary.Failed++
			continue
		}

		sections, err := loadSections(courseDir, course.Content)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", courseID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestCourse(ctx, courseID, courseDir, &course, sections, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", courseID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d sections)\n", courseID, len(sections))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d sections)\n", courseID, len(sections))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

// loadSections reads numbered section files from a course directory,
// falling back to splitting the course document when none exist.
func loadSections(courseDir, content string) ([]compose.Section, error) {
	files, err := compose.SectionFiles(courseDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return compose.SplitSections(content), nil
	}

	var sections []compose.Section
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(f), err)
		}
		sections = append(sections, compose.Section{
			Heading: sectionHeading(string(data), f),
			Body:    string(data),
		})
	}
	return sections, nil
}

// sectionHeading pulls the first Markdown heading from a section body,
// falling back to the file's slug.
func sectionHeading(body, path string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), ".md")
	if len(name) > 3 {
		name = name[3:]
	}
	return name
}

func (s *Store) ingestCourse(ctx context.Context, courseID, courseDir string, course *types.Course, sections []compose.Section, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE course_id = ?`, courseID); err != nil {
			return fmt.Errorf("deleting old sections: %w", err)
		}
	}

	generatedAt := ""
	if !course.GeneratedAt.IsZero() {
		generatedAt = course.GeneratedAt.Format(time.RFC3339)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO courses (id, query, title, model, generated_at, dir)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, title=excluded.title, model=excluded.model,
			generated_at=excluded.generated_at, dir=excluded.dir`,
		courseID, course.Query, course.Syllabus.CourseTitle, course.Model, generatedAt, courseDir,
	)
	if err != nil {
		return fmt.Errorf("upserting course: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO sections (id, course_id, heading, position, content)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, sec := range sections {
		sectionID := fmt.Sprintf("%s/%02d", courseID, i+1)
		if _, err := stmt.ExecContext(ctx, sectionID, courseID, sec.Heading, i+1, sec.Body); err != nil {
			return fmt.Errorf("inserting section %s: %w", sectionID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (course_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(course_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		courseID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
