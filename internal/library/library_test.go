package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/project-a/learning-hub/internal/compose"
	"github.com/project-a/learning-hub/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "courses"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.LibraryConfig{
		LibraryDir: filepath.Join(tmpDir, "library"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg, filepath.Join(tmpDir, "courses"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func sampleCourse(id string) types.Course {
	return types.Course{
		ID:    id,
		Query: "photosynthesis",
		Syllabus: types.Syllabus{
			CourseTitle: "Photosynthesis Explained",
			Topics: []types.Topic{
				{Headline: "Light Reactions", Subtopics: []string{"Chlorophyll"}},
			},
		},
		Content: "# Photosynthesis\n\nPlants convert sunlight into chemical energy.\n\n" +
			"## Light Reactions\n\nChlorophyll absorbs photons in the thylakoid membrane.\n\n" +
			"## Calvin Cycle\n\nCarbon fixation builds sugars from carbon dioxide.\n",
		Model:       "gemini-2.0-flash",
		GeneratedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

// writeCourse writes a full course directory under courses/[id].
func writeCourse(t *testing.T, tmpDir, id string, course types.Course) {
	t.Helper()
	dir := filepath.Join(tmpDir, "courses", id)
	if err := compose.WriteCourse(dir, course); err != nil {
		t.Fatal(err)
	}
}

// ingestHelper writes one sample course and ingests it.
func ingestHelper(t *testing.T, store *Store, tmpDir, id string) {
	t.Helper()
	writeCourse(t, tmpDir, id, sampleCourse(id))
	var buf strings.Builder
	if _, err := store.Ingest(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"courses", "sections", "sections_fts", "indexing_status"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "library", indexDir, dbFile)

	cfg := types.LibraryConfig{LibraryDir: filepath.Join(tmpDir, "library")}
	store, err := NewStore(cfg, filepath.Join(tmpDir, "courses"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", dbPath)
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	tests := []struct {
		name        string
		courses     int
		wantIndexed int
	}{
		{"single course", 1, 1},
		{"multiple courses", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, tmpDir := testSetup(t)

			for i := 0; i < tt.courses; i++ {
				id := fmt.Sprintf("course-%d", i)
				writeCourse(t, tmpDir, id, sampleCourse(id))
			}

			var buf strings.Builder
			summary, err := store.Ingest(context.Background(), &buf)
			if err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if summary.Indexed != tt.wantIndexed {
				t.Errorf("Indexed = %d, want %d", summary.Indexed, tt.wantIndexed)
			}
			if summary.Failed != 0 {
				t.Errorf("Failed = %d, want 0; output: %s", summary.Failed, buf.String())
			}
		})
	}
}

func TestIngestPopulatesCoursesTable(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "photosynthesis")

	var title, model string
	err := store.db.QueryRow(
		`SELECT title, model FROM courses WHERE id = ?`, "photosynthesis",
	).Scan(&title, &model)
	if err != nil {
		t.Fatal(err)
	}
	if title != "Photosynthesis Explained" {
		t.Errorf("title = %q", title)
	}
	if model != "gemini-2.0-flash" {
		t.Errorf("model = %q", model)
	}
}

func TestIngestIndexesSections(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "photosynthesis")

	results, err := store.Retrieve(context.Background(), QueryOptions{CourseID: "photosynthesis"})
	if err != nil {
		t.Fatal(err)
	}
	// introduction + two ## sections.
	if len(results) != 3 {
		t.Fatalf("got %d sections, want 3", len(results))
	}
	if results[0].Position != 1 {
		t.Errorf("first position = %d, want 1", results[0].Position)
	}
	if results[1].Heading != "Light Reactions" {
		t.Errorf("second heading = %q", results[1].Heading)
	}
}

func TestIngestIgnoresNonCourseDirs(t *testing.T) {
	store, tmpDir := testSetup(t)

	// A directory without course.yaml is skipped silently.
	if err := os.MkdirAll(filepath.Join(tmpDir, "courses", "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total() != 0 {
		t.Errorf("Total() = %d, want 0", summary.Total())
	}
}

func TestIngestWritesExportYAML(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "export-course")

	path := filepath.Join(tmpDir, "library", indexDir, "export.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("export.yaml not written after ingestion")
	}
}

// --- incremental update tests ---

func TestIngestSkipsUnchanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "course-skip")

	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if summary.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0", summary.Indexed)
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("output should contain 'skipped': %s", buf.String())
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "course-update")

	updated := sampleCourse("course-update")
	updated.Content = "# Photosynthesis\n\n## Revised Section\n\nCompletely rewritten body text.\n"
	dir := filepath.Join(tmpDir, "courses", "course-update")
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	writeCourse(t, tmpDir, "course-update", updated)

	// Touch the metadata file to ensure mod time changes.
	path := filepath.Join(dir, metadataFile)
	future := time.Now().Add(time.Second)
	os.Chtimes(path, future, future)

	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1; output: %s", summary.Updated, buf.String())
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{CourseID: "course-update"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if strings.Contains(r.Content, "thylakoid") {
			t.Errorf("old section content survived the update: %q", r.Heading)
		}
	}
}

func TestIngestSummaryOutput(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeCourse(t, tmpDir, "course-1", sampleCourse("course-1"))

	var buf strings.Builder
	if _, err := store.Ingest(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	output := buf.String()

	if !strings.Contains(output, "indexed: 1") {
		t.Errorf("output should contain 'indexed: 1': %s", output)
	}
	if !strings.Contains(output, "skipped: 0") {
		t.Errorf("output should contain 'skipped: 0': %s", output)
	}
}

// --- full-text search tests ---

func TestRetrieveFullTextSearch(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "fts-course")

	tests := []struct {
		name    string
		query   string
		wantMin int
	}{
		{"matching term", "chlorophyll", 1},
		{"exact phrase", "carbon fixation", 1},
		{"no match", "quantum entanglement xyzzy", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), QueryOptions{Query: tt.query})
			if err != nil {
				t.Fatal(err)
			}
			if len(results) < tt.wantMin {
				t.Errorf("got %d results, want >= %d", len(results), tt.wantMin)
			}
		})
	}
}

func TestRetrieveIncludesCourseMetadata(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "meta-course")

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "chlorophyll"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for _, r := range results {
		if r.CourseID == "" {
			t.Error("result missing course_id")
		}
		if r.CourseTitle == "" {
			t.Error("result missing course_title")
		}
		if r.CourseQuery == "" {
			t.Error("result missing course_query")
		}
	}
}

func TestRetrieveRespectsMaxResults(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "limit-course")

	results, err := store.Retrieve(context.Background(), QueryOptions{
		CourseID:   "limit-course",
		MaxResults: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 2 {
		t.Errorf("got %d results, want <= 2", len(results))
	}
}

// --- structured query tests ---

func TestRetrieveByHeading(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "heading-course")

	results, err := store.Retrieve(context.Background(), QueryOptions{Heading: "Calvin Cycle"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !strings.Contains(results[0].Content, "Carbon fixation") {
		t.Errorf("unexpected section content: %q", results[0].Content)
	}
}

func TestRetrieveByCourseID(t *testing.T) {
	store, tmpDir := testSetup(t)

	for _, id := range []string{"course-a", "course-b"} {
		writeCourse(t, tmpDir, id, sampleCourse(id))
	}
	var buf strings.Builder
	store.Ingest(context.Background(), &buf)

	results, err := store.Retrieve(context.Background(), QueryOptions{CourseID: "course-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
	for _, r := range results {
		if r.CourseID != "course-a" {
			t.Errorf("result course_id = %q, want %q", r.CourseID, "course-a")
		}
	}
}

func TestRetrieveEmptyOptions(t *testing.T) {
	opts := QueryOptions{}
	if !opts.IsEmpty() {
		t.Error("empty QueryOptions should report IsEmpty() = true")
	}
	if (QueryOptions{Query: "x"}).IsEmpty() {
		t.Error("QueryOptions with a query should not be empty")
	}
}

// --- course listing and show tests ---

func TestCourses(t *testing.T) {
	store, tmpDir := testSetup(t)

	for _, id := range []string{"alpha", "beta"} {
		writeCourse(t, tmpDir, id, sampleCourse(id))
	}
	var buf strings.Builder
	store.Ingest(context.Background(), &buf)

	courses, err := store.Courses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}
	if courses[0].ID != "alpha" {
		t.Errorf("first course = %q, want alpha", courses[0].ID)
	}
	if courses[0].Sections != 3 {
		t.Errorf("section count = %d, want 3", courses[0].Sections)
	}
}

func TestShow(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "show-course")

	qr, err := store.Show(context.Background(), "show-course/02")
	if err != nil {
		t.Fatal(err)
	}
	if qr.Heading != "Light Reactions" {
		t.Errorf("heading = %q", qr.Heading)
	}
	if !strings.Contains(qr.Content, "thylakoid") {
		t.Errorf("unexpected content: %q", qr.Content)
	}
}

func TestShowNotFound(t *testing.T) {
	store, _ := testSetup(t)

	_, err := store.Show(context.Background(), "nope/99")
	if err == nil {
		t.Fatal("expected error for nonexistent section")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want 'not found'", err.Error())
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "export-yaml-course")

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "library", indexDir, "export.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Course == nil {
			t.Errorf("entry %s missing course metadata", e.SectionID)
		}
	}
}

func TestExportJSON(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "export-json-course")

	if err := store.ExportJSON(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "library", indexDir, "export.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestExportFilteredByCourse(t *testing.T) {
	store, tmpDir := testSetup(t)

	for _, id := range []string{"keep", "drop"} {
		writeCourse(t, tmpDir, id, sampleCourse(id))
	}
	var buf strings.Builder
	store.Ingest(context.Background(), &buf)

	if err := store.ExportJSON(context.Background(), QueryOptions{CourseID: "keep"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "library", indexDir, "export.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ExportEntry
	json.Unmarshal(data, &entries)
	for _, e := range entries {
		if e.CourseID != "keep" {
			t.Errorf("entry course_id = %q, want keep", e.CourseID)
		}
	}
}

// --- IngestSummary ---

func TestIngestSummaryTotal(t *testing.T) {
	s := IngestSummary{Indexed: 2, Updated: 1, Skipped: 3, Failed: 1}
	if s.Total() != 7 {
		t.Errorf("Total() = %d, want 7", s.Total())
	}
}
