// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/project-a/learning-hub/internal/library"
	"github.com/project-a/learning-hub/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the course library (index, retrieve, export)",
	Long: `Library manages a local SQLite index built from generated courses. Use
subcommands to index courses, search their sections, or export the index.`,
}

// --- index subcommand ---

var libraryIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index generated courses into the library",
	Long: `Index scans the courses directory for course.yaml files, ingests their
sections into a SQLite database with FTS5 indexing, and writes an export
file. Unchanged courses are skipped on subsequent runs.`,
	RunE: runLibraryIndex,
}

func runLibraryIndex(cmd *cobra.Command, args []string) error {
	cfg, coursesDir := libraryConfig(cmd)

	store, err := library.NewStore(cfg, coursesDir)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d course(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed courses",
	RunE:  runLibraryList,
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	cfg, coursesDir := libraryConfig(cmd)
	store, err := library.NewStore(cfg, coursesDir)
	if err != nil {
		return err
	}
	defer store.Close()

	courses, err := store.Courses(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(courses)
	}

	if len(courses) == 0 {
		fmt.Println("No courses indexed.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-30s  %-40s  %-8s  %s\n", "ID", "Title", "Sections", "Generated")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, c := range courses {
		title := c.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-40s  %-8d  %s\n", c.ID, title, c.Sections, c.GeneratedAt)
	}
	return nil
}

// --- retrieve subcommand ---

var libraryRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the library with full-text search and filters",
	Long: `Retrieve searches course sections using FTS5 full-text search, structured
filters (course, heading), or a combination of both.

Use --show with a section ID to print the full section content.`,
	RunE: runLibraryRetrieve,
}

func runLibraryRetrieve(cmd *cobra.Command, args []string) error {
	showID, _ := cmd.Flags().GetString("show")

	cfg, coursesDir := libraryConfig(cmd)
	store, err := library.NewStore(cfg, coursesDir)
	if err != nil {
		return err
	}
	defer store.Close()

	// Show mode: print one section in full.
	if showID != "" {
		qr, err := store.Show(context.Background(), showID)
		if err != nil {
			return err
		}
		fmt.Println(qr.Content)
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --course, or --heading")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []library.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-18s  %-25s  %-30s  %s\n",
		"Rank", "Section", "Heading", "Course", "Content")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for i, r := range results {
		heading := r.Heading
		if len(heading) > 25 {
			heading = heading[:22] + "..."
		}
		course := r.CourseTitle
		if course == "" {
			course = r.CourseID
		}
		if len(course) > 30 {
			course = course[:27] + "..."
		}
		content := strings.ReplaceAll(r.Content, "\n", " ")
		if len(content) > 40 {
			content = content[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-18s  %-25s  %-30s  %s\n",
			i+1, r.SectionID, heading, course, content)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to YAML or JSON",
	Long: `Export writes the full library (or a filtered subset) to
library/index/export.yaml or export.json. Supports the same filter
flags as retrieve for partial exports.`,
	RunE: runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg, coursesDir := libraryConfig(cmd)
	store, err := library.NewStore(cfg, coursesDir)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to library/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to library/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func libraryConfig(cmd *cobra.Command) (types.LibraryConfig, string) {
	libraryDir, _ := cmd.Flags().GetString("library-dir")
	if libraryDir == "" {
		libraryDir = "library"
	}
	coursesDir, _ := cmd.Flags().GetString("courses-dir")
	if coursesDir == "" {
		coursesDir = defaultCoursesDir
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	cfg := types.LibraryConfig{
		LibraryDir: libraryDir,
		MaxResults: maxResults,
	}
	return cfg, coursesDir
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) library.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	courseID, _ := cmd.Flags().GetString("course")
	heading, _ := cmd.Flags().GetString("heading")
	limit, _ := cmd.Flags().GetInt("limit")

	return library.QueryOptions{
		Query:      queryText,
		CourseID:   courseID,
		Heading:    heading,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	libraryCmd.PersistentFlags().String("library-dir", "library", "base directory for the library (contains index/)")
	libraryCmd.PersistentFlags().String("courses-dir", defaultCoursesDir, "base directory for generated courses")
	libraryCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// List flags.
	libraryListCmd.Flags().Bool("json", false, "output the course list as JSON")

	// Retrieve flags.
	libraryRetrieveCmd.Flags().String("query", "", "full-text search query")
	libraryRetrieveCmd.Flags().String("course", "", "filter by course ID")
	libraryRetrieveCmd.Flags().String("heading", "", "filter by section heading")
	libraryRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	libraryRetrieveCmd.Flags().String("show", "", "print the full content of a section ID")
	libraryRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	libraryExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	libraryExportCmd.Flags().String("course", "", "filter by course ID for partial export")
	libraryExportCmd.Flags().String("heading", "", "filter by section heading for partial export")
	libraryExportCmd.Flags().Int("limit", 0, "maximum sections to export (0 = all)")

	// Wire subcommands.
	libraryCmd.AddCommand(libraryIndexCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryRetrieveCmd)
	libraryCmd.AddCommand(libraryExportCmd)

	rootCmd.AddCommand(libraryCmd)
}
