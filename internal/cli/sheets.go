package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/sheet"
)

type sheetFlags struct {
	projectID string
	path      string
	format    string
	corpus    bool
}

func (f *sheetFlags) store(database *db.Database) (*db.EntryStore, string) {
	if f.corpus {
		return database.Corpus(), "Corpus"
	}
	return database.Translations(), "Translations"
}

func newImportCommand(a *app) *cobra.Command {
	var f sheetFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a spreadsheet into a project's translations or corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			p, err := database.GetProject(cmd.Context(), f.projectID)
			if err != nil {
				return fmt.Errorf("project %s: %w", f.projectID, err)
			}

			file, err := os.Open(f.path)
			if err != nil {
				return err
			}
			defer file.Close()

			rows, err := sheet.Read(f.path, file)
			if err != nil {
				return err
			}
			store, _ := f.store(database)
			res, err := sheet.Import(cmd.Context(), store, p.ID, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d added, %d updated, %d skipped\n",
				f.path, res.Added, res.Updated, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.projectID, "project", "", "project id")
	cmd.Flags().StringVar(&f.path, "file", "", "spreadsheet to import (.xlsx or .csv)")
	cmd.Flags().BoolVar(&f.corpus, "corpus", false, "import into the corpus instead of translations")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var f sheetFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project's translations or corpus as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := sheet.ParseFormat(f.format)
			if !cmd.Flags().Changed("format") {
				format, err = sheet.FormatFromName(f.path)
			}
			if err != nil {
				return err
			}

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			p, err := database.GetProject(cmd.Context(), f.projectID)
			if err != nil {
				return fmt.Errorf("project %s: %w", f.projectID, err)
			}
			store, sheetName := f.store(database)
			entries, err := store.List(cmd.Context(), p.ID, "")
			if err != nil {
				return err
			}
			columns, rows := sheet.FromEntries(p.Languages, entries)

			out, err := os.Create(f.path)
			if err != nil {
				return err
			}
			if err := sheet.Write(out, format, sheetName, columns, rows); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(rows), f.path)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.projectID, "project", "", "project id")
	cmd.Flags().StringVar(&f.path, "out", "", "output file")
	cmd.Flags().StringVar(&f.format, "format", "", "xlsx or csv (default: from the file extension)")
	cmd.Flags().BoolVar(&f.corpus, "corpus", false, "export the corpus instead of translations")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("out")
	return cmd
}
