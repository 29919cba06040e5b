package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/transdesk/backend/internal/translate"
)

func newTranslateCommand(a *app) *cobra.Command {
	var batch translate.ProjectBatch

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Fill one language of a project's translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := a.newService(database).TranslateProject(cmd.Context(), batch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %s: %d/%d translated, %d failed\n",
				res.TaskID, res.SuccessCount, res.TotalCount, res.FailCount)
			if len(res.Failed) > 0 {
				fmt.Fprintf(out, "Failed keys: %s\n", strings.Join(res.Failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&batch.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&batch.TargetLang, "lang", "", "target language code")
	cmd.Flags().StringVar(&batch.SourceLang, "source", "", "source language code (default: the project's source language)")
	cmd.Flags().BoolVar(&batch.CorpusEnabled, "corpus", false, "answer from the project corpus first")
	cmd.Flags().StringSliceVar(&batch.EntryIDs, "ids", nil, "only translate these entry ids")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("lang")
	return cmd
}
