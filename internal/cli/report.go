package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/store"
)

// reportCommand creates the report command showing a saved advise report.
func (c *CLI) reportCommand() *cobra.Command {
	var asJSON, interactive bool

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Show a saved advise report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.ValidateID(args[0]); err != nil {
				return err
			}
			fs, err := store.NewFileStore("")
			if err != nil {
				return err
			}
			defer fs.Close()

			rec, err := fs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return errors.New(errors.ErrCodeReportNotFound, "report %s not found or expired", args[0])
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			case interactive:
				return browse(rec.Report)
			default:
				printKeyValue("Created", rec.CreatedAt.Format("2006-01-02 15:04:05"))
				printReport(rec.Report)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored record as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the stacks interactively")
	return cmd
}
