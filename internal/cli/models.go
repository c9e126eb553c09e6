package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/skein/internal/models"
)

// ModelInfo describes one catalog model.
type ModelInfo struct {
	Name        string `json:"name"`
	Expect      string `json:"expect"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
}

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the catalog models",
		Long: `List the models check and replay accept, with the outcome each one is
expected to have.

Examples:
  skein models
  skein models --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(rootOpts, cmd)
		},
	}
}

func runModels(opts *RootOptions, cmd *cobra.Command) error {
	all := models.All()
	infos := make([]ModelInfo, 0, len(all))
	for _, m := range all {
		infos = append(infos, ModelInfo{
			Name:        m.Name,
			Expect:      string(m.Expect),
			Code:        string(m.Code),
			Description: m.Description,
		})
	}
	return opts.formatter(cmd).Render("ok", infos, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tEXPECT\tDESCRIPTION")
		for _, m := range infos {
			expect := m.Expect
			if m.Code != "" {
				expect += " " + m.Code
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, expect, m.Description)
		}
		_ = tw.Flush()
	})
}
