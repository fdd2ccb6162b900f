package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mpilower/internal/resolve"
)

// DatatypeRow is one scalar type and its wire datatype.
type DatatypeRow struct {
	Type     string `json:"type"`
	Datatype string `json:"datatype"`
}

// NewDatatypesCommand creates the datatypes command.
func NewDatatypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "datatypes",
		Short: "Print the scalar type to wire datatype table",
		Long: `Print the wire datatype each manifest scalar type lowers to.
Types missing from the table fail to lower with UNSUPPORTED_TYPE.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			mappings := resolve.Mappings()

			if formatter.Format == "json" {
				rows := make([]DatatypeRow, len(mappings))
				for i, m := range mappings {
					rows[i] = DatatypeRow{Type: m.Type.String(), Datatype: m.Tag.String()}
				}
				return formatter.Success(rows)
			}

			for _, m := range mappings {
				fmt.Fprintln(formatter.Writer, m.String())
			}
			return nil
		},
	}
}
