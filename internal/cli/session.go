package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/roomchat/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or clear the active room binding",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session

			if err := client.Get(cmd.Context(), "/api/v1/session", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the active room without leaving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/session/room"); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Active room cleared")
			return nil
		},
	})

	return cmd
}
