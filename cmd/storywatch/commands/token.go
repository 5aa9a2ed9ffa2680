package commands

import (
	"fmt"

	"storywatch-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var tokenLength int

func init() {
	tokenCmd.Flags().IntVar(&tokenLength, "length", 32, "Length of the token.")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:         "token",
	Short:       "Generates an access token for the RPC API.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"standalone": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := serviceutil.GenerateAccessToken(tokenLength)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
