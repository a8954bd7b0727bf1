package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var policyOverridesPath string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective underwriting policy",
	Long:  "Composes the default policy with the configured override file and prints the result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pol, err := basePolicy(policyOverridesPath)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pol)
	},
}

func init() {
	policyCmd.Flags().StringVar(&policyOverridesPath, "overrides", "", "policy overrides YAML file (default from config)")
	rootCmd.AddCommand(policyCmd)
}
