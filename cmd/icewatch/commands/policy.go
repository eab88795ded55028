package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and validate policy configuration",
	}

	cmd.AddCommand(newPolicyShowCommand())
	cmd.AddCommand(newPolicyValidateCommand())
	cmd.AddCommand(newPolicyPacksCommand())

	return cmd
}

func newPolicyShowCommand() *cobra.Command {
	var policyPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective severity-to-action policy",
		Example: `  # Show the built-in default policy
  icewatch policy show

  # Show a policy file after loading and validation
  icewatch policy show --policy policy.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.shutdown(cmd.Context())

			cfg, err := app.loadPolicy(policyPath)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(cfg)
			}

			out := cmd.OutOrStdout()
			for _, rule := range cfg.Rules {
				fmt.Fprintf(out, "%-8s -> %-8s %s\n", rule.Severity, rule.Action, rule.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyPath, "policy", "", "policy configuration file")

	return cmd
}

func newPolicyValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a policy configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.shutdown(cmd.Context())

			if _, err := app.loadPolicy(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Policy %s is valid\n", args[0])
			return nil
		},
	}

	return cmd
}

func newPolicyPacksCommand() *cobra.Command {
	var packPaths []string

	cmd := &cobra.Command{
		Use:   "packs",
		Short: "List the loaded Rego policy packs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.shutdown(ctx)

			packs, err := app.buildPackEngine(ctx, packPaths)
			if err != nil {
				return err
			}

			loaded := packs.List()
			if jsonOutput {
				return printJSON(loaded)
			}

			out := cmd.OutOrStdout()
			for _, pack := range loaded {
				status := "enabled"
				if !pack.Enabled {
					status = "disabled"
				}
				fmt.Fprintf(out, "%-30s %-9s %s\n", pack.Name, status, pack.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&packPaths, "policy-pack", nil, "additional Rego policy pack files")

	return cmd
}
