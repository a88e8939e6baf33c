package main

import (
	"fmt"
	"strings"

	"github.com/nimda/password-tester/internal/modules/digest"
	"github.com/spf13/cobra"
)

func (a *app) digestCmd() *cobra.Command {
	var algorithm string
	var list bool

	cmd := &cobra.Command{
		Use:   "digest [PASSWORD...]",
		Short: "Print algorithm:hex targets for plain text passwords",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range digest.DefaultRegistry.List() {
					alg, _ := digest.DefaultRegistry.Get(name)
					fmt.Fprintf(a.out, "%-10s %s\n", alg.Name, alg.Description)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one password is required")
			}

			for _, password := range args {
				sum, err := digest.Sum(algorithm, password)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, digest.Target{Algorithm: strings.ToLower(algorithm), Digest: sum}.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", digest.DefaultAlgorithm, "Hash algorithm")
	cmd.Flags().BoolVar(&list, "list", false, "List supported algorithms")
	return cmd
}
