package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regfkit/keyitem/valuedata"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <hive> <path> <name>",
		Short: "Print a single value from a registry key",
		Long: `get resolves path under the hive's root key, then looks up
name among that key's values.

Example:
  regfwalk get system.hive "ControlSet001\Services\Tcpip" "Start"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
}

func runGet(args []string) error {
	hivePath, keyPath, valueName := args[0], args[1], args[2]

	store, tree, err := openTree(hivePath)
	if err != nil {
		return err
	}
	defer store.Close()

	node, err := resolvePath(tree, keyPath)
	if err != nil {
		return err
	}

	item, err := tree.Item(node)
	if err != nil {
		return err
	}

	for i := 0; i < item.Values.Count(); i++ {
		raw, err := item.Values.Get(store, i)
		if err != nil {
			continue
		}
		dv := raw.(valuedata.DecodedValue)
		if !strings.EqualFold(dv.Name, valueName) {
			continue
		}
		view := toValueView(dv)
		fmt.Printf("%s = %s\n", view.Name, view.Text)
		return nil
	}

	return fmt.Errorf("no value %q under %q", valueName, keyPath)
}
