package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kilianp07/evroute/core/routing"
)

var routeCmd = &cobra.Command{
	Use:   "route <from> <to>",
	Short: "Print the route with the fewest hops between two locations",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	net, err := cfg.Network.Build()
	if err != nil {
		return err
	}
	f := routing.NewFinder(net)
	route, err := f.FindRoute(args[0], args[1])
	if err != nil {
		return err
	}
	path, err := f.FindPath(args[0], args[1])
	if err != nil {
		return err
	}
	var length float64
	for i := 1; i < len(path); i++ {
		length += r3.Norm(r3.Sub(path[i], path[i-1]))
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%d hops, %.1f m\n", strings.Join(route, " -> "), len(route)-1, length)
	return err
}
