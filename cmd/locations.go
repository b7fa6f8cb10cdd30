package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the locations of the road network and their neighbours",
	RunE:  runLocations,
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}

func runLocations(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	net, err := cfg.Network.Build()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, l := range net.Locations() {
		if _, err := fmt.Fprintf(out, "%-20s (%7.2f, %5.2f, %7.2f)  -> %s\n",
			l.Name, l.Position.X, l.Position.Y, l.Position.Z, strings.Join(net.Neighbors(l.Name), ", ")); err != nil {
			return err
		}
	}
	return nil
}
