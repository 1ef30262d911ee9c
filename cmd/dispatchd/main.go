package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "dispatchd",
		Short: "Intelligent dispatch and journey engine",
		Long:  "dispatchd runs the journey planning, barcode scan, and optimization engine for a last-mile logistics network.",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(serveCmd())
	root.AddCommand(optimizeCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
