package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/dispatch-go/internal/application/agent"
)

func optimizeCmd() *cobra.Command {
	var areaID string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run one optimization cycle for an area and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(areaID)
		},
	}
	cmd.Flags().StringVar(&areaID, "area", "", "area ID to optimize")
	cmd.MarkFlagRequired("area")
	return cmd
}

func runOptimize(areaID string) error {
	a, err := buildApp(configPath)
	if err != nil {
		return err
	}

	resp, err := a.mediator.Send(context.Background(), agent.OptimizeCommand{AreaID: areaID})
	if err != nil {
		return fmt.Errorf("optimization cycle failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
