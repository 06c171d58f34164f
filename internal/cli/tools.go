package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harun/promethica/pkg/bio"
	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools and their strategies",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	registry := tool.NewRegistry(zerolog.Nop())
	svc := bio.NewService(upstream.NewClient(zerolog.Nop()), nil, bio.DefaultRegistries(), zerolog.Nop())
	if err := svc.Register(registry); err != nil {
		return fmt.Errorf("failed to build tool catalog: %w", err)
	}

	for _, name := range registry.List() {
		def := registry.Get(name)
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-10s %s\n", def.Name, def.Strategy, def.Description)
	}
	return nil
}
