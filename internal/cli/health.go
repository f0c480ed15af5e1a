package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewHealthCmd создаёт команду проверки здоровья.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregated dependency health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			health, err := client.Health()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(health.Components))
			for name := range health.Components {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				component := health.Components[name]
				state := "healthy"
				if !component.Healthy {
					state = "unhealthy"
				}
				rows = append(rows, []string{name, state, component.CheckedAt, component.Error})
			}

			out.Print([]string{"COMPONENT", "STATE", "CHECKED_AT", "ERROR"}, rows, health)

			if !health.Healthy {
				return fmt.Errorf("one or more components are unhealthy")
			}
			return nil
		},
	}
}
