package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samdwyer/farmbalance/internal/persona"
)

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the available personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			set, err := loadPersonas(cfg)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(set.All())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCHECK-IN\tAWAKE\tRISK\tACTIONS\tPREFERENCES")
			for _, p := range set.All() {
				fmt.Fprintf(tw, "%s\t%s\t%d/%d min\t%02d-%02d\t%.1f\t%d\t%s\n",
					p.ID, p.Name, p.CheckIn.WeekdayMinutes, p.CheckIn.WeekendMinutes,
					p.WakeHour, p.SleepHour, p.RiskTolerance, p.ActionsPerCheckIn, preferences(p))
			}
			return tw.Flush()
		},
	}
}

func preferences(p *persona.Persona) string {
	var s string
	for _, key := range []string{persona.Farming, persona.Adventuring, persona.Crafting, persona.Mining, persona.Helpers} {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%.1f", key, p.Weight(key))
	}
	return s
}
