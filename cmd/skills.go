package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hermes-assist/hermes/internal/config"
	"github.com/hermes-assist/hermes/internal/skills"
)

func skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Skill registry management",
	}
	cmd.AddCommand(skillsListCmd())
	return cmd
}

func skillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered skills and load errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			reg := skills.NewRegistry(skills.Config{
				BundledDir:          config.ExpandHome(cfg.Skills.BundledDir),
				ImportedDir:         config.ExpandHome(cfg.Skills.ImportedDir),
				ConfidenceThreshold: cfg.Skills.ConfidenceThreshold,
			})

			list := reg.List()
			if len(list) == 0 {
				fmt.Println("no skills found")
			}
			for _, s := range list {
				state := "enabled"
				if !s.Enabled {
					state = "disabled"
				}
				channels := "all channels"
				if len(s.Channels) > 0 {
					var names []string
					for ch := range s.Channels {
						names = append(names, ch)
					}
					channels = strings.Join(names, ",")
				}
				fmt.Printf("%-20s %-8s %-9s %s\n", s.Name, s.Source, state, channels)
				fmt.Printf("    %s\n", s.Description)
			}

			if errs := reg.LoadErrors(); len(errs) > 0 {
				fmt.Printf("\n%d skill(s) failed to load:\n", len(errs))
				for _, e := range errs {
					fmt.Printf("  %s: %v\n", e.Dir, e.Err)
				}
			}
			return nil
		},
	}
}
