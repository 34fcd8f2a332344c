package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Scheduled job management",
	}
	cmd.AddCommand(jobsListCmd())
	cmd.AddCommand(jobsDeleteCmd())
	return cmd
}

func jobsListCmd() *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stores, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			jobs, err := stores.Jobs.ListJobs(context.Background(), phone)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("no jobs")
				return nil
			}
			for _, j := range jobs {
				state := "enabled"
				if !j.Enabled {
					state = "disabled"
				}
				next := time.Unix(j.NextRunAt, 0).Format(time.RFC3339)
				fmt.Printf("%-36s %-8s next=%s cron=%q tz=%s\n    %s\n",
					j.ID, state, next, j.CronExpression, j.Timezone, j.Prompt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "user phone number")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func jobsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stores, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			if err := stores.Jobs.DeleteJob(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}
}
