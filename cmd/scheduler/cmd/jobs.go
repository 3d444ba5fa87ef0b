package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"asset_lifecycle_scheduler/internal/infra/config"

	"github.com/spf13/cobra"
)

const (
	JobReports    = "reports:run-scheduled"
	JobRecurrence = "maintenance:generate-recurring"
	JobWarranties = "warranties:expire"
	JobAlertsGen  = "alerts:generate"
	JobAlertsSend = "alerts:dispatch"
)

type jobDef struct {
	name      string
	spec      string
	exclusive bool
	timeout   time.Duration
	about     string
}

func jobDefs(cfg *config.AppConfig) []jobDef {
	return []jobDef{
		{JobReports, cfg.CronSpecReports, true, 5 * time.Minute, "email scheduled reports whose cron is due"},
		{JobRecurrence, cfg.CronSpecRecurrence, true, 30 * time.Minute, "generate next occurrences of recurring maintenance"},
		{JobWarranties, cfg.CronSpecWarranties, false, 5 * time.Minute, "mark ended warranties as expired"},
		{JobAlertsGen, cfg.CronSpecAlertsBuild, false, 30 * time.Minute, "evaluate alert rules"},
		{JobAlertsSend, cfg.CronSpecAlertsSend, false, 10 * time.Minute, "notify recipients of pending alerts"},
	}
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs and their schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tSCHEDULE\tEXCLUSIVE\tTIMEOUT\tDESCRIPTION")
		for _, d := range jobDefs(cfg) {
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n", d.name, d.spec, d.exclusive, d.timeout, d.about)
		}
		return w.Flush()
	},
}
