package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/workloadtracker/internal/client/models"
)

func newWorkloadsCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workloads",
		Aliases: []string{"w"},
		Short:   "Browse workloads",
	}
	cmd.AddCommand(newWorkloadsListCmd(app), newWorkloadsGetCmd(app))
	return cmd
}

func newWorkloadsListCmd(app func() *App) *cobra.Command {
	var q models.WorkloadQuery

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List visible workloads, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			list, err := a.client.ListWorkloads(cmd.Context(), q)
			if err != nil {
				return err
			}
			printWorkloads(a.out, list)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Status, "status", "", "filter by status")
	f.StringVar(&q.Type, "type", "", "filter by type")
	f.StringVarP(&q.Search, "search", "s", "", "search nama, deskripsi and fungsi")
	f.Int64Var(&q.UserID, "user", 0, "owner id (admins only)")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", 0, "page size (server default when 0)")
	return cmd
}

func newWorkloadsGetCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one workload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid workload id %q", args[0])
			}

			a := app()
			w, err := a.client.GetWorkload(cmd.Context(), id)
			if err != nil {
				return err
			}
			printWorkload(a.out, w)
			return nil
		},
	}
}

func printWorkloads(out io.Writer, list *models.WorkloadList) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAMA\tTYPE\tSTATUS\tOWNER\tDITERIMA")
	for _, w := range list.Workloads {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", w.ID, w.Nama, w.Type, w.Status, w.Username, opt(w.TglDiterima))
	}
	tw.Flush()

	p := list.Pagination
	fmt.Fprintf(out, "page %d/%d, %d total\n", p.Page, max(p.TotalPages, 1), p.Total)
}

func printWorkload(out io.Writer, w *models.Workload) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\n", w.ID)
	fmt.Fprintf(tw, "Nama\t%s\n", w.Nama)
	fmt.Fprintf(tw, "Type\t%s\n", w.Type)
	fmt.Fprintf(tw, "Status\t%s\n", w.Status)
	fmt.Fprintf(tw, "Owner\t%s (%s)\n", w.UserNama, w.Username)
	fmt.Fprintf(tw, "Diterima\t%s\n", opt(w.TglDiterima))
	fmt.Fprintf(tw, "Fungsi\t%s\n", opt(w.Fungsi))
	fmt.Fprintf(tw, "Deskripsi\t%s\n", opt(w.Deskripsi))
	fmt.Fprintf(tw, "Updated\t%s\n", w.UpdatedAt.Local().Format("2006-01-02 15:04"))
	tw.Flush()
}

func opt(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
