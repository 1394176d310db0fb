package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/bills"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/repository"
)

func billsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Work with stored bills",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List your bills by due date",
		RunE:  runBillsList,
	}
	addFilterFlags(list)
	cmd.AddCommand(list)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "only bills in this category")
	cmd.Flags().String("from", "", "due on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "due before this date (YYYY-MM-DD)")
	cmd.Flags().Bool("unpaid", false, "only unpaid bills")
}

func filterFromFlags(cmd *cobra.Command) (entity.BillFilter, error) {
	var f entity.BillFilter
	f.Category, _ = cmd.Flags().GetString("category")
	if unpaid, _ := cmd.Flags().GetBool("unpaid"); unpaid {
		paid := false
		f.IsPaid = &paid
	}
	for _, d := range []struct {
		flag string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw, _ := cmd.Flags().GetString(d.flag)
		if raw == "" {
			continue
		}
		t, err := time.Parse(constants.DateLayout, raw)
		if err != nil {
			return f, &common.ValidationError{Field: d.flag, Value: raw, Message: "must be a date in YYYY-MM-DD format"}
		}
		*d.dst = t
	}
	return f, nil
}

// openBills opens only the store; listing and exports need no completion client.
func openBills(cmd *cobra.Command) (*bills.Service, repository.Store, error) {
	cfg := loadConfig()
	store, err := repository.Open(cmd.Context(), cfg.Database, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return bills.NewService(store.Bills(), nil, cfg.Import.Categories, slog.Default()), store, nil
}

func runBillsList(cmd *cobra.Command, _ []string) error {
	ctx, err := userContext(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	svc, store, err := openBills(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	list, err := svc.List(ctx, common.UserIDFromContext(ctx), f)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DUE\tNAME\tCATEGORY\tAMOUNT\tFREQUENCY\tPAID")
	for _, b := range list {
		paid := "no"
		if b.IsPaid {
			paid = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.DueDate.Format(constants.DateLayout), b.Name, b.Category, b.Amount.StringFixed(2), b.Frequency, paid)
	}
	return tw.Flush()
}
