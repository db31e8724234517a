package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/internal/application/usecase"
	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

var (
	owner      string
	date       string
	startTime  string
	endTime    string
	jsonOutput bool
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reservation",
		Args:  cobra.NoArgs,
		RunE:  create,
	}
	createCmd.Flags().StringVar(&owner, "owner", "", "reservation owner")
	createCmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD")
	createCmd.Flags().StringVar(&startTime, "start", "", "start time, HH:MM")
	createCmd.Flags().StringVar(&endTime, "end", "", "end time, HH:MM")
	for _, name := range []string{"owner", "date", "start", "end"} {
		_ = createCmd.MarkFlagRequired(name)
	}

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Move a reservation to a new time on the same date",
		Args:  cobra.ExactArgs(1),
		RunE:  update,
	}
	updateCmd.Flags().StringVar(&startTime, "start", "", "new start time, HH:MM")
	updateCmd.Flags().StringVar(&endTime, "end", "", "new end time, HH:MM")
	_ = updateCmd.MarkFlagRequired("start")
	_ = updateCmd.MarkFlagRequired("end")

	deleteCmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a reservation",
		Args:    cobra.ExactArgs(1),
		RunE:    remove,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List reservations for a date or an owner",
		Args:    cobra.NoArgs,
		RunE:    list,
	}
	listCmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD")
	listCmd.Flags().StringVar(&owner, "owner", "", "reservation owner")
	listCmd.MarkFlagsMutuallyExclusive("date", "owner")
	listCmd.MarkFlagsOneRequired("date", "owner")

	for _, c := range []*cobra.Command{createCmd, updateCmd, listCmd} {
		c.Flags().BoolVarP(&jsonOutput, "json", "j", false, "JSON output")
	}

	RootCmd.AddCommand(createCmd, updateCmd, deleteCmd, listCmd)
}

func create(cmd *cobra.Command, args []string) error {
	day, err := valueobject.ParseCalendarDay(date)
	if err != nil {
		return err
	}
	timeRange, err := valueobject.ParseTimeRange(startTime, endTime)
	if err != nil {
		return err
	}

	a, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	reservation, err := a.engine.Create(cmd.Context(), owner, day, timeRange)
	if err != nil {
		return describe(err)
	}

	return printReservations(cmd.OutOrStdout(), []*entity.Reservation{reservation})
}

func update(cmd *cobra.Command, args []string) error {
	timeRange, err := valueobject.ParseTimeRange(startTime, endTime)
	if err != nil {
		return err
	}

	a, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	reservation, err := a.engine.Update(cmd.Context(), args[0], timeRange)
	if err != nil {
		return describe(err)
	}

	return printReservations(cmd.OutOrStdout(), []*entity.Reservation{reservation})
}

func remove(cmd *cobra.Command, args []string) error {
	a, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.Delete(cmd.Context(), args[0]); err != nil {
		return describe(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func list(cmd *cobra.Command, args []string) error {
	a, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var reservations []*entity.Reservation
	if date != "" {
		day, parseErr := valueobject.ParseCalendarDay(date)
		if parseErr != nil {
			return parseErr
		}
		reservations, err = a.engine.ListByDate(cmd.Context(), day)
	} else {
		reservations, err = a.engine.ListByOwner(cmd.Context(), owner)
	}
	if err != nil {
		return describe(err)
	}

	return printReservations(cmd.OutOrStdout(), reservations)
}

// describe добавляет подсказку к ошибкам, которые пользователь может исправить сам
func describe(err error) error {
	switch {
	case errors.Is(err, usecase.ErrOverlap):
		return fmt.Errorf("%w: pick another slot, see 'calendarctl list --date'", err)
	case errors.Is(err, usecase.ErrNotFound):
		return fmt.Errorf("%w: check the id with 'calendarctl list --owner'", err)
	}
	return err
}

func printReservations(w io.Writer, reservations []*entity.Reservation) error {
	rows := make([]*dto.ReservationDTO, 0, len(reservations))
	for _, r := range reservations {
		rows = append(rows, dto.FromEntity(r))
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tDATE\tSTART\tEND")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.ID, row.Owner, row.Date, row.StartTime, row.EndTime)
	}
	return tw.Flush()
}
