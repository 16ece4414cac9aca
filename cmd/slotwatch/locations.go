package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/slotwatch/cowin"
	"github.com/spf13/cobra"
)

const lookupTimeout = 30 * time.Second

// statesCmd lists the state ids accepted in state_id.
var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List states and their ids",
	Long: `List every state known to the appointment API with its id, for use
as state_id in a config file.

Example:
  slotwatch states`,
	Args: cobra.NoArgs,
	RunE: runStates,
}

// districtsCmd lists the district ids of one state.
var districtsCmd = &cobra.Command{
	Use:   "districts <state-id>",
	Short: "List the districts of a state",
	Long: `List the districts of a state with their ids, for use in
district_ids of a config file.

Example:
  slotwatch districts 21`,
	Args: cobra.ExactArgs(1),
	RunE: runDistricts,
}

func init() {
	for _, c := range []*cobra.Command{statesCmd, districtsCmd} {
		rootCmd.AddCommand(c)
		c.Flags().String("api", "", "API base URL (default: the public CoWIN API)")
	}
}

func newDirectory(cmd *cobra.Command) (*cowin.Directory, func(), error) {
	var opts []cowin.GatewayOption
	if base, _ := cmd.Flags().GetString("api"); base != "" {
		opts = append(opts, cowin.WithBaseURL(base))
	}
	g, err := cowin.NewGateway(opts...)
	if err != nil {
		return nil, nil, err
	}
	return cowin.NewDirectory(g), g.Close, nil
}

func runStates(cmd *cobra.Command, args []string) error {
	dir, closeFn, err := newDirectory(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
	defer cancel()

	states, err := dir.States(ctx)
	if err != nil {
		return fmt.Errorf("failed to list states: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE")
	for _, s := range states {
		fmt.Fprintf(tw, "%d\t%s\n", s.StateID, s.StateName)
	}
	return tw.Flush()
}

func runDistricts(cmd *cobra.Command, args []string) error {
	stateID, err := strconv.Atoi(args[0])
	if err != nil || stateID <= 0 {
		return fmt.Errorf("invalid state id %q", args[0])
	}

	dir, closeFn, err := newDirectory(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
	defer cancel()

	districts, err := dir.Districts(ctx, stateID)
	if err != nil {
		return fmt.Errorf("failed to list districts: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDISTRICT")
	for _, d := range districts {
		fmt.Fprintf(tw, "%d\t%s\n", d.DistrictID, d.DistrictName)
	}
	return tw.Flush()
}

// describeDistricts names the watched districts of a state for display.
// Ids missing from the state's district list are returned as unknown.
func describeDistricts(ctx context.Context, dir *cowin.Directory, stateID int, ids []int) (string, []int, error) {
	if _, err := dir.States(ctx); err != nil {
		return "", nil, err
	}
	if _, err := dir.Districts(ctx, stateID); err != nil {
		return "", nil, err
	}

	stateName := fmt.Sprintf("state %d", stateID)
	if s, ok := dir.State(stateID); ok {
		stateName = s.Name
	}

	var unknown []int
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if d, ok := dir.District(id); !ok || d.ParentID != stateID {
			unknown = append(unknown, id)
		}
		names = append(names, dir.DistrictName(id))
	}
	return strings.Join(names, ", ") + " (" + stateName + ")", unknown, nil
}
