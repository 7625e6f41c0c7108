package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func (r *runner) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := r.app.bettingService.UserInfo(cmd.Context())
			if err != nil {
				return err
			}
			role := info.UserRole
			if info.IsAdmin {
				role += ", admin"
			}
			fmt.Fprintf(r.app.out, "%s (%s)\nbalance: %.2f\n", info.UserLogin, role, info.Balance)
			return nil
		},
	}
}

func (r *runner) newMatchesCommand() *cobra.Command {
	var sport string

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "List upcoming matches and their odds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := r.app.bettingService.Matches(cmd.Context(), sport)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintln(r.app.out, "No matches")
				return nil
			}
			fmt.Fprintln(r.app.out, matchTable(matches))
			return nil
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "only list matches of this sport")
	return cmd
}

func matchTable(matches []models.Match) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SPORT", "HOME", "AWAY", "STARTS", "1", "X", "2").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, m := range matches {
		t.Row(m.ID, m.Sport, m.Home, m.Away,
			m.StartsAt.Local().Format("2006-01-02 15:04"),
			odds(m.Odds.Home), odds(m.Odds.Draw), odds(m.Odds.Away))
	}
	return t.String()
}

func odds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (r *runner) newBetConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bet-config",
		Short: "Show or change the betting configuration",
	}
	cmd.AddCommand(r.newBetConfigGetCommand(), r.newBetConfigSetCommand())
	return cmd
}

func (r *runner) newBetConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the betting configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := r.app.bettingService.BetConfig(cmd.Context())
			if err != nil {
				return err
			}
			printBetConfig(r.app.out, cfg)
			return nil
		},
	}
}

func (r *runner) newBetConfigSetCommand() *cobra.Command {
	var (
		stake, minOdds, maxOdds float64
		sports                  []string
		autoExecute             bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change selected fields of the betting configuration",
		Long: `Change selected fields of the betting configuration.

Only flags given on the command line are changed; the rest keep their
current server-side values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := r.app.bettingService.BetConfig(ctx)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("stake") {
				cfg.Stake = stake
			}
			if f.Changed("min-odds") {
				cfg.MinOdds = minOdds
			}
			if f.Changed("max-odds") {
				cfg.MaxOdds = maxOdds
			}
			if f.Changed("sports") {
				cfg.Sports = sports
			}
			if f.Changed("auto-execute") {
				cfg.AutoExecute = autoExecute
			}

			updated, err := r.app.bettingService.UpdateBetConfig(ctx, *cfg)
			if err != nil {
				return err
			}
			printBetConfig(r.app.out, updated)
			return nil
		},
	}
	cmd.Flags().Float64Var(&stake, "stake", 0, "default stake")
	cmd.Flags().Float64Var(&minOdds, "min-odds", 0, "lowest odds to bet on")
	cmd.Flags().Float64Var(&maxOdds, "max-odds", 0, "highest odds to bet on")
	cmd.Flags().StringSliceVar(&sports, "sports", nil, "comma separated list of sports")
	cmd.Flags().BoolVar(&autoExecute, "auto-execute", false, "place matching bets automatically")
	return cmd
}

func printBetConfig(w io.Writer, cfg *models.BetConfig) {
	fmt.Fprintf(w, "stake: %.2f\nodds: %s - %s\nsports: %s\nauto-execute: %t\n",
		cfg.Stake, odds(cfg.MinOdds), odds(cfg.MaxOdds), strings.Join(cfg.Sports, ", "), cfg.AutoExecute)
}

func (r *runner) newBetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bet",
		Short: "Place bets",
	}

	var stake float64
	place := &cobra.Command{
		Use:       "place <match-id> <home|draw|away>",
		Short:     "Place a bet on one outcome of a match",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.SelectionHome), string(models.SelectionDraw), string(models.SelectionAway)},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.BetRequest{
				MatchID:   args[0],
				Selection: models.Selection(strings.ToLower(args[1])),
				Stake:     stake,
			}
			receipt, err := r.app.bettingService.PlaceBet(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.app.out, "Bet %s %s at odds %s\n", receipt.BetID, receipt.Status, odds(receipt.AcceptedOdds))
			return nil
		},
	}
	place.Flags().Float64Var(&stake, "stake", 0, "amount to bet")
	_ = place.MarkFlagRequired("stake")

	cmd.AddCommand(place)
	return cmd
}

func (r *runner) newAutoExecuteCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "auto-execute <on|off>",
		Short:     "Turn automatic bet execution on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.app.bettingService.AutoExecute(cmd.Context(), args[0] == "on")
			if err != nil {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = fmt.Sprintf("auto-execute: %t", res.Enabled)
			}
			fmt.Fprintln(r.app.out, msg)
			return nil
		},
	}
}

