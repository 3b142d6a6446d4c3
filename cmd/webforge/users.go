package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/webforge/internal/accounts"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

var signupRef string

var signupCmd = &cobra.Command{
	Use:   "signup <email> <name>",
	Short: "Create an account",
	Long: `Create an account with the sign-up bonus. A referral code credits both
the new user and the referrer.

Examples:
  webforge signup ada@example.com "Ada Lovelace"
  webforge signup grace@example.com Grace --ref K7Q2M9XA`,
	Args: cobra.ExactArgs(2),
	RunE: runSignup,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show the acting user",
	Long: `Show the profile, balance and referral progress of the --user account.

Examples:
  webforge user --user <user-id>`,
	Args: cobra.NoArgs,
	RunE: runUser,
}

func init() {
	signupCmd.Flags().StringVar(&signupRef, "ref", "", "Referral code")
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.svc.Accounts.SignUp(ctx, types.SignUpRequest{
		Email:        args[0],
		Name:         args[1],
		ReferralCode: signupRef,
	})
	if err != nil {
		return fmt.Errorf("failed to sign up: %w", err)
	}

	fmt.Printf("Created user %s\n", u.ID)
	fmt.Printf("  Credits:       %d\n", u.Credits)
	fmt.Printf("  Referral link: %s\n", accounts.ReferralLink(a.cfg.SiteURL, u))
	return nil
}

func runUser(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := requireUser()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.svc.Accounts.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	stats, err := a.svc.Accounts.ReferralStats(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load referrals: %w", err)
	}

	fmt.Printf("%s <%s>\n", u.Name, u.Email)
	fmt.Printf("  ID:        %s\n", u.ID)
	fmt.Printf("  Plan:      %s\n", u.Plan)
	fmt.Printf("  Credits:   %d\n", u.Credits)
	fmt.Printf("  Referrals: %d (%d completed, %d credits earned)\n",
		stats.TotalReferrals, stats.SuccessfulReferrals, stats.TotalRewards)
	fmt.Printf("  Link:      %s\n", accounts.ReferralLink(a.cfg.SiteURL, u))

	if verbose {
		usage, err := a.svc.Credits.History(ctx, id, 10)
		if err != nil {
			return fmt.Errorf("failed to load credit history: %w", err)
		}
		fmt.Println("\nRecent credit activity:")
		for _, e := range usage {
			fmt.Printf("  %+5d  %-15s %s\n", e.Amount, e.Type, e.Description)
		}
	}
	return nil
}
