package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mineos-tools/marketctl/market"
)

var (
	loginName     string
	loginEmail    string
	loginPassword string

	reviewRating  int
	reviewComment string

	messageText string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the market and print the session token",
	Long: `Log in with the credentials given on the command line, falling back to
the auth section of the config file. The printed token can be stored as
auth.token to skip the password on later runs.`,
	RunE: runLogin,
}

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <id>",
	Short: "Post a review of a publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

// voteCmd represents the vote command
var voteCmd = &cobra.Command{
	Use:   "vote <review-id> <up|down>",
	Short: "Mark a review as helpful or not",
	Args:  cobra.ExactArgs(2),
	RunE:  runVote,
}

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <user>",
	Short: "Send a direct message to a market user",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

// inboxCmd represents the inbox command
var inboxCmd = &cobra.Command{
	Use:   "inbox [user]",
	Short: "List conversations, or the messages exchanged with one user",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInbox,
}

func init() {
	loginCmd.Flags().StringVar(&loginName, "name", "", "account name")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")

	reviewCmd.Flags().IntVar(&reviewRating, "rating", 0, "rating from 1 to 5 (required)")
	reviewCmd.Flags().StringVar(&reviewComment, "comment", "", "review text")

	sendCmd.Flags().StringVar(&messageText, "text", "", "message text (required)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(inboxCmd)
}

// ensureAuthenticated logs in with config credentials when no token is set.
func ensureAuthenticated(ctx context.Context) error {
	if marketClient.Authenticated() {
		return nil
	}
	if cfg.Auth.Password == "" {
		return fmt.Errorf("not logged in: set auth.token or auth credentials in the config, or run 'marketctl login'")
	}
	_, err := marketClient.Authenticate(ctx, market.Credentials{
		Name:     cfg.Auth.Name,
		Email:    cfg.Auth.Email,
		Password: cfg.Auth.Password,
	})
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds := market.Credentials{
		Name:     loginName,
		Email:    loginEmail,
		Password: loginPassword,
	}
	if creds.Name == "" && creds.Email == "" {
		creds.Name = cfg.Auth.Name
		creds.Email = cfg.Auth.Email
	}
	if creds.Password == "" {
		creds.Password = cfg.Auth.Password
	}

	token, err := marketClient.Authenticate(context.Background(), creds)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s", token.Name)
	if !token.Verified {
		fmt.Printf(" (email not verified)")
	}
	fmt.Println()
	fmt.Printf("Token: %s\n", token.Token)
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}
	if reviewRating == 0 {
		return fmt.Errorf("--rating is required")
	}

	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	review, err := marketClient.SubmitReview(ctx, appID, market.ReviewDraft{
		Rating:  reviewRating,
		Comment: reviewComment,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Review posted: %s by %s\n", stars(review.Rating), review.Author)
	return nil
}

func runVote(cmd *cobra.Command, args []string) error {
	reviewID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || reviewID <= 0 {
		return fmt.Errorf("'%s' is not a valid review ID", args[0])
	}

	var helpful bool
	switch strings.ToLower(args[1]) {
	case "up", "helpful", "yes":
		helpful = true
	case "down", "unhelpful", "no":
		helpful = false
	default:
		return fmt.Errorf("vote must be 'up' or 'down', got '%s'", args[1])
	}

	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	ack, err := marketClient.VoteReview(ctx, reviewID, helpful)
	if err != nil {
		return err
	}
	if ack == "" {
		ack = "Vote recorded"
	}
	fmt.Println(ack)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	if messageText == "" {
		return fmt.Errorf("--text is required")
	}

	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	if err := marketClient.SendMessage(ctx, args[0], messageText); err != nil {
		return err
	}
	fmt.Printf("Message sent to %s\n", args[0])
	return nil
}

func runInbox(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	if len(args) == 1 {
		messages, err := marketClient.Messages(ctx, args[0])
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Printf("No messages with %s.\n", args[0])
			return nil
		}
		for _, msg := range messages {
			fmt.Printf("%s: %s\n", msg.Author, msg.Text)
		}
		return nil
	}

	dialogs, err := marketClient.Dialogs(ctx)
	if err != nil {
		return err
	}
	if len(dialogs) == 0 {
		fmt.Println("No conversations.")
		return nil
	}
	for _, dialog := range dialogs {
		marker := " "
		if !dialog.LastMessageIsRead {
			marker = "*"
		}
		fmt.Printf("%s %s: %s\n", marker, dialog.DialogUserName, dialog.Text)
	}
	return nil
}
