package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mineos-tools/marketctl/market"
)

var (
	draftName        string
	draftSourceURL   string
	draftPath        string
	draftDescription string
	draftLicense     string
	draftCategory    string
	draftDeps        []int64
	draftWhatsNew    string
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a new publication to the market",
	RunE:  runPublish,
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the stored data of a publication you own",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

// unpublishCmd represents the unpublish command
var unpublishCmd = &cobra.Command{
	Use:   "unpublish <id>",
	Short: "Remove a publication you own from the market",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnpublish,
}

func init() {
	for _, cmd := range []*cobra.Command{publishCmd, updateCmd} {
		cmd.Flags().StringVar(&draftName, "name", "", "publication name (required)")
		cmd.Flags().StringVar(&draftSourceURL, "source-url", "", "URL of the main file (required)")
		cmd.Flags().StringVar(&draftPath, "path", "", "install path of the main file (required)")
		cmd.Flags().StringVar(&draftDescription, "description", "", "publication description")
		cmd.Flags().StringVar(&draftLicense, "license", "mit", "license (mit, gplv3, agplv3, lgplv3, apache2, mpl2, unlicense)")
		cmd.Flags().StringVar(&draftCategory, "category", "applications", "category (applications, libraries, scripts, wallpapers)")
		cmd.Flags().Int64SliceVar(&draftDeps, "depends", nil, "dependency publication IDs")
	}
	updateCmd.Flags().StringVar(&draftWhatsNew, "whats-new", "", "release notes for this update")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(unpublishCmd)
}

func buildDraft() (market.AppDraft, error) {
	license, err := parseLicense(draftLicense)
	if err != nil {
		return market.AppDraft{}, err
	}
	category, err := parseCategory(draftCategory)
	if err != nil {
		return market.AppDraft{}, err
	}

	return market.AppDraft{
		Name:         draftName,
		SourceURL:    draftSourceURL,
		Path:         draftPath,
		Description:  draftDescription,
		License:      license,
		Category:     category,
		Dependencies: draftDeps,
		WhatsNew:     draftWhatsNew,
	}, nil
}

func parseLicense(name string) (market.License, error) {
	switch strings.ToLower(name) {
	case "mit":
		return market.LicenseMIT, nil
	case "gplv3":
		return market.LicenseGPLv3, nil
	case "agplv3":
		return market.LicenseAGPLv3, nil
	case "lgplv3":
		return market.LicenseLGPLv3, nil
	case "apache2":
		return market.LicenseApache2, nil
	case "mpl2":
		return market.LicenseMPL2, nil
	case "unlicense":
		return market.LicenseUnlicense, nil
	default:
		return 0, fmt.Errorf("unknown license '%s'", name)
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	draft, err := buildDraft()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	if err := marketClient.Publish(ctx, draft); err != nil {
		return err
	}
	fmt.Printf("Published %s\n", draft.Name)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}
	draft, err := buildDraft()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	if err := marketClient.UpdateApp(ctx, appID, draft); err != nil {
		return err
	}
	fmt.Printf("Updated publication %d\n", appID)
	return nil
}

func runUnpublish(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := ensureAuthenticated(ctx); err != nil {
		return err
	}

	if err := marketClient.DeleteApp(ctx, appID); err != nil {
		return err
	}
	fmt.Printf("Removed publication %d\n", appID)
	return nil
}
