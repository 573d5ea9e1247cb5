package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mineos-tools/marketctl/config"
	"github.com/mineos-tools/marketctl/filter"
	"github.com/mineos-tools/marketctl/market"
)

var (
	cfgFile      string
	cfg          *config.Config
	logger       zerolog.Logger
	marketClient *market.Client

	// Command flags
	filterExpr   string
	preset       string
	categoryName string
	orderName    string
	page         int
	pageSize     int
	allPages     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marketctl",
	Short: "A tool to browse, download and publish MineOS App Market apps",
	Long: `marketctl is a CLI for the MineOS App Market. It searches publications,
shows their details and reviews, downloads apps with their dependencies,
and manages your market account.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion records build metadata injected by the linker.
func SetVersion(version, built string) {
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, built)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(statsCmd)
}

// initializeApp initializes the configuration and the market client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	opts := []market.Option{
		market.WithTimeout(time.Duration(cfg.Market.Timeout) * time.Second),
		market.WithLanguage(parseLanguage(cfg.Market.Language)),
	}
	if cfg.Market.UserAgent != "" {
		opts = append(opts, market.WithUserAgent(cfg.Market.UserAgent))
	}
	if cfg.Auth.Token != "" {
		opts = append(opts, market.WithToken(cfg.Auth.Token))
	}

	marketClient, err = market.NewClient(cfg.Market.URL, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create market client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func parseLanguage(name string) market.Language {
	if strings.EqualFold(name, "russian") {
		return market.LanguageRussian
	}
	return market.LanguageEnglish
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search publications in the market",
	Long: `Search the App Market by name. Results can be narrowed further with a
filter expression, for example:

  marketctl search redstone --filter 'Downloads > 1000 && rating() >= 4'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	searchCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a named filter from config")
	searchCmd.Flags().StringVar(&categoryName, "category", "", "restrict to a category (applications, libraries, scripts, wallpapers)")
	searchCmd.Flags().StringVar(&orderName, "order", "", "sort by popularity, rating, name or date")
	searchCmd.Flags().IntVar(&page, "page", 1, "result page")
	searchCmd.Flags().IntVar(&pageSize, "page-size", 50, "results per page")
	searchCmd.Flags().BoolVar(&allPages, "all", false, "fetch every matching page")
}

func runSearch(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) > 0 {
		query = args[0]
	}

	opts := market.SearchOptions{Query: query}
	if categoryName != "" {
		category, err := parseCategory(categoryName)
		if err != nil {
			return err
		}
		opts.Category = category
	}
	if orderName != "" {
		order, err := parseOrder(orderName)
		if err != nil {
			return err
		}
		opts.OrderBy = order
	}

	ctx := context.Background()
	var apps []market.AppSummary
	var err error
	if allPages {
		opts.Count = pageSize
		apps, err = marketClient.SearchAll(ctx, opts)
	} else {
		opts.Offset = (page - 1) * pageSize
		opts.Count = pageSize
		apps, err = marketClient.SearchApps(ctx, opts)
	}
	if err != nil {
		return err
	}

	apps, err = applyFilter(apps)
	if err != nil {
		return err
	}

	if len(apps) == 0 {
		fmt.Println("No publications found.")
		return nil
	}

	fmt.Printf("\nFound %d publications:\n", len(apps))
	fmt.Println(strings.Repeat("-", 80))
	for _, app := range apps {
		fmt.Printf("• %s v%g by %s [%s]\n", app.Name, app.Version, app.Author, app.Category)
		fmt.Printf("  ID: %d  Downloads: %d", app.ID, app.Downloads)
		if app.AverageRating != nil {
			fmt.Printf("  Rating: %.1f/5 (%d reviews)", app.Rating(), app.ReviewsCount)
		}
		fmt.Println()
	}

	return nil
}

// applyFilter narrows search results with the --filter/--preset expression.
func applyFilter(apps []market.AppSummary) ([]market.AppSummary, error) {
	expr, err := getFilterExpression()
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return apps, nil
	}

	f, err := filter.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return f.Apply(apps)
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expression, ok := cfg.Filter[preset]; ok {
			return expression, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

func parseCategory(name string) (market.Category, error) {
	switch strings.ToLower(name) {
	case "applications", "apps":
		return market.CategoryApplications, nil
	case "libraries", "libs":
		return market.CategoryLibraries, nil
	case "scripts":
		return market.CategoryScripts, nil
	case "wallpapers":
		return market.CategoryWallpapers, nil
	default:
		return 0, fmt.Errorf("unknown category '%s'", name)
	}
}

func parseOrder(name string) (market.OrderBy, error) {
	switch strings.ToLower(name) {
	case "popularity":
		return market.OrderByPopularity, nil
	case "rating":
		return market.OrderByRating, nil
	case "name":
		return market.OrderByName, nil
	case "date":
		return market.OrderByDate, nil
	default:
		return "", fmt.Errorf("unknown sort order '%s'", name)
	}
}

func parseAppID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("'%s' is not a valid publication ID", arg)
	}
	return id, nil
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show full details of a publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}

	detail, err := marketClient.GetApp(context.Background(), appID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s v%g\n", detail.Name, detail.Version)
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Author:    %s\n", detail.Author)
	fmt.Printf("Category:  %s\n", detail.Category)
	fmt.Printf("License:   %s\n", detail.License)
	fmt.Printf("Released:  %s\n", time.Unix(detail.ReleasedAt, 0).Format("2006-01-02"))
	fmt.Printf("Downloads: %d\n", detail.Downloads)
	if detail.AverageRating > 0 {
		fmt.Printf("Rating:    %.1f/5\n", detail.AverageRating)
	}
	fmt.Printf("Source:    %s\n", detail.SourceURL)
	fmt.Printf("Installs:  %s\n", detail.Path)

	description := detail.TranslatedDescription
	if description == "" {
		description = detail.Description
	}
	if description != "" {
		fmt.Printf("\n%s\n", description)
	}
	if detail.WhatsNew != "" {
		fmt.Printf("\nWhat's new in v%g:\n%s\n", detail.WhatsNewVersion, detail.WhatsNew)
	}

	if len(detail.AllDependencies) > 0 {
		fmt.Printf("\nDependencies (%d):\n", len(detail.AllDependencies))
		for _, depID := range detail.AllDependencies {
			dep, ok := detail.DependencyData[depID]
			if !ok {
				continue
			}
			if dep.IsPublication() {
				fmt.Printf("  • %s v%g (ID: %d)\n", dep.Name, dep.Version, depID)
			} else {
				fmt.Printf("  • %s\n", dep.Path)
			}
		}
	}

	return nil
}

// versionsCmd represents the versions command
var versionsCmd = &cobra.Command{
	Use:   "versions <id>",
	Short: "List the versions the market reports for a publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}

	versions, err := marketClient.ListVersions(context.Background(), appID)
	if err != nil {
		return err
	}

	fmt.Printf("\nVersions of publication %d:\n", appID)
	for i, v := range versions {
		fmt.Printf("• v%g", v.Version)
		if i == 0 {
			fmt.Printf(" (current)")
		}
		if v.ReleasedAt > 0 {
			fmt.Printf("  released %s", time.Unix(v.ReleasedAt, 0).Format("2006-01-02"))
		}
		if v.SourceURL == "" {
			fmt.Printf("  [no longer downloadable]")
		}
		fmt.Println()
	}

	return nil
}

// reviewsCmd represents the reviews command
var reviewsCmd = &cobra.Command{
	Use:   "reviews <id>",
	Short: "Show user reviews of a publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviews,
}

func runReviews(cmd *cobra.Command, args []string) error {
	appID, err := parseAppID(args[0])
	if err != nil {
		return err
	}

	reviews, err := marketClient.ListReviews(context.Background(), appID, 0, 0)
	if err != nil {
		return err
	}

	if len(reviews) == 0 {
		fmt.Println("No reviews yet.")
		return nil
	}

	fmt.Printf("\n%d reviews:\n", len(reviews))
	fmt.Println(strings.Repeat("-", 80))
	for _, review := range reviews {
		fmt.Printf("• %s  %s  %s\n", stars(review.Rating), review.Author,
			time.Unix(review.Timestamp, 0).Format("2006-01-02"))
		if review.Comment != "" {
			fmt.Printf("  %s\n", review.Comment)
		}
		if review.Votes.Total > 0 {
			fmt.Printf("  %d of %d found this helpful\n", review.Votes.Positive, review.Votes.Total)
		}
	}

	return nil
}

func stars(rating int) string {
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show marketplace-wide statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := marketClient.Statistics(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("\nApp Market statistics:\n")
	fmt.Printf("- Users:        %d\n", stats.UsersCount)
	fmt.Printf("- Publications: %d\n", stats.PublicationsCount)
	fmt.Printf("- Reviews:      %d\n", stats.ReviewsCount)
	fmt.Printf("- Messages:     %d\n", stats.MessagesCount)
	if stats.MostPopularUser != "" {
		fmt.Printf("- Most popular user: %s\n", stats.MostPopularUser)
	}
	if stats.LastRegisteredUser != "" {
		fmt.Printf("- Newest user: %s\n", stats.LastRegisteredUser)
	}

	return nil
}
