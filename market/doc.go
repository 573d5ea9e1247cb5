// Package market provides a client for the MineOS App Market API.
//
// The App Market is the publication repository used by MineOS, the
// OpenComputers operating system. Every API operation is a form-encoded
// POST against a script endpoint, and the live server answers with Lua
// table literals rather than JSON; this package speaks both.
//
// # Architecture
//
// The package is organized into several components:
//
//   - Client: the API client with connection pooling and a bounded retry
//     policy for read calls
//   - Types: domain models for publications, versions, reviews, accounts
//     and messages
//   - Decoder: strict envelope parsing with schema validation, accepting
//     JSON and Lua table payloads
//   - Errors: a typed failure taxonomy so callers can branch on what went
//     wrong rather than matching strings
//
// # Usage
//
// Create a client, search, and download:
//
//	logger := zerolog.New(os.Stdout)
//	client, err := market.NewClient(
//		market.DefaultBaseURL,
//		logger,
//		market.WithTimeout(30*time.Second),
//		market.WithLanguage(market.LanguageEnglish),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	apps, err := client.Search(ctx, "redstone", 1, 50)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	body, info, err := client.Download(ctx, apps[0].ID, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer body.Close()
//
// Account operations need a prior Authenticate (or WithToken):
//
//	if _, err := client.Authenticate(ctx, market.Credentials{
//		Name:     "holo",
//		Password: secret,
//	}); err != nil {
//		log.Fatal(err)
//	}
//	review, err := client.SubmitReview(ctx, apps[0].ID, market.ReviewDraft{
//		Rating:  5,
//		Comment: "works great on tier 2 screens",
//	})
//
// # Error Handling
//
// Every failure is one of the package's typed errors: ConfigurationError,
// TransportError, TimeoutError, AuthenticationError, NotFoundError,
// RateLimitedError, ServerError, RequestError or SchemaError. Match them
// with errors.As:
//
//	var rateLimited *market.RateLimitedError
//	if errors.As(err, &rateLimited) {
//		time.Sleep(time.Duration(rateLimited.RetryAfter) * time.Second)
//	}
package market
