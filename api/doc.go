// Package api provides a client for the Pi question and forecasting API.
//
// Pi answers natural language questions with timeseries: the question's own
// series plus the series found to correlate with it. This package covers
// authentication, typed models, pagination and error mapping.
//
// # Usage
//
// Create a client with an API key. Empty arguments fall back to the
// PI_API_KEY and PI_BASE_URL environment variables:
//
//	logger := zerolog.New(os.Stderr)
//	client, err := api.NewClient("", "", logger, api.WithPageSize(50))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	question, err := client.CreateQuestion(ctx, "Will rents keep rising?",
//		api.WithDatasource("economy"),
//		api.WithWait(api.WaitUpTo(20)),
//	)
//
// Listings are lazy sequences; pages are fetched as the loop advances:
//
//	for q, err := range client.ListQuestions(ctx, api.QuestionFilter{OnlySuccessful: api.Ptr(true)}) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(q.OriginalPrompt)
//	}
//
// # Error Handling
//
// Errors reported by the server are mapped from their code to a dedicated
// type when one exists, and to *GenericAPIError otherwise. All of them wrap
// ErrAPI:
//
//	var quota *api.DailyQuestionQuotaReachedError
//	if errors.As(err, &quota) {
//		fmt.Printf("quota of %d reached\n", quota.LimitPerDay)
//	} else if errors.Is(err, api.ErrAPI) {
//		// any other server error
//	}
//
// Transport failures and malformed payloads are returned wrapped as-is.
package api
