// Package backloggery fetches game libraries and single game records from
// the Backloggery web service.
//
// The service exposes one endpoint that accepts a JSON POST body and answers
// with a {"payload": ...} envelope. The client returns payloads as raw JSON
// so callers decide how to decode them (see package game).
//
// # Usage
//
//	client, err := backloggery.NewClient(logger,
//		backloggery.WithTimeout(15*time.Second),
//		backloggery.WithVersion("1.2.0"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	games, err := client.FetchLibrary(ctx, "Drumble")
//	if errors.Is(err, backloggery.ErrNoData) {
//		// the user does not exist or has no games
//	}
//
// # Error Handling
//
//   - ErrNoData / NoDataError: the service answered with nothing for the key
//   - ErrTransport / APIError: the request failed or returned a non-2xx status
//   - ErrMalformedPayload: the response could not be understood
//
// Requests are never retried.
package backloggery
