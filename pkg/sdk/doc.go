// Package drugqa is a Go client for the drugqa HTTP API.
//
// Ask questions across the public corpus and a user's own uploads, and
// manage the documents behind them.
//
//	client, _ := drugqa.New("http://localhost:8080", drugqa.WithAPIKey(key))
//	ans, _ := client.Ask(ctx, drugqa.AskRequest{
//	    Query:   "What will Drug X cost in France?",
//	    Tenants: []string{"public", "user-7"},
//	})
//	fmt.Println(ans.Answer)
//
// Uploads go to a tenant index and can be purged by drug or by file:
//
//	res, _ := client.Ingest(ctx, "user-7", drugqa.Document{DrugID: "d1", FileID: "f1", Text: text})
//	_, _ = client.DeleteFile(ctx, "user-7", "f1")
package drugqa
