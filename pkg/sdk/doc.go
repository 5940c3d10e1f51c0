// Package docqa provides a Go client for the docqa document question
// answering service.
//
// The client covers the full HTTP API: PDF ingestion, context retrieval,
// question answering, collection management, and usage reporting.
//
//	client := docqa.New("http://localhost:8080",
//	    docqa.WithAPIKey(os.Getenv("DOCQA_API_KEY")),
//	)
//	_, _ = client.Ingest(ctx, "./manuals", "documents")
//	answer, _ := client.Query(ctx, docqa.QueryRequest{
//	    Question: "how do I reset the device",
//	})
//	fmt.Println(answer.Answer)
package docqa
