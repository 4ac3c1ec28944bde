// Package evidlit provides a Go client for evidence-literature search: a
// five-stage enrichment pipeline (document fetch, narrative summary,
// per-document summaries, agreeableness scoring, relevant sections) over a
// remote search gateway, with Redis-backed result caching and per-user
// search history.
//
//	client, _ := evidlit.New(ctx,
//	    evidlit.WithRedis("localhost:6379", ""),
//	    evidlit.WithGateway("https://gateway.example.com"),
//	)
//	defer client.Close()
//
//	bundle, _ := client.Search().Run(ctx, "user-1", "does zinc shorten colds?", nil)
//	sorted := evidlit.ApplyView(bundle.Documents, evidlit.ViewState{
//	    SortKey: evidlit.SortCitations, SortOrder: evidlit.SortAsc,
//	})
package evidlit
