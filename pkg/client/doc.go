// Package client provides a Go client for the searchcore HTTP API.
//
//	c, _ := client.New("http://localhost:8080", client.WithAPIKey(key))
//	resp, _ := c.Search(ctx, client.SearchRequest{Query: "unfair dismissal"})
//
// SearchStream delivers progressive batches as they arrive:
//
//	_, err := c.SearchStream(ctx, req, func(ev client.ProgressEvent) {
//	    fmt.Println(ev.Batch, len(ev.Results), ev.Final)
//	})
package client
