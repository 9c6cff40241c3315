// Package http provides the HTTP client behind the resolver and the byte
// stream source.
//
// The Client handles:
//   - User-Agent headers and timeouts
//   - Page fetches for the resolver (Get, GetString)
//   - Lazy in-memory downloads reported as a sequence of results (Open)
//
// # Streams
//
// Open yields model.DownloadResult values: progress ratios while bytes arrive,
// throttled to one per progress interval, followed by exactly one error or
// success carrying the bytes:
//
//	for res := range client.Open(ctx, url) {
//	    switch res.Kind {
//	    case model.ResultProgress:
//	        fmt.Printf("%.0f%%\n", res.Progress*100)
//	    case model.ResultError:
//	        return res.Err
//	    case model.ResultSuccess:
//	        save(res.Data)
//	    }
//	}
package http
