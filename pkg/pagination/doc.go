// Package pagination fetches single pages from the scan endpoint.
//
// The scan endpoint pages by an explicit half-open row range rather than page
// numbers, and reports a totalCount that is only a hint: it may be missing or
// inconsistent between pages. A BatchFetcher therefore does exactly one thing,
// fetch the rows [start, start+size) for a schema, and leaves termination to
// the caller, which must treat an empty page as the authoritative end.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(scanClient, pagination.DefaultConfig())
//	page, err := fetcher.FetchPage(ctx, schema, 0, 150)
//	if err != nil {
//		return err // *scan.TransportError on a non-success status
//	}
//	for _, item := range page.Items {
//		...
//	}
//
// Pages are fetched sequentially; the endpoint's rate tolerance, not local
// compute, bounds throughput.
package pagination
