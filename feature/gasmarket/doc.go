// Package gasmarket serves the MERCADO_GAS records: JSON create and batch
// endpoints, text file uploads reconciled against stored rows, and monthly
// Excel exports.
//
// Uploads run through the parser package, then the reconcile engine with the
// requested strategy. Raw uploads and generated exports are archived to
// object storage when a client is configured; archive failures are logged and
// never fail the request.
package gasmarket
