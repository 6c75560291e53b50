// Package notion fetches recently edited pages from a Notion workspace.
//
// Pages are found with the search endpoint sorted by last edit time and
// their top-level text blocks are flattened into the item body.
package notion
