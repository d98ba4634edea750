// Package authors ranks the editors of a wiki page and encodes the ranked
// list for the wire.
//
// # Ranking
//
// An Aggregator asks a Store for the distinct editors of a page, their edit
// counts and the timestamp of their first edit, all from one grouped query.
// Anonymous editors (user id 0) are dropped, bot accounts are dropped unless
// requested, and the rest is ordered by Rank:
//
//  1. descending edit count, ties broken by case-insensitive display name
//  2. the editor with the earliest first edit (the original author) moved to the front
//
// A positive limit bounds the store query to limit+1 distinct editors so the
// client can tell whether more editors exist. The bound is applied before
// anonymous and bot editors are filtered out.
//
// # Wire format
//
// EncodeXML writes the list as
//
//	<?xml version="1.0"?>
//	<AuthorList><Author Name="Alice" EditCount="12" Url="https://wiki/index.php/User:Alice"/></AuthorList>
//
// EncodeJSON writes the same triples as {"authors":[{"name":..,"editCount":..,"url":..}]}.
// Only the name, edit count and profile url leave the server.
package authors
