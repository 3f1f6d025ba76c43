// Package geodata holds the static geography of the rail network: the five
// regions, the curated major-hub list, the junction hubs between adjacent
// regions and the city code table. The tables are built once and treated as
// read-only afterwards.
package geodata
