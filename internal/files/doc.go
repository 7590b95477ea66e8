// Package files expands command line inputs into the sales exports to
// analyse. A directory argument yields every supported file directly inside
// it, a glob yields its supported matches, and a plain path is taken as is.
//
//	discovery := files.NewDiscovery(".")
//	inputs, err := discovery.Expand([]string{"exports/", "q3/*.xlsx", "extra.csv"})
package files
