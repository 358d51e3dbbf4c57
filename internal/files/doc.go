// Package files locates CGM export files and resolves output paths.
//
// Discovery lists the CSV and XLSX exports of an input directory in a
// stable order. Manager names the normalized CSV written for each source
// file in the output directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	exports, err := discovery.FindExports("data")
//
//	manager := files.NewManager("output")
//	path := manager.TransformedPath(exports[0].Path)
package files
