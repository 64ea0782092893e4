package catalog

import "embed"

// Catalog file names, shared by the local directory, the download source
// and the embedded defaults
const (
	SupplementsFile = "supplements.tsv"
	GuidelinesFile  = "guidelines.tsv"
	LocationsFile   = "locations.tsv"
)

var catalogFiles = []string{SupplementsFile, GuidelinesFile, LocationsFile}

//go:embed defaults/*.tsv
var defaultFiles embed.FS
