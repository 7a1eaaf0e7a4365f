// Package source resolves logical source references to file paths.
package source

import "path/filepath"

// Resolve composes the concrete path of a source file:
// <base_path>/<source_group>/<file_name>.
//
// No existence check is performed here; a missing file surfaces later as a
// loader failure carrying the resolved path.
func Resolve(basePath, sourceGroup, fileName string) string {
	return filepath.Join(basePath, sourceGroup, fileName)
}
