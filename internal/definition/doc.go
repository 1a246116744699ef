// Package definition provides the stores display definitions are loaded
// from and saved to.
//
// FileStore keeps one YAML document per display in a directory; only files
// named like "lobby.yml" are considered. SQLiteStore keeps definitions in the
// displays table as JSON. Both implement hologram.DefinitionStore and
// hologram.DefinitionWriter.
package definition
