// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults supplied by the caller (WithDefaults)
//  2. A YAML file (WithConfigFile)
//  3. Environment variables under a prefix (default ROSTER_)
//
// Environment keys use a double underscore between sections so that
// single underscores can appear inside key names:
//
//	ROSTER_BACKUP__RETENTION_COUNT=5  ->  backup.retention_count
//
// Watcher reports changes to the YAML file so callers can reapply the
// settings that support it.
package confloader
