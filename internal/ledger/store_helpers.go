package ledger

import (
	"database/sql"
	"time"
)

const buildColumns = "id, run_id, creature, archive_path, portrait_checksum, portrait_fallback, macros, library, status, error_class, error_message, built_at"

func scanBuild(scanner interface{ Scan(dest ...any) error }) (*Build, error) {
	var (
		b          Build
		archive    sql.NullString
		checksum   sql.NullString
		fallback   int
		library    int
		status     string
		errorClass sql.NullString
		errorMsg   sql.NullString
		builtRaw   string
	)
	if err := scanner.Scan(
		&b.ID,
		&b.RunID,
		&b.Creature,
		&archive,
		&checksum,
		&fallback,
		&b.Macros,
		&library,
		&status,
		&errorClass,
		&errorMsg,
		&builtRaw,
	); err != nil {
		return nil, err
	}
	b.ArchivePath = archive.String
	b.PortraitChecksum = checksum.String
	b.PortraitFallback = fallback != 0
	b.Library = library != 0
	b.Status = Status(status)
	b.ErrorClass = errorClass.String
	b.ErrorMessage = errorMsg.String
	b.BuiltAt = parseTime(builtRaw)
	return &b, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
